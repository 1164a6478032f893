package users

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pr2ps/levelimporter/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "users.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.User{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func seedUsers(t *testing.T, repo *Repository, names ...string) []*entities.User {
	t.Helper()
	users := make([]*entities.User, 0, len(names))
	for _, name := range names {
		u, err := repo.CreateUser(name, name+"@example.com")
		require.NoError(t, err)
		users = append(users, u)
	}
	return users
}

func TestRepository_FindUsers_ByName(t *testing.T) {
	repo := setupTestDB(t)
	seedUsers(t, repo, "Jiggmin", "jiggy", "Fred")

	users, err := repo.FindUsers("JIGG", SearchByName)

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Jiggmin", users[0].Username)
	assert.Equal(t, "jiggy", users[1].Username)
}

func TestRepository_FindUsers_ByID(t *testing.T) {
	repo := setupTestDB(t)
	seeded := seedUsers(t, repo, "Jiggmin", "Fred")

	users, err := repo.FindUsers("2", SearchByID)

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, seeded[1].ID, users[0].ID)
}

func TestRepository_FindUsers_InvalidInput(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.FindUsers("   ", SearchByName)
	assert.Error(t, err)

	_, err = repo.FindUsers("abc", SearchByID)
	assert.Error(t, err)
}

func TestRepository_FindUsers_NoMatches(t *testing.T) {
	repo := setupTestDB(t)
	seedUsers(t, repo, "Fred")

	users, err := repo.FindUsers("nobody", SearchByName)

	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestRepository_FindUsers_WildcardsAreLiteral(t *testing.T) {
	repo := setupTestDB(t)
	seedUsers(t, repo, "jigg_min", "jiggXmin", "100%fred", "100fred")

	found, err := repo.FindUsers("g_m", SearchByName)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "jigg_min", found[0].Username)

	found, err = repo.FindUsers("0%f", SearchByName)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100%fred", found[0].Username)
}

func TestRepository_Resolve(t *testing.T) {
	repo := setupTestDB(t)
	seeded := seedUsers(t, repo, "Jiggmin", "Fred")

	byID, err := repo.Resolve("2")
	require.NoError(t, err)
	assert.Equal(t, seeded[1].ID, byID.ID)

	byName, err := repo.Resolve("jiggmin")
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, byName.ID)

	_, err = repo.Resolve("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestParseSearchMode(t *testing.T) {
	mode, err := ParseSearchMode("id")
	require.NoError(t, err)
	assert.Equal(t, SearchByID, mode)

	mode, err = ParseSearchMode("")
	require.NoError(t, err)
	assert.Equal(t, SearchByName, mode)

	_, err = ParseSearchMode("email")
	assert.Error(t, err)
}
