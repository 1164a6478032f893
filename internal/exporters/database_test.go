package exporters

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pr2ps/levelimporter/internal/database/levels"
	"github.com/pr2ps/levelimporter/internal/entities"
	"github.com/pr2ps/levelimporter/internal/importers"
)

func setupLevelsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "levels.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Level{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func level(title string) entities.Level {
	return entities.Level{
		Version:  1,
		UserID:   7,
		Title:    title,
		Gravity:  1,
		GameMode: entities.GameModeRace,
		Data:     "m4`1;2",
	}
}

func TestDatabaseExporter_Import(t *testing.T) {
	db := setupLevelsDB(t)
	exporter := NewDatabaseExporter(levels.NewRepository(db), 2)

	err := exporter.Import(context.Background(), []entities.Level{level("A"), level("B"), level("C")})

	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&entities.Level{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestDatabaseExporter_EmptyIsNoop(t *testing.T) {
	store := &failingStore{err: errors.New("should not be called")}

	err := NewDatabaseExporter(store, 0).Import(context.Background(), nil)

	assert.NoError(t, err)
	assert.Zero(t, store.calls)
}

func TestDatabaseExporter_NoStore(t *testing.T) {
	err := NewDatabaseExporter(nil, 0).Import(context.Background(), []entities.Level{level("A")})

	assert.ErrorIs(t, err, importers.ErrStoreUnavailable)
}

func TestDatabaseExporter_WriteFailure(t *testing.T) {
	store := &failingStore{err: errors.New("disk I/O error")}

	err := NewDatabaseExporter(store, 0).Import(context.Background(), []entities.Level{level("A")})

	require.Error(t, err)
	assert.ErrorIs(t, err, importers.ErrStoreWriteFailed)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, 1, store.calls)
}

func TestDatabaseExporter_CommitIsAtomic(t *testing.T) {
	db := setupLevelsDB(t)
	require.NoError(t, db.Exec(`CREATE TRIGGER reject_poison BEFORE INSERT ON levels
		WHEN NEW.title = 'Poison' BEGIN SELECT RAISE(ABORT, 'poisoned level'); END`).Error)

	// Batch size 1 puts the poisoned level in a later statement than the first.
	exporter := NewDatabaseExporter(levels.NewRepository(db), 1)
	err := exporter.Import(context.Background(), []entities.Level{level("A"), level("B"), level("Poison")})

	assert.ErrorIs(t, err, importers.ErrStoreWriteFailed)
	var count int64
	require.NoError(t, db.Model(&entities.Level{}).Count(&count).Error)
	assert.Zero(t, count)
}

type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) ImportLevels(context.Context, []entities.Level, int) error {
	s.calls++
	return s.err
}
