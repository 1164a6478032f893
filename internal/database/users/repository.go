// Package users provides owner lookups against the PR2PS main database.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	matches, err := repo.FindUsers("jigg", users.SearchByName)
package users

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/pr2ps/levelimporter/internal/entities"
)

// SearchMode selects which column FindUsers matches against.
type SearchMode int

const (
	SearchByName SearchMode = iota // Case-insensitive substring of the username
	SearchByID                     // Exact user id
)

// ParseSearchMode converts "name"/"id" into a SearchMode.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(s) {
	case "", "name", "username":
		return SearchByName, nil
	case "id":
		return SearchByID, nil
	}
	return 0, fmt.Errorf("unknown user search mode %q", s)
}

const maxResults = 50

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// FindUsers returns at most 50 users matching term, ordered by username.
func (r *Repository) FindUsers(term string, mode SearchMode) ([]entities.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term is required")
	}

	var users []entities.User
	query := r.db.Order("username ASC").Limit(maxResults)

	switch mode {
	case SearchByID:
		id, err := strconv.ParseUint(term, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("user id needs to be a number")
		}
		query = query.Where("id = ?", id)
	default:
		query = query.Where(`LOWER(username) LIKE LOWER(?) ESCAPE '\'`, "%"+likeEscaper.Replace(term)+"%")
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by exact username (case-insensitive).
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Resolve finds a user by numeric id or by username.
func (r *Repository) Resolve(ref string) (*entities.User, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		user, err := r.GetUserByID(uint(id))
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return user, err
		}
	}
	return r.GetUserByUsername(ref)
}

// CreateUser inserts a user. Used to seed fresh stores.
func (r *Repository) CreateUser(username, email string) (*entities.User, error) {
	user := &entities.User{
		Username: username,
		Email:    email,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
