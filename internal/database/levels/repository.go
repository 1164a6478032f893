// Package levels provides database operations for the PR2PS levels store.
//
// # Usage
//
//	repo := levels.NewRepository(db)
//	err := repo.ImportLevels(ctx, converted, 100)
package levels

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pr2ps/levelimporter/internal/entities"
)

const defaultBatchSize = 100

// Repository handles all level database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new levels repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ImportLevels inserts all levels inside a single transaction. SQLite
// transactions are atomic, so either every level is stored or none is.
// The input slice is not modified.
func (r *Repository) ImportLevels(ctx context.Context, levels []entities.Level, batchSize int) error {
	if len(levels) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	rows := make([]entities.Level, len(levels))
	copy(rows, levels)
	for i := range rows {
		rows[i].ID = 0
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&rows, batchSize).Error; err != nil {
			return fmt.Errorf("insert levels: %w", err)
		}
		return nil
	})
}

// CountLevels returns the number of stored levels.
func (r *Repository) CountLevels() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Level{}).Count(&count).Error
	return count, err
}

// GetLevelsForUser returns all levels owned by userID, newest first.
func (r *Repository) GetLevelsForUser(userID uint) ([]entities.Level, error) {
	var levels []entities.Level
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&levels).Error
	return levels, err
}

// FindByLevelID returns every stored version of a remote level id.
func (r *Repository) FindByLevelID(levelID int64) ([]entities.Level, error) {
	var levels []entities.Level
	err := r.db.Where("level_id = ?", levelID).Order("version ASC").Find(&levels).Error
	return levels, err
}
