package entities

import (
	"time"

	"gorm.io/gorm"
)

type GameMode string

const (
	GameModeRace       GameMode = "race"
	GameModeDeathmatch GameMode = "deathmatch"
	GameModeObjective  GameMode = "objective"
	GameModeEgg        GameMode = "egg"
	GameModeHat        GameMode = "hat"
)

// Valid reports whether m is one of the game modes the server can host.
func (m GameMode) Valid() bool {
	switch m {
	case GameModeRace, GameModeDeathmatch, GameModeObjective, GameModeEgg, GameModeHat:
		return true
	}
	return false
}

type SourceKind string

const (
	SourceKindLocalFile    SourceKind = "local_file"
	SourceKindRemoteByID   SourceKind = "remote_id"
	SourceKindRemoteSearch SourceKind = "remote_search"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:20" json:"username"`
	Email     string         `gorm:"size:255" json:"email,omitempty"`
	Rank      int            `json:"rank"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Level is the canonical, store-ready representation of a level.
// Values are produced by the converter and are never modified afterwards;
// CreatedAt is the only column the store fills in.
type Level struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	LevelID      int64    `gorm:"index" json:"level_id,omitempty"` // Id on the remote server, 0 if unknown
	Version      int      `json:"version"`
	UserID       uint     `gorm:"index;not null" json:"user_id"` // Owner; users live in the main database
	Title        string   `gorm:"index;size:50;not null" json:"title"`
	Note         string   `gorm:"size:255" json:"note,omitempty"`
	MinRank      int      `json:"min_rank"`
	Song         int      `json:"song"`
	Gravity      float64  `json:"gravity"`
	MaxTime      int      `json:"max_time"` // Seconds, 0 = unlimited
	GameMode     GameMode `gorm:"size:20;default:'race'" json:"game_mode"`
	CowboyChance int      `json:"cowboy_chance"`
	Items        string   `gorm:"size:64" json:"items,omitempty"` // Backtick separated item ids
	HasPass      bool     `json:"has_pass"`
	Live         bool     `json:"live"`
	Data         string   `gorm:"type:text;not null" json:"-"`
	DataHash     string   `gorm:"index;size:64" json:"data_hash"`

	// Provenance
	SourceKind SourceKind `gorm:"size:20" json:"source_kind"`
	SourceRef  string     `gorm:"size:1024" json:"source_ref"`

	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (Level) TableName() string {
	return "levels"
}
