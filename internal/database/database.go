package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pr2ps/levelimporter/internal/entities"
)

// Kind identifies which PR2PS store a database file is expected to be.
type Kind string

const (
	KindMain   Kind = "main"   // Users
	KindLevels Kind = "levels" // Levels and import history
)

// ParseKind converts a user supplied store name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindMain:
		return KindMain, nil
	case KindLevels:
		return KindLevels, nil
	}
	return "", fmt.Errorf("unknown database kind %q (expected %q or %q)", s, KindMain, KindLevels)
}

// schema lists the models each kind of store must contain, and the columns
// the importer relies on.
var schema = map[Kind][]tableSpec{
	KindMain: {
		{model: &entities.User{}, table: "users", columns: []string{"id", "username"}},
	},
	KindLevels: {
		{model: &entities.Level{}, table: "levels", columns: []string{"id", "level_id", "version", "user_id", "title", "data"}},
		{model: &entities.ImportSession{}, table: "import_sessions", columns: []string{"id", "run_id", "status"}},
	},
}

type tableSpec struct {
	model   any
	table   string
	columns []string
}

// ValidationError means the file is readable but is not a valid store of the
// requested kind. Plain I/O problems are returned as ordinary errors.
type ValidationError struct {
	Path   string
	Kind   Kind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is not a valid %s database: %s", e.Path, e.Kind, e.Reason)
}

type Database struct {
	DB   *gorm.DB
	Path string
	Kind Kind
}

// Init creates (or upgrades) a store of the given kind at path.
func Init(dbPath string, kind Kind) (*Database, error) {
	specs, ok := schema[kind]
	if !ok {
		return nil, fmt.Errorf("unknown database kind %q", kind)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	models := make([]any, 0, len(specs))
	for _, spec := range specs {
		models = append(models, spec.model)
	}
	if err := db.AutoMigrate(models...); err != nil {
		closeGorm(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database (%s) initialized successfully at %s", kind, dbPath)

	return &Database{DB: db, Path: dbPath, Kind: kind}, nil
}

// Attach opens an existing store and checks that it has the schema of the
// requested kind. It never creates the file and never migrates it.
func Attach(dbPath string, kind Kind) (*Database, error) {
	specs, ok := schema[kind]
	if !ok {
		return nil, fmt.Errorf("unknown database kind %q", kind)
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}
	if info.IsDir() {
		return nil, &ValidationError{Path: dbPath, Kind: kind, Reason: "path is a directory"}
	}

	sqlDB, err := sql.Open("sqlite3", attachDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}

	var tables int
	if err := sqlDB.QueryRow("SELECT count(*) FROM sqlite_master").Scan(&tables); err != nil {
		sqlDB.Close()
		if isNotADatabase(err) {
			return nil, &ValidationError{Path: dbPath, Kind: kind, Reason: "file is not a SQLite database"}
		}
		return nil, fmt.Errorf("failed to read database file: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := validateSchema(db, specs); err != nil {
		sqlDB.Close()
		return nil, &ValidationError{Path: dbPath, Kind: kind, Reason: err.Error()}
	}

	log.Printf("Database (%s) attached at %s", kind, dbPath)

	return &Database{DB: db, Path: dbPath, Kind: kind}, nil
}

func validateSchema(db *gorm.DB, specs []tableSpec) error {
	migrator := db.Migrator()
	for _, spec := range specs {
		if !migrator.HasTable(spec.table) {
			return fmt.Errorf("missing table %q", spec.table)
		}
		for _, column := range spec.columns {
			if !migrator.HasColumn(spec.model, column) {
				return fmt.Errorf("table %q is missing column %q", spec.table, column)
			}
		}
	}
	return nil
}

// attachDSN builds a DSN that refuses to create missing files.
func attachDSN(dbPath string) string {
	return "file:" + (&url.URL{Path: dbPath}).EscapedPath() + "?mode=rw&_busy_timeout=5000"
}

func isNotADatabase(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrNotADB
	}
	return false
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
