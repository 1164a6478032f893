package config

// Default paths for databases
const (
	// DefaultMainDatabasePath is the default path for the PR2PS main database (users)
	DefaultMainDatabasePath = "./pr2ps.sqlite"

	// DefaultLevelsDatabasePath is the default path for the PR2PS levels database
	DefaultLevelsDatabasePath = "./pr2ps-levels.sqlite"
)

// DefaultRemoteBaseURL points at the public PR2 level server.
const DefaultRemoteBaseURL = "https://pr2hub.com"
