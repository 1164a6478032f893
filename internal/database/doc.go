// Package database provides the data access layer for the PR2PS stores.
//
// # Architecture
//
// PR2PS keeps users and levels in two separate SQLite files. Each file is
// opened as its own Database with a Kind:
//
//	database/
//	├── database.go      # Init (create + migrate) and Attach (open + validate)
//	├── users/           # Owner lookup in the main store
//	├── levels/          # Batch level import into the levels store
//	└── sessions/        # Import run history in the levels store
//
// # Attach vs Init
//
// Attach is what operators use: it opens an existing file without creating
// it and reports a *ValidationError when the file is not a store of the
// requested kind (wrong schema, or not SQLite at all). Anything else, such as
// a missing file or a permission problem, comes back as a plain error.
//
// Init creates a fresh store and is used by the init-db command and tests.
//
//	main, err := database.Attach("./pr2ps.sqlite", database.KindMain)
//	usersRepo := users.NewRepository(main.DB)
package database
