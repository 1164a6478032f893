package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/pr2ps/levelimporter/internal/config"
	"github.com/pr2ps/levelimporter/internal/database"
	"github.com/pr2ps/levelimporter/internal/database/users"
)

// InitDBCommand creates empty main and levels databases, mostly for local
// testing of the importer.
type InitDBCommand struct {
	MainDBPath   string
	LevelsDBPath string
	SeedUser     string

	cfg *config.Config
}

func NewInitDBCommand(cfg *config.Config) *InitDBCommand {
	return &InitDBCommand{cfg: cfg}
}

func (cmd *InitDBCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("init-db", flag.ExitOnError)

	fs.StringVar(&cmd.MainDBPath, "main-db", cmd.cfg.Database.MainPath, "Path of the main database to create")
	fs.StringVar(&cmd.LevelsDBPath, "levels-db", cmd.cfg.Database.LevelsPath, "Path of the levels database to create")
	fs.StringVar(&cmd.SeedUser, "seed-user", "", "Optional username to create in the main database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s init-db [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create (or upgrade) the main and levels databases.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *InitDBCommand) Run() error {
	mainDB, err := database.Init(cmd.MainDBPath, database.KindMain)
	if err != nil {
		return fmt.Errorf("failed to initialize main database: %w", err)
	}
	defer mainDB.Close()

	levelsDB, err := database.Init(cmd.LevelsDBPath, database.KindLevels)
	if err != nil {
		return fmt.Errorf("failed to initialize levels database: %w", err)
	}
	defer levelsDB.Close()

	if cmd.SeedUser != "" {
		repo := users.NewRepository(mainDB.DB)
		if _, err := repo.GetUserByUsername(cmd.SeedUser); err == nil {
			fmt.Printf("User %q already exists\n", cmd.SeedUser)
			return nil
		}
		user, err := repo.CreateUser(cmd.SeedUser, "")
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		fmt.Printf("Created user %s (#%d)\n", user.Username, user.ID)
	}

	fmt.Println("Databases ready")
	return nil
}
