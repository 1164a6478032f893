package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pr2ps/levelimporter/internal/config"
	"github.com/pr2ps/levelimporter/internal/database"
	"github.com/pr2ps/levelimporter/internal/database/users"
)

// FindUsersCommand looks up candidate owners in the main database.
type FindUsersCommand struct {
	MainDBPath string
	Term       string
	Mode       users.SearchMode

	cfg *config.Config
}

func NewFindUsersCommand(cfg *config.Config) *FindUsersCommand {
	return &FindUsersCommand{cfg: cfg}
}

func (cmd *FindUsersCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("find-users", flag.ExitOnError)

	var mode string
	fs.StringVar(&cmd.MainDBPath, "main-db", cmd.cfg.Database.MainPath, "Path to the main database (users)")
	fs.StringVar(&cmd.Term, "term", "", "Part of a username, or a user id with -mode id (required)")
	fs.StringVar(&mode, "mode", "name", "Match by name or id")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s find-users -term <text> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Term == "" {
		return fmt.Errorf("required flag -term not provided")
	}

	parsed, err := users.ParseSearchMode(mode)
	if err != nil {
		return err
	}
	cmd.Mode = parsed
	return nil
}

func (cmd *FindUsersCommand) Run() error {
	db, err := database.Attach(cmd.MainDBPath, database.KindMain)
	if err != nil {
		return fmt.Errorf("failed to attach main database: %w", err)
	}
	defer db.Close()

	found, err := users.NewRepository(db.DB).FindUsers(cmd.Term, cmd.Mode)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("No users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tRANK")
	for _, u := range found {
		fmt.Fprintf(w, "%d\t%s\t%d\n", u.ID, u.Username, u.Rank)
	}
	return w.Flush()
}
