package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pr2ps/levelimporter/internal/config"
	"github.com/pr2ps/levelimporter/internal/database"
	"github.com/pr2ps/levelimporter/internal/entrypoint"
	"github.com/pr2ps/levelimporter/internal/importers"
)

// ImportCommand imports level files and remote levels into the levels database
// under one owner.
type ImportCommand struct {
	MainDBPath   string
	LevelsDBPath string
	Owner        string
	ManifestPath string
	Files        []string
	Levels       stringList
	Sources      []importers.Source
	Workers      int
	Verbose      bool

	cfg *config.Config
}

// stringList collects a repeated flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func NewImportCommand(cfg *config.Config) *ImportCommand {
	return &ImportCommand{cfg: cfg}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.MainDBPath, "main-db", cmd.cfg.Database.MainPath, "Path to the main database (users)")
	fs.StringVar(&cmd.LevelsDBPath, "levels-db", cmd.cfg.Database.LevelsPath, "Path to the levels database to import into")
	fs.StringVar(&cmd.Owner, "owner", "", "Id or username of the user who will own the imported levels (required)")
	fs.StringVar(&cmd.ManifestPath, "manifest", "", "YAML manifest listing owner, files and levels to import")
	fs.Var(&cmd.Levels, "level", "Remote level to import as <id> or <id>:<version> (repeatable)")
	fs.IntVar(&cmd.Workers, "workers", cmd.cfg.Import.Workers, "Number of levels processed at once")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every progress event")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -owner <user> [options] [level files...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import PR2 levels from local files and from the level server.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import two downloaded level files:\n")
		fmt.Fprintf(os.Stderr, "  %s import -owner jiggmin levels/50815.txt levels/50816.txt\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import a specific version of a remote level:\n")
		fmt.Fprintf(os.Stderr, "  %s import -owner 1 -level 50815:3\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import everything listed in a manifest:\n")
		fmt.Fprintf(os.Stderr, "  %s import -manifest levels.yaml\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Files = fs.Args()
	for _, f := range cmd.Files {
		cmd.Sources = append(cmd.Sources, importers.LocalFile{Path: f})
	}
	for _, ref := range cmd.Levels {
		src, err := importers.ParseLevelRef(ref)
		if err != nil {
			return fmt.Errorf("invalid -level %q: %w", ref, err)
		}
		cmd.Sources = append(cmd.Sources, src)
	}

	if cmd.ManifestPath != "" {
		if err := cmd.loadManifest(); err != nil {
			return err
		}
	}

	if cmd.Owner == "" {
		return fmt.Errorf("required flag -owner not provided")
	}
	if len(cmd.Sources) == 0 {
		return fmt.Errorf("nothing to import: pass level files, -level or -manifest")
	}
	return nil
}

func (cmd *ImportCommand) loadManifest() error {
	file, err := os.Open(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	manifest, err := importers.LoadManifest(file, filepath.Dir(cmd.ManifestPath))
	if err != nil {
		return err
	}
	if cmd.Owner == "" {
		cmd.Owner = manifest.Owner
	}
	cmd.Sources = append(cmd.Sources, manifest.Sources()...)
	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("PR2 Level Import")
	fmt.Println("================")

	cfg := *cmd.cfg
	cfg.Import.Workers = cmd.Workers
	service := entrypoint.NewImportService(&cfg)
	defer service.Close()

	if err := service.AttachStore(database.KindMain, cmd.MainDBPath); err != nil {
		return fmt.Errorf("failed to attach main database: %w", err)
	}
	if err := service.AttachStore(database.KindLevels, cmd.LevelsDBPath); err != nil {
		return fmt.Errorf("failed to attach levels database: %w", err)
	}

	owner, err := service.SelectOwnerByRef(cmd.Owner)
	if err != nil {
		return err
	}
	fmt.Printf("Owner: %s\n", owner)

	added, err := service.Enqueue(cmd.Sources...)
	if err != nil {
		return err
	}
	fmt.Printf("Queued %d levels\n\n", added)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := service.Run(ctx, importers.SinkFunc(cmd.printEvent))
	if result != nil {
		fmt.Println("\n=== Import Summary ===")
		fmt.Printf("Converted: %d/%d\n", result.Converted, result.Queued)
		fmt.Printf("Imported:  %d\n", result.Imported)
		if len(result.Errors) > 0 {
			fmt.Printf("\n%d errors occurred:\n", len(result.Errors))
			for _, msg := range result.Errors {
				fmt.Printf("  [ERROR] %s\n", msg)
			}
		}
		fmt.Printf("\n%s\n", result.Summary)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

func (cmd *ImportCommand) printEvent(_ context.Context, ev importers.Event) error {
	if ev.Kind == importers.EventInfo && !cmd.Verbose {
		fmt.Print(".")
		return nil
	}
	fmt.Printf("  [%s] %s\n", strings.ToUpper(string(ev.Kind)), ev.Message)
	return nil
}
