package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pr2ps/levelimporter/internal/config"
	"github.com/pr2ps/levelimporter/internal/pr2"
)

// SearchLevelsCommand searches the remote level server.
type SearchLevelsCommand struct {
	Query   pr2.SearchQuery
	BaseURL string

	cfg *config.Config
}

func NewSearchLevelsCommand(cfg *config.Config) *SearchLevelsCommand {
	return &SearchLevelsCommand{cfg: cfg}
}

func (cmd *SearchLevelsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("search-levels", flag.ExitOnError)

	var by, sortBy, order string
	fs.StringVar(&cmd.Query.Term, "term", "", "Username or title to search for (required)")
	fs.StringVar(&by, "by", string(pr2.SearchByUser), "Search mode: user or title")
	fs.StringVar(&sortBy, "sort", string(pr2.SortByDate), "Sort by: date, rating, popularity or alphabetical")
	fs.StringVar(&order, "order", string(pr2.SortOrderDesc), "Sort order: desc or asc")
	fs.IntVar(&cmd.Query.Page, "page", 1, "Result page (1-9)")
	fs.StringVar(&cmd.BaseURL, "server", cmd.cfg.Remote.BaseURL, "Level server base URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s search-levels -term <text> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Search the PR2 level server. Use the id and version columns with 'import -level'.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Query.By = pr2.SearchBy(by)
	cmd.Query.SortBy = pr2.SortBy(sortBy)
	cmd.Query.SortOrder = pr2.SortOrder(order)
	return cmd.Query.Validate()
}

func (cmd *SearchLevelsCommand) Run() error {
	client := pr2.NewClient(cmd.BaseURL,
		pr2.WithTimeout(cmd.cfg.Remote.Timeout),
		pr2.WithUserAgent(cmd.cfg.Remote.UserAgent),
	)

	results, err := client.Search(context.Background(), cmd.Query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No levels found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tTITLE\tAUTHOR\tRATING\tPLAYS")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%.2f\t%d\n", r.LevelID, r.Version, r.Title, r.Author, r.Rating, r.PlayCount)
	}
	return w.Flush()
}
