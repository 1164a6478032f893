package pr2

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
)

type SearchBy string

const (
	SearchByUser  SearchBy = "user"
	SearchByTitle SearchBy = "title"
)

type SortBy string

const (
	SortByPopularity   SortBy = "popularity"
	SortByRating       SortBy = "rating"
	SortByDate         SortBy = "date"
	SortByAlphabetical SortBy = "alphabetical"
)

type SortOrder string

const (
	SortOrderDesc SortOrder = "desc"
	SortOrderAsc  SortOrder = "asc"
)

const maxSearchPage = 9

// SearchQuery describes one page of a level search.
type SearchQuery struct {
	Term      string
	By        SearchBy
	SortBy    SortBy
	SortOrder SortOrder
	Page      int
}

// SearchResult is the summary of a level returned by a search.
type SearchResult struct {
	LevelID   int64   `json:"level_id"`
	Version   int     `json:"version"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Note      string  `json:"note,omitempty"`
	Rating    float64 `json:"rating"`
	PlayCount int     `json:"play_count"`
	MinRank   int     `json:"min_rank"`
}

// Validate fills defaults and rejects queries the server would refuse.
func (q *SearchQuery) Validate() error {
	q.Term = strings.TrimSpace(q.Term)
	if q.Term == "" {
		return fmt.Errorf("search term needs to be at least 1 character")
	}
	if q.By == "" {
		q.By = SearchByUser
	}
	if q.SortBy == "" {
		q.SortBy = SortByDate
	}
	if q.SortOrder == "" {
		q.SortOrder = SortOrderDesc
	}
	if q.Page == 0 {
		q.Page = 1
	}

	switch q.By {
	case SearchByUser, SearchByTitle:
	default:
		return fmt.Errorf("unknown search mode %q", q.By)
	}
	switch q.SortBy {
	case SortByPopularity, SortByRating, SortByDate, SortByAlphabetical:
	default:
		return fmt.Errorf("unknown sort field %q", q.SortBy)
	}
	switch q.SortOrder {
	case SortOrderDesc, SortOrderAsc:
	default:
		return fmt.Errorf("unknown sort order %q", q.SortOrder)
	}
	if q.Page < 1 || q.Page > maxSearchPage {
		return fmt.Errorf("page must be between 1 and %d", maxSearchPage)
	}
	return nil
}

// Search runs a single page of a level search.
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + "/search_levels.php")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("search_str", query.Term)
	q.Set("mode", string(query.By))
	q.Set("order", string(query.SortBy))
	q.Set("dir", string(query.SortOrder))
	q.Set("page", strconv.Itoa(query.Page))
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if msg, ok := bodyError(body); ok {
		return nil, &RemoteError{Message: msg}
	}

	return parseSearchResults(body)
}

// parseSearchResults decodes the indexed key layout used by search responses:
// levelID0=..&version0=..&title0=..&levelID1=.. and so on.
func parseSearchResults(body []byte) ([]SearchResult, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := []SearchResult{}
	for i := 0; ; i++ {
		idx := strconv.Itoa(i)
		rawID := values.Get("levelID" + idx)
		if rawID == "" {
			break
		}

		levelID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("result %d: invalid level id %q", i, rawID)
		}
		version, err := strconv.Atoi(values.Get("version" + idx))
		if err != nil {
			return nil, fmt.Errorf("result %d: invalid version %q", i, values.Get("version"+idx))
		}

		rating, _ := strconv.ParseFloat(values.Get("rating"+idx), 64)
		playCount, _ := strconv.Atoi(values.Get("playCount" + idx))
		minRank, _ := strconv.Atoi(values.Get("minLevel" + idx))

		results = append(results, SearchResult{
			LevelID:   levelID,
			Version:   version,
			Title:     values.Get("title" + idx),
			Author:    values.Get("userName" + idx),
			Note:      values.Get("note" + idx),
			Rating:    rating,
			PlayCount: playCount,
			MinRank:   minRank,
		})
	}

	return results, nil
}

// Searcher serializes searches: a second search started while one is in
// flight fails fast with ErrSearchInProgress instead of queueing.
type Searcher struct {
	client *Client
	busy   atomic.Bool
}

func NewSearcher(client *Client) *Searcher {
	return &Searcher{client: client}
}

// IsBusy reports whether a search is currently running.
func (s *Searcher) IsBusy() bool {
	return s.busy.Load()
}

func (s *Searcher) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrSearchInProgress
	}
	defer s.busy.Store(false)

	return s.client.Search(ctx, query)
}
