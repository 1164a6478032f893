package importers

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pr2ps/levelimporter/internal/pr2"
)

var testOwner = Owner{ID: 7, Username: "jiggmin"}

func validFields(title string) url.Values {
	return url.Values{
		"title":        {title},
		"note":         {"Race to the finish"},
		"min_level":    {"5"},
		"song":         {"3"},
		"gravity":      {"1.5"},
		"max_time":     {"180"},
		"gameMode":     {"race"},
		"cowboyChance": {"10"},
		"items":        {"1`2`3"},
		"live":         {"1"},
		"data":         {"m4`0;0;1;2`12,40;13,41"},
	}
}

func writeLevelFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mustItem(t *testing.T, src Source) PendingItem {
	t.Helper()
	item, err := NewPendingItem(testOwner, src)
	require.NoError(t, err)
	return item
}

// stubResolver answers from canned containers keyed by Source.String().
type stubResolver struct {
	mu    sync.Mutex
	raws  map[string]url.Values
	errs  map[string]error
	calls []string
}

func newStubResolver() *stubResolver {
	return &stubResolver{raws: map[string]url.Values{}, errs: map[string]error{}}
}

func (r *stubResolver) Resolve(ctx context.Context, src Source) (*RawLevel, error) {
	r.mu.Lock()
	r.calls = append(r.calls, src.String())
	fields, ok := r.raws[src.String()]
	err := r.errs[src.String()]
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &RawLevel{Source: src, Fields: fields}, nil
}

// fakeRemote implements RemoteLookup.
type fakeRemote struct {
	bodies map[int64]string
	err    error
	calls  int
}

func (f *fakeRemote) FindByID(_ context.Context, levelID int64, _ *int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[levelID]
	if !ok {
		return nil, pr2.ErrLevelNotFound
	}
	return []byte(body), nil
}
