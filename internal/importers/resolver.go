package importers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pr2ps/levelimporter/internal/pr2"
)

const defaultMaxFileSize = 2 * 1024 * 1024

// RawLevel is the unvalidated content of a level container, as obtained from
// a file or from the remote server.
type RawLevel struct {
	Source Source
	Fields url.Values
}

// RemoteLookup fetches raw level containers by id and optional version.
// Implemented by *pr2.Client.
type RemoteLookup interface {
	FindByID(ctx context.Context, levelID int64, version *int) ([]byte, error)
}

// SourceResolver obtains raw level data for each kind of Source. It keeps no
// state between calls: every item is read or fetched again.
type SourceResolver struct {
	remote      RemoteLookup
	maxFileSize int64
}

// NewSourceResolver creates a resolver. remote may be nil when only local
// files are imported; maxFileSize <= 0 selects the 2 MB default.
func NewSourceResolver(remote RemoteLookup, maxFileSize int64) *SourceResolver {
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}
	return &SourceResolver{remote: remote, maxFileSize: maxFileSize}
}

// Resolve implements Resolver.
func (r *SourceResolver) Resolve(ctx context.Context, src Source) (*RawLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch s := src.(type) {
	case LocalFile:
		return r.resolveFile(s)
	case RemoteByID:
		return r.resolveRemote(ctx, src, s.LevelID, s.Version)
	case RemoteSearchResult:
		version := s.Version
		return r.resolveRemote(ctx, src, s.LevelID, &version)
	default:
		return nil, fmt.Errorf("unsupported source type %T", src)
	}
}

func (r *SourceResolver) resolveFile(src LocalFile) (*RawLevel, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, src.Path)
	}
	if info.Size() > r.maxFileSize {
		return nil, fmt.Errorf("%w: file is %d bytes, larger than the %d byte limit", ErrMalformed, info.Size(), r.maxFileSize)
	}

	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	fields, err := ParseContainer(data)
	if err != nil {
		return nil, err
	}
	return &RawLevel{Source: src, Fields: fields}, nil
}

func (r *SourceResolver) resolveRemote(ctx context.Context, src Source, levelID int64, version *int) (*RawLevel, error) {
	if r.remote == nil {
		return nil, fmt.Errorf("no remote level server configured")
	}

	body, err := r.remote.FindByID(ctx, levelID, version)
	if err != nil {
		if errors.Is(err, pr2.ErrLevelNotFound) {
			return nil, fmt.Errorf("%w: no level %s on the server", ErrNotFound, remoteRef(levelID, version))
		}
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}

	fields, err := ParseContainer(body)
	if err != nil {
		return nil, err
	}
	return &RawLevel{Source: src, Fields: fields}, nil
}

// ParseContainer sniffs and decodes a level container: a form-encoded list of
// key=value pairs that must at least carry a data field. Anything else is
// rejected as ErrMalformed before conversion is attempted.
func ParseContainer(content []byte) (url.Values, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrMalformed)
	}
	if mtype := mimetype.Detect(content); !strings.HasPrefix(mtype.String(), "text/") {
		return nil, fmt.Errorf("%w: not a level file (looks like %s)", ErrMalformed, mtype)
	}
	if !bytes.Contains(content, []byte("=")) {
		return nil, fmt.Errorf("%w: not a level file", ErrMalformed)
	}

	fields, err := url.ParseQuery(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode level container: %v", ErrMalformed, err)
	}
	if _, ok := fields["data"]; !ok {
		return nil, fmt.Errorf("%w: level container has no data field", ErrMalformed)
	}
	return fields, nil
}
