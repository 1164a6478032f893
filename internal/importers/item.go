package importers

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pr2ps/levelimporter/internal/entities"
)

// Owner identifies the user who will own imported levels.
type Owner struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func (o Owner) String() string {
	if o.Username == "" {
		return fmt.Sprintf("user #%d", o.ID)
	}
	return fmt.Sprintf("%s (#%d)", o.Username, o.ID)
}

// Source describes where the raw data of a pending item comes from. The set of
// implementations is closed: LocalFile, RemoteByID and RemoteSearchResult.
type Source interface {
	Kind() entities.SourceKind
	// Ref is a stable, comparable description of the source.
	Ref() string
	String() string

	isSource()
}

// LocalFile is a level file on disk, usually downloaded earlier.
type LocalFile struct {
	Path string
}

func (s LocalFile) Kind() entities.SourceKind { return entities.SourceKindLocalFile }
func (s LocalFile) Ref() string { return filepath.Clean(s.Path) }
func (s LocalFile) String() string { return "file " + s.Path }
func (LocalFile) isSource() {}

// RemoteByID is a level typed in directly by id, with an optional version.
// A nil Version means the newest version on the server.
type RemoteByID struct {
	LevelID int64
	Version *int
}

func (s RemoteByID) Kind() entities.SourceKind { return entities.SourceKindRemoteByID }
func (s RemoteByID) Ref() string { return remoteRef(s.LevelID, s.Version) }
func (s RemoteByID) String() string { return "level " + s.Ref() }
func (RemoteByID) isSource() {}

// RemoteSearchResult is a level picked from a search. It resolves exactly like
// RemoteByID; the separate type only records provenance.
type RemoteSearchResult struct {
	LevelID int64
	Version int
}

func (s RemoteSearchResult) Kind() entities.SourceKind { return entities.SourceKindRemoteSearch }
func (s RemoteSearchResult) Ref() string { return remoteRef(s.LevelID, &s.Version) }
func (s RemoteSearchResult) String() string { return "search result " + s.Ref() }
func (RemoteSearchResult) isSource() {}

func remoteRef(levelID int64, version *int) string {
	if version == nil {
		return strconv.FormatInt(levelID, 10)
	}
	return fmt.Sprintf("%d v%d", levelID, *version)
}

// PendingItem is a queued request to import one level. It is never mutated
// after creation.
type PendingItem struct {
	Owner  Owner
	Source Source
}

// NewPendingItem validates and builds a pending item.
func NewPendingItem(owner Owner, source Source) (PendingItem, error) {
	if owner.ID == 0 {
		return PendingItem{}, ErrOwnerRequired
	}
	if source == nil {
		return PendingItem{}, fmt.Errorf("pending item requires a source")
	}
	return PendingItem{Owner: owner, Source: source}, nil
}

// Key identifies an item by value: two items with the same owner and source
// are the same request.
func (p PendingItem) Key() string {
	return fmt.Sprintf("%d|%s|%s", p.Owner.ID, p.Source.Kind(), p.Source.Ref())
}

func (p PendingItem) String() string {
	return fmt.Sprintf("%s -> %s", p.Source, p.Owner)
}

// ParseRemoteByID parses the id and optional version typed by an operator.
func ParseRemoteByID(rawID, rawVersion string) (RemoteByID, error) {
	levelID, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || levelID <= 0 {
		return RemoteByID{}, fmt.Errorf("level id needs to be a positive number")
	}

	src := RemoteByID{LevelID: levelID}
	if v := strings.TrimSpace(rawVersion); v != "" {
		version, err := strconv.Atoi(v)
		if err != nil || version <= 0 {
			return RemoteByID{}, fmt.Errorf("version (if specified) needs to be a positive number")
		}
		src.Version = &version
	}
	return src, nil
}

// ParseLevelRef parses "42" or "42:3" into a RemoteByID.
func ParseLevelRef(ref string) (RemoteByID, error) {
	id, version, _ := strings.Cut(ref, ":")
	return ParseRemoteByID(id, version)
}
