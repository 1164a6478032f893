package importers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pr2ps/levelimporter/internal/entities"
)

const (
	maxTitleLength = 50
	maxNoteLength  = 255
	maxItemID      = 9
)

// Defaults applied when a field is absent. Old level files omit most of them.
const (
	defaultGravity      = 1.0
	defaultMaxTime      = 120
	defaultCowboyChance = 5
)

var dataHeaderPattern = regexp.MustCompile(`^m[0-9]+$`)

// LevelConverter turns raw level containers into canonical levels. It is a
// pure function of its inputs: the same container and owner always produce
// the same Level.
type LevelConverter struct{}

func NewLevelConverter() *LevelConverter {
	return &LevelConverter{}
}

// Convert implements Converter.
func (c *LevelConverter) Convert(raw *RawLevel, owner Owner) (entities.Level, error) {
	if raw == nil || raw.Fields == nil {
		return entities.Level{}, fmt.Errorf("%w: empty level container", ErrMalformed)
	}
	if owner.ID == 0 {
		return entities.Level{}, ErrOwnerRequired
	}

	f := fieldReader{values: raw.Fields}

	level := entities.Level{
		UserID:       owner.ID,
		Title:        strings.TrimSpace(f.str("title")),
		Note:         strings.TrimSpace(f.str("note")),
		LevelID:      f.int64("level_id", 0),
		Version:      f.int("version", 1),
		MinRank:      f.int("min_level", 0),
		Song:         f.int("song", 0),
		Gravity:      f.float("gravity", defaultGravity),
		MaxTime:      f.int("max_time", defaultMaxTime),
		CowboyChance: f.int("cowboyChance", defaultCowboyChance),
		GameMode:     entities.GameMode(strings.ToLower(f.strDefault("gameMode", string(entities.GameModeRace)))),
		Items:        strings.TrimSpace(f.str("items")),
		HasPass:      f.bool("has_pass") || f.str("pass_hash") != "",
		Live:         f.bool("live"),
		Data:         f.str("data"),
	}
	if raw.Source != nil {
		level.SourceKind = raw.Source.Kind()
		level.SourceRef = raw.Source.Ref()
	}

	problems := f.problems
	problems = append(problems, validateLevel(&level)...)
	problems = append(problems, checkRequested(raw.Source, &level)...)

	if len(problems) > 0 {
		return entities.Level{}, fmt.Errorf("%w: %s", ErrMalformed, strings.Join(problems, "; "))
	}

	sum := sha256.Sum256([]byte(level.Data))
	level.DataHash = hex.EncodeToString(sum[:])

	return level, nil
}

func validateLevel(l *entities.Level) []string {
	var problems []string

	switch n := utf8.RuneCountInString(l.Title); {
	case n == 0:
		problems = append(problems, "title is required")
	case n > maxTitleLength:
		problems = append(problems, fmt.Sprintf("title is %d characters, maximum is %d", n, maxTitleLength))
	}
	if n := utf8.RuneCountInString(l.Note); n > maxNoteLength {
		problems = append(problems, fmt.Sprintf("note is %d characters, maximum is %d", n, maxNoteLength))
	}
	if l.LevelID < 0 {
		problems = append(problems, fmt.Sprintf("level_id %d must be positive", l.LevelID))
	}
	if l.Version < 1 {
		problems = append(problems, fmt.Sprintf("version %d must be positive", l.Version))
	}
	if l.MinRank < 0 || l.MinRank > 100 {
		problems = append(problems, fmt.Sprintf("min_level %d out of range 0..100", l.MinRank))
	}
	if l.Song < 0 {
		problems = append(problems, fmt.Sprintf("song %d must not be negative", l.Song))
	}
	if l.Gravity < 0.1 || l.Gravity > 10 {
		problems = append(problems, fmt.Sprintf("gravity %g out of range 0.1..10", l.Gravity))
	}
	if l.MaxTime < 0 || l.MaxTime > 10000 {
		problems = append(problems, fmt.Sprintf("max_time %d out of range 0..10000", l.MaxTime))
	}
	if l.CowboyChance < 0 || l.CowboyChance > 100 {
		problems = append(problems, fmt.Sprintf("cowboyChance %d out of range 0..100", l.CowboyChance))
	}
	if !l.GameMode.Valid() {
		problems = append(problems, fmt.Sprintf("unknown gameMode %q", l.GameMode))
	}
	if p := validateItems(l.Items); p != "" {
		problems = append(problems, p)
	}
	if p := validateData(l.Data); p != "" {
		problems = append(problems, p)
	}

	return problems
}

// validateItems checks the backtick separated list of enabled item ids.
func validateItems(items string) string {
	if items == "" {
		return ""
	}
	seen := make(map[int]bool)
	for _, part := range strings.Split(items, "`") {
		id, err := strconv.Atoi(part)
		if err != nil || id < 1 || id > maxItemID {
			return fmt.Sprintf("items contains invalid item %q", part)
		}
		if seen[id] {
			return fmt.Sprintf("items lists item %d twice", id)
		}
		seen[id] = true
	}
	return ""
}

// validateData checks the block data layout: a format header such as "m4"
// followed by at least one non-empty section.
func validateData(data string) string {
	if data == "" {
		return "data is empty"
	}
	sections := strings.Split(data, "`")
	if !dataHeaderPattern.MatchString(sections[0]) {
		return fmt.Sprintf("data has unknown format header %q", truncate(sections[0], 16))
	}
	for _, s := range sections[1:] {
		if s != "" {
			return ""
		}
	}
	return "data has no block sections"
}

// checkRequested makes sure a remote payload is the level that was asked for.
func checkRequested(src Source, l *entities.Level) []string {
	var wantID int64
	var wantVersion *int

	switch s := src.(type) {
	case RemoteByID:
		wantID, wantVersion = s.LevelID, s.Version
	case RemoteSearchResult:
		v := s.Version
		wantID, wantVersion = s.LevelID, &v
	default:
		return nil
	}

	var problems []string
	if l.LevelID == 0 {
		l.LevelID = wantID
	} else if l.LevelID != wantID {
		problems = append(problems, fmt.Sprintf("server returned level %d, requested %d", l.LevelID, wantID))
	}
	if wantVersion != nil && l.Version != *wantVersion {
		problems = append(problems, fmt.Sprintf("server returned version %d, requested %d", l.Version, *wantVersion))
	}
	return problems
}

// fieldReader parses optional numeric fields, recording a problem for every
// value that is present but unparsable.
type fieldReader struct {
	values   map[string][]string
	problems []string
}

func (r *fieldReader) str(key string) string {
	if v := r.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (r *fieldReader) strDefault(key, def string) string {
	if v := strings.TrimSpace(r.str(key)); v != "" {
		return v
	}
	return def
}

func (r *fieldReader) int(key string, def int) int {
	raw := strings.TrimSpace(r.str(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("%s %q is not a number", key, truncate(raw, 16)))
		return def
	}
	return v
}

func (r *fieldReader) int64(key string, def int64) int64 {
	raw := strings.TrimSpace(r.str(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("%s %q is not a number", key, truncate(raw, 16)))
		return def
	}
	return v
}

func (r *fieldReader) float(key string, def float64) float64 {
	raw := strings.TrimSpace(r.str(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		r.problems = append(r.problems, fmt.Sprintf("%s %q is not a number", key, truncate(raw, 16)))
		return def
	}
	return v
}

func (r *fieldReader) bool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.str(key))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
