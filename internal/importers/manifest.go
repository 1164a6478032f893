package importers

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var manifestValidator = validator.New()

// Manifest is a YAML list of levels to queue in one go:
//
//	owner: jiggmin
//	files:
//	  - downloads/50815.txt
//	levels:
//	  - id: 50816
//	    version: 3
//	  - id: 50817
type Manifest struct {
	Owner  string          `yaml:"owner"`
	Files  []string        `yaml:"files" validate:"dive,required"`
	Levels []ManifestLevel `yaml:"levels" validate:"dive"`
}

type ManifestLevel struct {
	ID      int64 `yaml:"id" validate:"gt=0"`
	Version int   `yaml:"version" validate:"gte=0"` // 0 selects the newest version
}

// LoadManifest decodes a manifest. Relative file paths are resolved against
// baseDir, usually the directory holding the manifest.
func LoadManifest(r io.Reader, baseDir string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	if err := manifestValidator.Struct(&m); err != nil {
		return nil, manifestError(err)
	}

	for i, f := range m.Files {
		if !filepath.IsAbs(f) && baseDir != "" {
			m.Files[i] = filepath.Join(baseDir, f)
		}
	}
	return &m, nil
}

// manifestError reports the first failed entry, e.g. "Levels[1].ID".
func manifestError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	e := verrs[0]
	entry := strings.TrimPrefix(e.Namespace(), "Manifest.")
	switch {
	case strings.HasPrefix(entry, "Files"):
		return fmt.Errorf("manifest entry %s has an empty path", entry)
	case e.StructField() == "ID":
		return fmt.Errorf("manifest entry %s: level id needs to be a positive number", entry)
	case e.StructField() == "Version":
		return fmt.Errorf("manifest entry %s: version (if specified) needs to be a positive number", entry)
	default:
		return fmt.Errorf("manifest entry %s is invalid (%s)", entry, e.Tag())
	}
}

// Sources lists the manifest entries in order: files first, then levels.
func (m *Manifest) Sources() []Source {
	sources := make([]Source, 0, len(m.Files)+len(m.Levels))
	for _, f := range m.Files {
		sources = append(sources, LocalFile{Path: f})
	}
	for _, l := range m.Levels {
		src := RemoteByID{LevelID: l.ID}
		if l.Version > 0 {
			v := l.Version
			src.Version = &v
		}
		sources = append(sources, src)
	}
	return sources
}
