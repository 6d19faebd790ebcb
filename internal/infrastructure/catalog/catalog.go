// Package catalog serves reference information for each disease label the
// classifier can return, together with its staging profile.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
	"github.com/kirillkom/scalp-assistant/internal/core/staging"
)

//go:embed diseases.yaml
var diseasesYAML []byte

type Disease struct {
	Label    domain.DiseaseLabel `yaml:"label" json:"label"`
	Slug     string              `yaml:"slug" json:"slug"`
	Summary  string              `yaml:"summary" json:"summary"`
	Symptoms []string            `yaml:"symptoms" json:"symptoms"`
	Care     string              `yaml:"care" json:"care"`
}

// Entry is a Disease plus its progression class and stage bands.
type Entry struct {
	Disease
	Progression domain.ProgressionClass `json:"progression_class"`
	Bands       []staging.Band          `json:"stages"`
}

type Catalog struct {
	entries []Entry
	bySlug  map[string]int
	byLabel map[domain.DiseaseLabel]int
}

// Load parses the embedded catalog. It fails when a known label is missing
// or an entry names a label the classifier does not know.
func Load() (*Catalog, error) {
	return parse(diseasesYAML)
}

func parse(raw []byte) (*Catalog, error) {
	var doc struct {
		Diseases []Disease `yaml:"diseases"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse disease catalog: %w", err)
	}

	c := &Catalog{
		entries: make([]Entry, 0, len(doc.Diseases)),
		bySlug:  make(map[string]int, len(doc.Diseases)),
		byLabel: make(map[domain.DiseaseLabel]int, len(doc.Diseases)),
	}
	for _, d := range doc.Diseases {
		if !d.Label.IsKnown() {
			return nil, fmt.Errorf("disease catalog: unknown label %q", d.Label)
		}
		if _, dup := c.byLabel[d.Label]; dup {
			return nil, fmt.Errorf("disease catalog: duplicate label %q", d.Label)
		}
		if d.Symptoms == nil {
			d.Symptoms = []string{}
		}
		class := staging.ProgressionOf(d.Label)
		bands := staging.Bands(class)
		if bands == nil {
			bands = []staging.Band{}
		}
		c.byLabel[d.Label] = len(c.entries)
		c.bySlug[strings.ToLower(d.Slug)] = len(c.entries)
		c.entries = append(c.entries, Entry{Disease: d, Progression: class, Bands: bands})
	}
	for _, label := range domain.KnownLabels() {
		if _, ok := c.byLabel[label]; !ok {
			return nil, fmt.Errorf("disease catalog: missing label %q", label)
		}
	}
	return c, nil
}

func (c *Catalog) List() []Entry {
	return slices.Clone(c.entries)
}

// Lookup accepts either the display label or the slug, case-insensitively.
func (c *Catalog) Lookup(key string) (Entry, error) {
	key = strings.TrimSpace(key)
	if idx, ok := c.byLabel[domain.DiseaseLabel(key)]; ok {
		return c.entries[idx], nil
	}
	if idx, ok := c.bySlug[strings.ToLower(key)]; ok {
		return c.entries[idx], nil
	}
	for _, entry := range c.entries {
		if strings.EqualFold(string(entry.Label), key) {
			return entry, nil
		}
	}
	return Entry{}, domain.WrapError(domain.ErrNotFound, "lookup disease", fmt.Errorf("disease %q", key))
}
