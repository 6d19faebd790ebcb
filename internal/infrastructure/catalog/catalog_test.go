package catalog

import (
	"testing"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

func TestLoadCoversEveryKnownLabel(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	entries := c.List()
	if len(entries) != len(domain.KnownLabels()) {
		t.Fatalf("expected %d entries, got %d", len(domain.KnownLabels()), len(entries))
	}
	for _, entry := range entries {
		if entry.Summary == "" || entry.Slug == "" {
			t.Fatalf("entry %q is missing summary or slug", entry.Label)
		}
		if entry.Label == domain.NoDisease {
			if entry.Progression != domain.ProgressionNone || len(entry.Bands) != 0 {
				t.Fatalf("No Disease must have no stages: %+v", entry)
			}
			continue
		}
		if len(entry.Bands) != 4 {
			t.Fatalf("expected 4 stages for %q, got %d", entry.Label, len(entry.Bands))
		}
	}
}

func TestLookup(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, key := range []string{"Head Lice", "head-lice", "HEAD LICE"} {
		entry, err := c.Lookup(key)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", key, err)
		}
		if entry.Progression != domain.ProgressionFast {
			t.Fatalf("Lookup(%q) progression = %q", key, entry.Progression)
		}
	}
	if _, err := c.Lookup("dandruff"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestParseRejectsUnknownLabel(t *testing.T) {
	_, err := parse([]byte("diseases:\n  - label: Dandruff\n    slug: dandruff\n"))
	if err == nil {
		t.Fatalf("expected unknown label error")
	}
}

func TestParseRejectsMissingLabels(t *testing.T) {
	_, err := parse([]byte("diseases:\n  - label: Psoriasis\n    slug: psoriasis\n"))
	if err == nil {
		t.Fatalf("expected missing label error")
	}
}
