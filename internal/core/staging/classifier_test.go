package staging

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

var fixedNow = time.Date(2026, time.October, 19, 15, 30, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	return NewClassifier(WithClock(func() time.Time { return fixedNow }))
}

func daysAgo(days int) string {
	return fixedNow.AddDate(0, 0, -days).Format(OnsetLayout)
}

func TestEstimateHeadLiceFiveDays(t *testing.T) {
	res := newTestClassifier().Estimate(domain.HeadLice, 0.92, daysAgo(5))

	if res.StageNum() != 2 {
		t.Fatalf("expected stage 2, got %d", res.StageNum())
	}
	if res.SeverityLabel() != "Moderate" {
		t.Fatalf("expected severity Moderate, got %q", res.SeverityLabel())
	}
	if res.Progression() != "Rapid" {
		t.Fatalf("expected progression Rapid, got %q", res.Progression())
	}
	if res.DaysElapsed != 5 {
		t.Fatalf("expected 5 days elapsed, got %d", res.DaysElapsed)
	}
	if res.WeeksElapsed != 0.7 {
		t.Fatalf("expected 0.7 weeks elapsed, got %v", res.WeeksElapsed)
	}
	if !strings.HasSuffix(res.ClinicalNotes, "AI confidence: High (≥85%).") {
		t.Fatalf("unexpected notes: %s", res.ClinicalNotes)
	}
	if res.ConfidenceLevel != 0.92 {
		t.Fatalf("expected confidence level 0.92, got %v", res.ConfidenceLevel)
	}
}

func TestEstimateAlopeciaLowConfidenceLongOnset(t *testing.T) {
	res := newTestClassifier().Estimate(domain.AlopeciaAreata, 0.60, daysAgo(200))

	if res.StageNum() != 4 {
		t.Fatalf("expected stage 4, got %d", res.StageNum())
	}
	if res.SeverityLabel() != "Moderate to Severe (Uncertain)" {
		t.Fatalf("unexpected severity %q", res.SeverityLabel())
	}
	if res.Progression() != "Chronic" {
		t.Fatalf("expected progression Chronic, got %q", res.Progression())
	}
	if !strings.Contains(res.ClinicalNotes, "Clinical verification recommended.") {
		t.Fatalf("expected verification note, got %s", res.ClinicalNotes)
	}
}

func TestEstimateNoDiseaseIgnoresInputs(t *testing.T) {
	c := newTestClassifier()
	for _, onset := range []string{"", daysAgo(3), "not-a-date", "2999-01-01"} {
		for _, confidence := range []float64{0, 0.5, 0.99, math.NaN()} {
			res := c.Estimate(domain.NoDisease, confidence, onset)
			if res.StageNumber != nil || res.Stage != nil || res.Severity != nil || res.ProgressionRate != nil {
				t.Fatalf("expected null stage fields for onset=%q confidence=%v, got %+v", onset, confidence, res)
			}
			if res.DaysElapsed != 0 || res.WeeksElapsed != 0 {
				t.Fatalf("expected zero elapsed, got %+v", res)
			}
			if !strings.Contains(res.ClinicalNotes, "healthy") {
				t.Fatalf("expected healthy scalp note, got %q", res.ClinicalNotes)
			}
		}
	}
}

func TestEstimateMissingOnsetIsUnknown(t *testing.T) {
	c := newTestClassifier()
	for _, label := range domain.KnownLabels() {
		if label == domain.NoDisease {
			continue
		}
		for _, onset := range []string{"", "   "} {
			res := c.Estimate(label, 0.8, onset)
			if res.StageName() != domain.StageUnknown {
				t.Fatalf("%s: expected Unknown stage, got %q", label, res.StageName())
			}
			if res.SeverityLabel() != domain.SeverityUnknown {
				t.Fatalf("%s: expected Unknown severity, got %q", label, res.SeverityLabel())
			}
			if res.StageNumber != nil || res.DaysElapsed != 0 || res.WeeksElapsed != 0 {
				t.Fatalf("%s: expected empty elapsed fields, got %+v", label, res)
			}
			if res.ClinicalNotes != "Symptom start date not provided." {
				t.Fatalf("unexpected notes %q", res.ClinicalNotes)
			}
		}
	}
}

func TestEstimateFutureOnsetIsInvalidDate(t *testing.T) {
	c := newTestClassifier()
	for _, label := range []domain.DiseaseLabel{domain.HeadLice, domain.Psoriasis, domain.LichenPlanus, "Dandruff"} {
		res := c.Estimate(label, 0.9, daysAgo(-1))
		if res.StageName() != domain.StageInvalidDate {
			t.Fatalf("%s: expected Invalid Date, got %q", label, res.StageName())
		}
		if res.SeverityLabel() != domain.SeverityError {
			t.Fatalf("%s: expected Error severity, got %q", label, res.SeverityLabel())
		}
		if res.DaysElapsed != 0 || res.WeeksElapsed != 0 {
			t.Fatalf("%s: expected zero elapsed, got %+v", label, res)
		}
		if !strings.Contains(res.ClinicalNotes, "cannot be in the future") {
			t.Fatalf("unexpected notes %q", res.ClinicalNotes)
		}
	}
}

func TestEstimateSameDayOnsetIsStageOne(t *testing.T) {
	res := newTestClassifier().Estimate(domain.TineaCapitis, 0.97, fixedNow.Format(OnsetLayout))
	if res.StageNum() != 1 || res.DaysElapsed != 0 {
		t.Fatalf("expected stage 1 with 0 days, got %+v", res)
	}
	if !strings.HasSuffix(res.ClinicalNotes, "AI confidence: Very High (≥95%).") {
		t.Fatalf("unexpected notes %q", res.ClinicalNotes)
	}
}

func TestEstimateMalformedDateDegradesToUnknown(t *testing.T) {
	c := newTestClassifier()
	for _, onset := range []string{"2026/10/01", "yesterday", "2026-02-30", "2026-1-5", "2026-10-01T00:00:00Z"} {
		res := c.Estimate(domain.Psoriasis, 0.9, onset)
		if res.StageName() != domain.StageUnknown {
			t.Fatalf("onset %q: expected Unknown stage, got %q", onset, res.StageName())
		}
		if !strings.Contains(res.ClinicalNotes, "Error calculating stage") {
			t.Fatalf("onset %q: expected explanatory note, got %q", onset, res.ClinicalNotes)
		}
		if res.DaysElapsed != 0 {
			t.Fatalf("onset %q: expected zero days, got %d", onset, res.DaysElapsed)
		}
	}
}

func TestEstimateInvalidConfidenceDegradesToUnknown(t *testing.T) {
	c := newTestClassifier()
	for _, confidence := range []float64{-0.1, 1.5, math.NaN(), math.Inf(1)} {
		res := c.Estimate(domain.Folliculitis, confidence, daysAgo(2))
		if res.StageName() != domain.StageUnknown {
			t.Fatalf("confidence %v: expected Unknown stage, got %q", confidence, res.StageName())
		}
		if res.ConfidenceLevel != 0 {
			t.Fatalf("confidence %v: expected zeroed confidence level, got %v", confidence, res.ConfidenceLevel)
		}
		if _, err := json.Marshal(res); err != nil {
			t.Fatalf("confidence %v: result must be JSON encodable: %v", confidence, err)
		}
	}
}

func TestEstimateUnknownLabelIsUnclassified(t *testing.T) {
	res := newTestClassifier().Estimate("Dandruff", 0.5, daysAgo(30))
	if res.StageName() != domain.StageUnclassified {
		t.Fatalf("expected Unclassified stage, got %q", res.StageName())
	}
	if res.StageNumber != nil {
		t.Fatalf("expected nil stage number, got %d", *res.StageNumber)
	}
	if res.DaysElapsed != 30 || res.WeeksElapsed != 4.3 {
		t.Fatalf("expected elapsed 30 days / 4.3 weeks, got %d / %v", res.DaysElapsed, res.WeeksElapsed)
	}
	if !strings.Contains(res.ClinicalNotes, "Dandruff") {
		t.Fatalf("expected label in notes, got %q", res.ClinicalNotes)
	}
}

func TestEstimateElapsedMatchesCalendarDays(t *testing.T) {
	c := newTestClassifier()
	for _, days := range []int{0, 1, 6, 7, 13, 29, 365, 366, 3650, 20000} {
		res := c.Estimate(domain.AlopeciaAreata, 0.9, daysAgo(days))
		if res.DaysElapsed != days {
			t.Fatalf("expected %d days, got %d", days, res.DaysElapsed)
		}
		want := math.Round(float64(days)/7*10) / 10
		if res.WeeksElapsed != want {
			t.Fatalf("days=%d: expected %v weeks, got %v", days, want, res.WeeksElapsed)
		}
	}
}

func TestEstimateVeryOldOnsetDoesNotOverflow(t *testing.T) {
	res := newTestClassifier().Estimate(domain.MalePatternBaldness, 0.9, "0001-01-01")
	if res.StageNum() != 4 {
		t.Fatalf("expected stage 4, got %+v", res)
	}
	if res.DaysElapsed <= 0 {
		t.Fatalf("expected positive days, got %d", res.DaysElapsed)
	}
}

func TestEstimateUsesLocationForToday(t *testing.T) {
	// 23:30 UTC on Oct 19 is already Oct 20 in Tokyo.
	now := time.Date(2026, time.October, 19, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)
	c := NewClassifier(WithClock(func() time.Time { return now }), WithLocation(tokyo))

	res := c.Estimate(domain.HeadLice, 0.9, "2026-10-20")
	if res.StageName() == domain.StageInvalidDate {
		t.Fatalf("expected onset on local today to be valid")
	}
	if res.DaysElapsed != 0 {
		t.Fatalf("expected 0 days, got %d", res.DaysElapsed)
	}
}

func TestEstimateLowConfidenceAlwaysUncertain(t *testing.T) {
	c := newTestClassifier()
	for _, label := range []domain.DiseaseLabel{domain.HeadLice, domain.Psoriasis, domain.TelogenEffluvium} {
		for _, days := range []int{0, 10, 100, 1000} {
			for _, confidence := range []float64{0, 0.3, 0.6999} {
				res := c.Estimate(label, confidence, daysAgo(days))
				if !strings.HasSuffix(res.SeverityLabel(), "(Uncertain)") {
					t.Fatalf("%s days=%d conf=%v: expected uncertain severity, got %q", label, days, confidence, res.SeverityLabel())
				}
			}
			res := c.Estimate(label, 0.7, daysAgo(days))
			if strings.Contains(res.SeverityLabel(), "Uncertain") {
				t.Fatalf("%s: confidence 0.70 must not be uncertain, got %q", label, res.SeverityLabel())
			}
		}
	}
}

func TestStageResultJSONShape(t *testing.T) {
	raw, err := json.Marshal(newTestClassifier().Estimate(domain.NoDisease, 0.99, ""))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"stage", "stage_number", "severity", "progression_rate"} {
		value, ok := payload[key]
		if !ok {
			t.Fatalf("expected key %s in %s", key, raw)
		}
		if value != nil {
			t.Fatalf("expected %s to be null, got %v", key, value)
		}
	}
	for _, key := range []string{"days_elapsed", "weeks_elapsed", "clinical_notes", "confidence_level"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected key %s in %s", key, raw)
		}
	}
}
