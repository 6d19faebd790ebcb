// Package staging estimates the clinical stage of a predicted scalp disease
// from the model confidence and the time elapsed since symptom onset.
package staging

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

const OnsetLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Classifier is safe for concurrent use. It only reads its clock.
type Classifier struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Classifier)

func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the time zone used to derive today's calendar date.
func WithLocation(loc *time.Location) Option {
	return func(c *Classifier) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		now: time.Now,
		loc: time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Estimate never fails: malformed input degrades to an "Unknown" stage with an
// explanatory note.
func (c *Classifier) Estimate(disease domain.DiseaseLabel, confidence float64, onsetDate string) domain.StageResult {
	if disease == domain.NoDisease {
		return healthyResult()
	}

	onsetDate = strings.TrimSpace(onsetDate)
	if onsetDate == "" {
		return unknownResult(confidenceLevel(confidence), "Symptom start date not provided.")
	}
	if !validConfidence(confidence) {
		return unknownResult(0, fmt.Sprintf("Error calculating stage: confidence %v is outside [0, 1].", confidence))
	}

	onset, err := time.ParseInLocation(OnsetLayout, onsetDate, c.loc)
	if err != nil {
		return unknownResult(confidence, fmt.Sprintf("Error calculating stage: invalid symptom start date %q, expected YYYY-MM-DD.", onsetDate))
	}

	days := daysBetween(onset, c.today())
	if days < 0 {
		return domain.StageResult{
			Stage:           ptr(domain.StageInvalidDate),
			Severity:        ptr(domain.SeverityError),
			ProgressionRate: ptr(domain.ProgressionRateError),
			ClinicalNotes:   "Symptom start date cannot be in the future.",
			ConfidenceLevel: confidence,
		}
	}

	weeks := roundTenth(float64(days) / 7)
	tier := qualify(confidence)

	band, ok := bandFor(ProgressionOf(disease), days)
	if !ok {
		return domain.StageResult{
			Stage:           ptr(domain.StageUnclassified),
			Severity:        ptr(domain.SeverityUnknown),
			DaysElapsed:     days,
			WeeksElapsed:    weeks,
			ProgressionRate: ptr(domain.ProgressionRateUnknown),
			ClinicalNotes:   fmt.Sprintf("No progression profile is defined for %q. %s", string(disease), tier.note),
			ConfidenceLevel: confidence,
		}
	}

	severity := band.Severity
	if tier.uncertain {
		severity += uncertainSuffix
	}

	return domain.StageResult{
		Stage:           ptr(band.StageName),
		StageNumber:     ptr(band.StageNumber),
		Severity:        ptr(severity),
		DaysElapsed:     days,
		WeeksElapsed:    weeks,
		ProgressionRate: ptr(band.Progression),
		ClinicalNotes:   band.Notes + " " + tier.note,
		ConfidenceLevel: confidence,
	}
}

func (c *Classifier) today() time.Time {
	y, m, d := c.now().In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// daysBetween counts calendar days. Unix seconds keep very old dates from
// saturating time.Duration.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func validConfidence(confidence float64) bool {
	return !math.IsNaN(confidence) && confidence >= 0 && confidence <= 1
}

// confidenceLevel keeps NaN out of JSON output.
func confidenceLevel(confidence float64) float64 {
	if !validConfidence(confidence) {
		return 0
	}
	return confidence
}

func healthyResult() domain.StageResult {
	return domain.StageResult{
		ClinicalNotes: "No disease detected. Scalp appears healthy.",
	}
}

func unknownResult(confidence float64, note string) domain.StageResult {
	return domain.StageResult{
		Stage:           ptr(domain.StageUnknown),
		Severity:        ptr(domain.SeverityUnknown),
		ProgressionRate: ptr(domain.ProgressionRateUnknown),
		ClinicalNotes:   note,
		ConfidenceLevel: confidence,
	}
}

func ptr[T any](v T) *T {
	return &v
}
