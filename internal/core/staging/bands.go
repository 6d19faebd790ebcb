package staging

import (
	"slices"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

// Band is one row of a progression class's day-threshold table.
type Band struct {
	MaxDays     int    `json:"max_days,omitempty"`
	OpenEnded   bool   `json:"open_ended,omitempty"`
	StageNumber int    `json:"stage_number"`
	StageName   string `json:"stage"`
	Severity    string `json:"severity"`
	Progression string `json:"progression_rate"`
	Notes       string `json:"clinical_notes"`
}

func (b Band) covers(days int) bool {
	return b.OpenEnded || days <= b.MaxDays
}

var membership = map[domain.DiseaseLabel]domain.ProgressionClass{
	domain.HeadLice:          domain.ProgressionFast,
	domain.ContactDermatitis: domain.ProgressionFast,
	domain.Folliculitis:      domain.ProgressionFast,

	domain.SeborrheicDermatitis: domain.ProgressionModerate,
	domain.TineaCapitis:         domain.ProgressionModerate,
	domain.Psoriasis:            domain.ProgressionModerate,

	domain.AlopeciaAreata:      domain.ProgressionSlow,
	domain.LichenPlanus:        domain.ProgressionSlow,
	domain.TelogenEffluvium:    domain.ProgressionSlow,
	domain.MalePatternBaldness: domain.ProgressionSlow,

	domain.NoDisease: domain.ProgressionNone,
}

// Bands are strictly ordered by MaxDays; the last one is open-ended.
var bandTable = map[domain.ProgressionClass][]Band{
	domain.ProgressionFast: {
		{MaxDays: 3, StageNumber: 1, StageName: "Stage I - Initial Onset", Severity: "Mild", Progression: "Rapid",
			Notes: "Early presentation detected. Immediate treatment recommended for optimal outcomes."},
		{MaxDays: 7, StageNumber: 2, StageName: "Stage II - Active Phase", Severity: "Moderate", Progression: "Rapid",
			Notes: "Active symptoms progressing. Prompt treatment advised to prevent advancement."},
		{MaxDays: 14, StageNumber: 3, StageName: "Stage III - Established", Severity: "Moderate to Severe", Progression: "Rapid",
			Notes: "Established condition requiring intensive treatment protocol."},
		{OpenEnded: true, StageNumber: 4, StageName: "Stage IV - Chronic", Severity: "Severe", Progression: "Chronic",
			Notes: "Persistent condition requiring comprehensive long-term management."},
	},
	domain.ProgressionModerate: {
		{MaxDays: 7, StageNumber: 1, StageName: "Stage I - Early Phase", Severity: "Mild", Progression: "Moderate",
			Notes: "Early stage with good prognosis. Treatment initiation recommended."},
		{MaxDays: 21, StageNumber: 2, StageName: "Stage II - Progressive Phase", Severity: "Moderate", Progression: "Moderate",
			Notes: "Progressive condition. Treatment advised to prevent further advancement."},
		{MaxDays: 60, StageNumber: 3, StageName: "Stage III - Advanced Phase", Severity: "Moderate to Severe", Progression: "Moderate",
			Notes: "Advanced presentation requiring consistent treatment regimen."},
		{OpenEnded: true, StageNumber: 4, StageName: "Stage IV - Chronic Phase", Severity: "Severe", Progression: "Chronic",
			Notes: "Chronic condition requiring long-term management strategy."},
	},
	domain.ProgressionSlow: {
		{MaxDays: 14, StageNumber: 1, StageName: "Stage I - Initial Phase", Severity: "Mild", Progression: "Gradual",
			Notes: "Initial stage detected. Early intervention beneficial for best outcomes."},
		{MaxDays: 60, StageNumber: 2, StageName: "Stage II - Developing Phase", Severity: "Mild to Moderate", Progression: "Gradual",
			Notes: "Developing condition. Treatment can effectively slow progression."},
		{MaxDays: 180, StageNumber: 3, StageName: "Stage III - Established Phase", Severity: "Moderate", Progression: "Gradual",
			Notes: "Well-established condition requiring comprehensive treatment approach."},
		{OpenEnded: true, StageNumber: 4, StageName: "Stage IV - Advanced", Severity: "Moderate to Severe", Progression: "Chronic",
			Notes: "Long-standing condition requiring ongoing management and monitoring."},
	},
}

// ProgressionOf returns the fixed progression class of a label.
// Labels outside the table are ProgressionUnclassified.
func ProgressionOf(label domain.DiseaseLabel) domain.ProgressionClass {
	if class, ok := membership[label]; ok {
		return class
	}
	return domain.ProgressionUnclassified
}

// Bands returns a copy of the band table for a class, nil for classes without stages.
func Bands(class domain.ProgressionClass) []Band {
	return slices.Clone(bandTable[class])
}

func bandFor(class domain.ProgressionClass, days int) (Band, bool) {
	for _, band := range bandTable[class] {
		if band.covers(days) {
			return band, true
		}
	}
	return Band{}, false
}
