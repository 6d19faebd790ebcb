package domain

const (
	StageUnknown      = "Unknown"
	StageInvalidDate  = "Invalid Date"
	StageUnclassified = "Unclassified"

	SeverityUnknown = "Unknown"
	SeverityError   = "Error"

	ProgressionRateUnknown = "Unknown"
	ProgressionRateError   = "Error"
)

// StageResult is the staging outcome for one prediction. Nil pointers encode as JSON null.
type StageResult struct {
	Stage           *string `json:"stage"`
	StageNumber     *int    `json:"stage_number"`
	Severity        *string `json:"severity"`
	DaysElapsed     int     `json:"days_elapsed"`
	WeeksElapsed    float64 `json:"weeks_elapsed"`
	ProgressionRate *string `json:"progression_rate"`
	ClinicalNotes   string  `json:"clinical_notes"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

func (r StageResult) StageName() string {
	if r.Stage == nil {
		return ""
	}
	return *r.Stage
}

func (r StageResult) SeverityLabel() string {
	if r.Severity == nil {
		return ""
	}
	return *r.Severity
}

func (r StageResult) Progression() string {
	if r.ProgressionRate == nil {
		return ""
	}
	return *r.ProgressionRate
}

// StageNum returns the stage number, or 0 when the result carries none.
func (r StageResult) StageNum() int {
	if r.StageNumber == nil {
		return 0
	}
	return *r.StageNumber
}
