package domain

import "time"

type LabelScore struct {
	Label      DiseaseLabel `json:"label"`
	Confidence float64      `json:"confidence"`
}

// Classification is the raw model output for one image.
type Classification struct {
	Label      DiseaseLabel `json:"predicted_class"`
	Confidence float64      `json:"confidence"`
	Top        []LabelScore `json:"top_predictions,omitempty"`
}

type Prediction struct {
	ID               string       `json:"id"`
	UserID           string       `json:"user_id"`
	ImageKey         string       `json:"image_key"`
	Filename         string       `json:"filename"`
	MimeType         string       `json:"mime_type"`
	PredictedClass   DiseaseLabel `json:"predicted_class"`
	Confidence       float64      `json:"confidence"`
	TopPredictions   []LabelScore `json:"top_predictions"`
	SymptomStartDate *string      `json:"symptom_start_date"`
	StageInfo        StageResult  `json:"stage_info"`
	CreatedAt        time.Time    `json:"created_at"`
}

// PredictionEvent is published after a prediction has been stored.
type PredictionEvent struct {
	PredictionID     string           `json:"prediction_id"`
	UserID           string           `json:"user_id"`
	PredictedClass   DiseaseLabel     `json:"predicted_class"`
	Confidence       float64          `json:"confidence"`
	StageNumber      *int             `json:"stage_number"`
	ProgressionClass ProgressionClass `json:"progression_class"`
	CreatedAt        time.Time        `json:"created_at"`
}

type DiseaseStat struct {
	Label         DiseaseLabel `json:"label"`
	Total         int64        `json:"total"`
	Stage1        int64        `json:"stage_1"`
	Stage2        int64        `json:"stage_2"`
	Stage3        int64        `json:"stage_3"`
	Stage4        int64        `json:"stage_4"`
	Unstaged      int64        `json:"unstaged"`
	AvgConfidence float64      `json:"avg_confidence"`
	LastSeenAt    time.Time    `json:"last_seen_at"`
}
