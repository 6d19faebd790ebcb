package ports

import (
	"context"
	"io"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

type PredictRequest struct {
	UserID           string
	Filename         string
	MimeType         string
	Body             io.Reader
	SymptomStartDate string
}

// ImagePredictor is the inbound contract for image upload, inference and staging.
type ImagePredictor interface {
	Predict(ctx context.Context, req PredictRequest) (*domain.Prediction, error)
}

// PredictionReader is the inbound read model for a user's prediction history.
type PredictionReader interface {
	Get(ctx context.Context, userID, id string) (*domain.Prediction, error)
	List(ctx context.Context, userID string, limit int) ([]domain.Prediction, error)
	Export(ctx context.Context, userID string, w io.Writer) error
	ExportContentType() string
}

// StageEstimator maps a predicted label, confidence and onset date to a stage.
type StageEstimator interface {
	Estimate(disease domain.DiseaseLabel, confidence float64, onsetDate string) domain.StageResult
}

// Authenticator is the inbound contract for registration and session auth.
type Authenticator interface {
	Register(ctx context.Context, name, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Authenticate(ctx context.Context, sessionID string) (*domain.Session, error)
}

// StatsService records and reads per-disease aggregates.
type StatsService interface {
	Record(ctx context.Context, event domain.PredictionEvent) error
	List(ctx context.Context) ([]domain.DiseaseStat, error)
}
