package ports

import (
	"context"
	"io"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

// ImageClassifier runs the external image-classification model.
type ImageClassifier interface {
	Classify(ctx context.Context, filename string, image io.Reader) (domain.Classification, error)
}

// PredictionRepository persists write-once prediction records.
type PredictionRepository interface {
	Create(ctx context.Context, prediction *domain.Prediction) error
	GetByID(ctx context.Context, userID, id string) (*domain.Prediction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Prediction, error)
}

// UserRepository persists registered users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// SessionStore keeps login sessions with a sliding inactivity timeout.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	// Touch loads the session and extends its expiry.
	Touch(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// ObjectStorage stores uploaded images.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes prediction events.
type EventPublisher interface {
	PublishPredictionCompleted(ctx context.Context, event domain.PredictionEvent) error
}

// EventSubscriber consumes prediction events until ctx is done.
type EventSubscriber interface {
	SubscribePredictionCompleted(ctx context.Context, handler func(context.Context, domain.PredictionEvent) error) error
}

// StatsRepository upserts per-disease aggregates.
type StatsRepository interface {
	Increment(ctx context.Context, event domain.PredictionEvent) error
	List(ctx context.Context) ([]domain.DiseaseStat, error)
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// HistoryExporter renders a prediction history as a downloadable document.
type HistoryExporter interface {
	ContentType() string
	Write(w io.Writer, predictions []domain.Prediction) error
}
