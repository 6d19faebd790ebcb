package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
	"github.com/kirillkom/scalp-assistant/internal/core/ports"
	"github.com/kirillkom/scalp-assistant/internal/core/staging"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	exportLimit         = 1000
	sniffLen            = 512
)

type PredictUseCase struct {
	storage    ports.ObjectStorage
	classifier ports.ImageClassifier
	stager     ports.StageEstimator
	repo       ports.PredictionRepository
	events     ports.EventPublisher
	exporter   ports.HistoryExporter
	now        func() time.Time
}

func NewPredictUseCase(
	storage ports.ObjectStorage,
	classifier ports.ImageClassifier,
	stager ports.StageEstimator,
	repo ports.PredictionRepository,
	events ports.EventPublisher,
	exporter ports.HistoryExporter,
) *PredictUseCase {
	return &PredictUseCase{
		storage:    storage,
		classifier: classifier,
		stager:     stager,
		repo:       repo,
		events:     events,
		exporter:   exporter,
		now:        time.Now,
	}
}

func (uc *PredictUseCase) Predict(ctx context.Context, req ports.PredictRequest) (*domain.Prediction, error) {
	body, err := uc.validateImage(req)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	imageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(req.Filename))
	if err := uc.storage.Save(ctx, imageKey, body); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	classification, err := uc.classifyStored(ctx, imageKey, req.Filename)
	if err != nil {
		uc.discardImage(ctx, imageKey)
		return nil, err
	}

	onset := strings.TrimSpace(req.SymptomStartDate)
	stage := uc.stager.Estimate(classification.Label, classification.Confidence, onset)

	prediction := &domain.Prediction{
		ID:             id,
		UserID:         req.UserID,
		ImageKey:       imageKey,
		Filename:       req.Filename,
		MimeType:       req.MimeType,
		PredictedClass: classification.Label,
		Confidence:     classification.Confidence,
		TopPredictions: classification.Top,
		StageInfo:      stage,
		CreatedAt:      uc.now().UTC(),
	}
	if prediction.TopPredictions == nil {
		prediction.TopPredictions = []domain.LabelScore{}
	}
	if onset != "" {
		prediction.SymptomStartDate = &onset
	}

	if err := uc.repo.Create(ctx, prediction); err != nil {
		uc.discardImage(ctx, imageKey)
		return nil, fmt.Errorf("store prediction: %w", err)
	}

	uc.publish(ctx, prediction)

	slog.Info("prediction_completed",
		"prediction_id", prediction.ID,
		"user_id", prediction.UserID,
		"predicted_class", string(prediction.PredictedClass),
		"confidence", prediction.Confidence,
		"stage", stage.StageName(),
		"severity", stage.SeverityLabel(),
	)
	return prediction, nil
}

func (uc *PredictUseCase) Get(ctx context.Context, userID, id string) (*domain.Prediction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get prediction", errors.New("prediction id is required"))
	}
	prediction, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return prediction, nil
}

func (uc *PredictUseCase) List(ctx context.Context, userID string, limit int) ([]domain.Prediction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	predictions, err := uc.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return predictions, nil
}

func (uc *PredictUseCase) Export(ctx context.Context, userID string, w io.Writer) error {
	if uc.exporter == nil {
		return errors.New("export is not configured")
	}
	predictions, err := uc.repo.ListByUser(ctx, userID, exportLimit)
	if err != nil {
		return fmt.Errorf("list predictions for export: %w", err)
	}
	if err := uc.exporter.Write(w, predictions); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ExportContentType is empty when no exporter is configured.
func (uc *PredictUseCase) ExportContentType() string {
	if uc.exporter == nil {
		return ""
	}
	return uc.exporter.ContentType()
}

func (uc *PredictUseCase) validateImage(req ports.PredictRequest) (io.Reader, error) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(req.MimeType)), "image/") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "predict", fmt.Errorf("file must be an image, got %q", req.MimeType))
	}
	if req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "predict", errors.New("no file uploaded"))
	}

	buffered := bufio.NewReaderSize(req.Body, sniffLen)
	head, err := buffered.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "predict", errors.New("uploaded file is empty"))
	}
	if sniffed := http.DetectContentType(head); !strings.HasPrefix(sniffed, "image/") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "predict", fmt.Errorf("file content is %s, not an image", sniffed))
	}
	return buffered, nil
}

func (uc *PredictUseCase) classifyStored(ctx context.Context, imageKey, filename string) (domain.Classification, error) {
	image, err := uc.storage.Open(ctx, imageKey)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("open stored image: %w", err)
	}
	defer image.Close()

	classification, err := uc.classifier.Classify(ctx, filename, image)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify image: %w", err)
	}
	if classification.Label == "" {
		return domain.Classification{}, domain.WrapError(domain.ErrTemporary, "classify image", errors.New("model returned an empty label"))
	}
	return classification, nil
}

func (uc *PredictUseCase) discardImage(ctx context.Context, imageKey string) {
	if err := uc.storage.Delete(ctx, imageKey); err != nil {
		slog.Warn("image_discard_failed", "image_key", imageKey, "error", err)
	}
}

func (uc *PredictUseCase) publish(ctx context.Context, prediction *domain.Prediction) {
	if uc.events == nil {
		return
	}
	event := domain.PredictionEvent{
		PredictionID:     prediction.ID,
		UserID:           prediction.UserID,
		PredictedClass:   prediction.PredictedClass,
		Confidence:       prediction.Confidence,
		StageNumber:      prediction.StageInfo.StageNumber,
		ProgressionClass: staging.ProgressionOf(prediction.PredictedClass),
		CreatedAt:        prediction.CreatedAt,
	}
	// The prediction is already stored; a lost event only skews stats.
	if err := uc.events.PublishPredictionCompleted(ctx, event); err != nil {
		slog.Warn("prediction_event_publish_failed", "prediction_id", prediction.ID, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "_" {
		return "image.bin"
	}
	return base
}
