package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

const predictionColumns = `id, user_id, image_key, filename, mime_type, predicted_class, confidence, top_predictions, symptom_start_date, stage_info, created_at`

type PredictionRepository struct {
	db *sql.DB
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Create(ctx context.Context, p *domain.Prediction) error {
	topJSON, err := json.Marshal(p.TopPredictions)
	if err != nil {
		return fmt.Errorf("marshal top predictions: %w", err)
	}
	stageJSON, err := json.Marshal(p.StageInfo)
	if err != nil {
		return fmt.Errorf("marshal stage info: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO predictions (`+predictionColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		p.ID, p.UserID, p.ImageKey, p.Filename, p.MimeType, string(p.PredictedClass), p.Confidence,
		topJSON, p.SymptomStartDate, stageJSON, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (r *PredictionRepository) GetByID(ctx context.Context, userID, id string) (*domain.Prediction, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+predictionColumns+`
FROM predictions
WHERE id = $1 AND user_id = $2
`, id, userID)

	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get prediction", fmt.Errorf("prediction %s", id))
		}
		return nil, err
	}
	return &p, nil
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Prediction, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+predictionColumns+`
FROM predictions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Prediction, 0)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner) (domain.Prediction, error) {
	var (
		p         domain.Prediction
		class     string
		topRaw    []byte
		stageRaw  []byte
		onsetDate sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.ImageKey, &p.Filename, &p.MimeType, &class, &p.Confidence,
		&topRaw, &onsetDate, &stageRaw, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Prediction{}, err
		}
		return domain.Prediction{}, fmt.Errorf("scan prediction: %w", err)
	}

	p.PredictedClass = domain.DiseaseLabel(class)
	if onsetDate.Valid {
		p.SymptomStartDate = &onsetDate.String
	}
	p.TopPredictions = []domain.LabelScore{}
	if len(topRaw) > 0 {
		if err := json.Unmarshal(topRaw, &p.TopPredictions); err != nil {
			return domain.Prediction{}, fmt.Errorf("unmarshal top predictions: %w", err)
		}
	}
	if err := json.Unmarshal(stageRaw, &p.StageInfo); err != nil {
		return domain.Prediction{}, fmt.Errorf("unmarshal stage info: %w", err)
	}
	return p, nil
}
