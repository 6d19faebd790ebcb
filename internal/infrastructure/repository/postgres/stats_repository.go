package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

type StatsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db, now: time.Now}
}

// Increment is idempotent per prediction id, so redelivered events are not counted twice.
func (r *StatsRepository) Increment(ctx context.Context, event domain.PredictionEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stats tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO processed_prediction_events (prediction_id, processed_at)
VALUES ($1,$2)
ON CONFLICT (prediction_id) DO NOTHING
`, event.PredictionID, r.now().UTC())
	if err != nil {
		return fmt.Errorf("mark prediction event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil
	}

	var stages [4]int64
	var unstaged int64
	if n := event.StageNumber; n != nil && *n >= 1 && *n <= 4 {
		stages[*n-1] = 1
	} else {
		unstaged = 1
	}
	seenAt := event.CreatedAt.UTC()
	if event.CreatedAt.IsZero() {
		seenAt = r.now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO disease_stats (label, total, stage_1, stage_2, stage_3, stage_4, unstaged, confidence_sum, last_seen_at)
VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (label) DO UPDATE SET
	total = disease_stats.total + 1,
	stage_1 = disease_stats.stage_1 + EXCLUDED.stage_1,
	stage_2 = disease_stats.stage_2 + EXCLUDED.stage_2,
	stage_3 = disease_stats.stage_3 + EXCLUDED.stage_3,
	stage_4 = disease_stats.stage_4 + EXCLUDED.stage_4,
	unstaged = disease_stats.unstaged + EXCLUDED.unstaged,
	confidence_sum = disease_stats.confidence_sum + EXCLUDED.confidence_sum,
	last_seen_at = GREATEST(disease_stats.last_seen_at, EXCLUDED.last_seen_at)
`, string(event.PredictedClass), stages[0], stages[1], stages[2], stages[3], unstaged, event.Confidence, seenAt)
	if err != nil {
		return fmt.Errorf("upsert disease stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stats tx: %w", err)
	}
	return nil
}

func (r *StatsRepository) List(ctx context.Context) ([]domain.DiseaseStat, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT label, total, stage_1, stage_2, stage_3, stage_4, unstaged, confidence_sum, last_seen_at
FROM disease_stats
ORDER BY total DESC, label ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list disease stats: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DiseaseStat, 0)
	for rows.Next() {
		var (
			stat          domain.DiseaseStat
			label         string
			confidenceSum float64
		)
		if err := rows.Scan(
			&label, &stat.Total, &stat.Stage1, &stat.Stage2, &stat.Stage3, &stat.Stage4,
			&stat.Unstaged, &confidenceSum, &stat.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("scan disease stat: %w", err)
		}
		stat.Label = domain.DiseaseLabel(label)
		if stat.Total > 0 {
			stat.AvgConfidence = confidenceSum / float64(stat.Total)
		}
		out = append(out, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate disease stats: %w", err)
	}
	return out, nil
}
