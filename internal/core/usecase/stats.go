package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
	"github.com/kirillkom/scalp-assistant/internal/core/ports"
)

type StatsUseCase struct {
	repo ports.StatsRepository
}

func NewStatsUseCase(repo ports.StatsRepository) *StatsUseCase {
	return &StatsUseCase{repo: repo}
}

func (uc *StatsUseCase) Record(ctx context.Context, event domain.PredictionEvent) error {
	if strings.TrimSpace(event.PredictionID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record stats", errors.New("prediction id is required"))
	}
	if strings.TrimSpace(string(event.PredictedClass)) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record stats", errors.New("predicted class is required"))
	}
	if err := uc.repo.Increment(ctx, event); err != nil {
		return fmt.Errorf("increment disease stats: %w", err)
	}
	return nil
}

func (uc *StatsUseCase) List(ctx context.Context) ([]domain.DiseaseStat, error) {
	stats, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list disease stats: %w", err)
	}
	return stats, nil
}
