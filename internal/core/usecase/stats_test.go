package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

type statsRepoFake struct {
	events []domain.PredictionEvent
	stats  []domain.DiseaseStat
	err    error
}

func (f *statsRepoFake) Increment(_ context.Context, event domain.PredictionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *statsRepoFake) List(context.Context) ([]domain.DiseaseStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func TestStatsRecord(t *testing.T) {
	repo := &statsRepoFake{}
	uc := NewStatsUseCase(repo)

	err := uc.Record(context.Background(), domain.PredictionEvent{PredictionID: "p-1", PredictedClass: domain.Psoriasis})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected one increment, got %d", len(repo.events))
	}
}

func TestStatsRecordValidation(t *testing.T) {
	repo := &statsRepoFake{}
	uc := NewStatsUseCase(repo)

	for _, event := range []domain.PredictionEvent{
		{PredictedClass: domain.Psoriasis},
		{PredictionID: "p-1"},
	} {
		if err := uc.Record(context.Background(), event); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", event, err)
		}
	}
	if len(repo.events) != 0 {
		t.Fatalf("invalid events must not reach the repository")
	}
}

func TestStatsRecordRepositoryError(t *testing.T) {
	uc := NewStatsUseCase(&statsRepoFake{err: errors.New("db down")})

	err := uc.Record(context.Background(), domain.PredictionEvent{PredictionID: "p-1", PredictedClass: domain.Psoriasis})
	if err == nil {
		t.Fatalf("expected repository error")
	}
}

func TestStatsList(t *testing.T) {
	repo := &statsRepoFake{stats: []domain.DiseaseStat{{Label: domain.HeadLice, Total: 3}}}
	uc := NewStatsUseCase(repo)

	stats, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stats) != 1 || stats[0].Total != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
