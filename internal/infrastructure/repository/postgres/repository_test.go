package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

var predictionColumnNames = []string{
	"id", "user_id", "image_key", "filename", "mime_type", "predicted_class", "confidence",
	"top_predictions", "symptom_start_date", "stage_info", "created_at",
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	expectationsMet(t, mock)
}

func TestPredictionGetByIDReturnsDomainNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPredictionRepository(db)

	mock.ExpectQuery("SELECT id, user_id, image_key").
		WithArgs("missing", "user-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "user-1", "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPredictionCreateStoresStageInfoAsJSON(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPredictionRepository(db)

	stage := 2
	onset := "2026-10-14"
	createdAt := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)
	prediction := &domain.Prediction{
		ID:               "p-1",
		UserID:           "user-1",
		ImageKey:         "p-1_scalp.png",
		Filename:         "scalp.png",
		MimeType:         "image/png",
		PredictedClass:   domain.HeadLice,
		Confidence:       0.92,
		TopPredictions:   []domain.LabelScore{{Label: domain.HeadLice, Confidence: 0.92}},
		SymptomStartDate: &onset,
		StageInfo:        domain.StageResult{StageNumber: &stage, DaysElapsed: 5},
		CreatedAt:        createdAt,
	}

	mock.ExpectExec("INSERT INTO predictions").
		WithArgs("p-1", "user-1", "p-1_scalp.png", "scalp.png", "image/png", "Head Lice", 0.92,
			[]byte(`[{"label":"Head Lice","confidence":0.92}]`), onset, sqlmock.AnyArg(), createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), prediction); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	expectationsMet(t, mock)
}

func TestPredictionListByUserDecodesRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPredictionRepository(db)

	createdAt := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(predictionColumnNames).
		AddRow("p-2", "user-1", "k2", "b.png", "image/png", "Psoriasis", 0.8,
			[]byte(`[]`), nil, []byte(`{"stage":"Unknown","stage_number":null,"severity":"Unknown","days_elapsed":0,"weeks_elapsed":0,"progression_rate":"Unknown","clinical_notes":"Symptom start date not provided.","confidence_level":0.8}`), createdAt).
		AddRow("p-1", "user-1", "k1", "a.png", "image/png", "Head Lice", 0.92,
			[]byte(`[{"label":"Head Lice","confidence":0.92}]`), "2026-10-14", []byte(`{"stage":"Stage II - Active Phase","stage_number":2,"severity":"Moderate","days_elapsed":5,"weeks_elapsed":0.7,"progression_rate":"Rapid","clinical_notes":"n","confidence_level":0.92}`), createdAt)
	mock.ExpectQuery("SELECT id, user_id, image_key").WithArgs("user-1", 20).WillReturnRows(rows)

	predictions, err := repo.ListByUser(context.Background(), "user-1", 20)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(predictions))
	}
	if predictions[0].SymptomStartDate != nil || predictions[0].StageInfo.StageName() != domain.StageUnknown {
		t.Fatalf("unexpected first prediction: %+v", predictions[0])
	}
	second := predictions[1]
	if second.SymptomStartDate == nil || *second.SymptomStartDate != "2026-10-14" {
		t.Fatalf("expected onset date on second prediction")
	}
	if second.StageInfo.StageNum() != 2 || len(second.TopPredictions) != 1 {
		t.Fatalf("unexpected second prediction: %+v", second)
	}
	expectationsMet(t, mock)
}

func TestUserCreateMapsUniqueViolationToConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u-1", "Jane", "jane", "hash", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, Message: "duplicate key"})

	err := repo.Create(context.Background(), &domain.User{ID: "u-1", Name: "Jane", Username: "jane", PasswordHash: "hash", CreatedAt: time.Now()})
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUserGetByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	createdAt := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, name, username, password_hash").
		WithArgs("jane").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "username", "password_hash", "created_at"}).
			AddRow("u-1", "Jane", "jane", "hash", createdAt))
	mock.ExpectQuery("SELECT id, name, username, password_hash").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetByUsername(context.Background(), "jane")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if user.ID != "u-1" || user.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", user)
	}

	_, err = repo.GetByUsername(context.Background(), "nobody")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestStatsIncrementUpsertsStageCounter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepository(db)

	stage := 2
	seenAt := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processed_prediction_events").
		WithArgs("p-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO disease_stats").
		WithArgs("Head Lice", 0, 1, 0, 0, 0, 0.92, seenAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Increment(context.Background(), domain.PredictionEvent{
		PredictionID:   "p-1",
		PredictedClass: domain.HeadLice,
		Confidence:     0.92,
		StageNumber:    &stage,
		CreatedAt:      seenAt,
	})
	if err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	expectationsMet(t, mock)
}

func TestStatsIncrementSkipsDuplicateEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processed_prediction_events").
		WithArgs("p-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Increment(context.Background(), domain.PredictionEvent{PredictionID: "p-1", PredictedClass: domain.NoDisease})
	if err != nil {
		t.Fatalf("Increment() error = %v", err)
	}
	expectationsMet(t, mock)
}

func TestStatsListComputesAverageConfidence(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepository(db)

	seenAt := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT label, total").
		WillReturnRows(sqlmock.NewRows([]string{"label", "total", "stage_1", "stage_2", "stage_3", "stage_4", "unstaged", "confidence_sum", "last_seen_at"}).
			AddRow("Psoriasis", 4, 1, 1, 1, 0, 1, 3.2, seenAt))

	stats, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(stats) != 1 || stats[0].Label != domain.Psoriasis {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if diff := stats[0].AvgConfidence - 0.8; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected avg confidence 0.8, got %v", stats[0].AvgConfidence)
	}
	expectationsMet(t, mock)
}
