package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nexusdash/analyst-service/internal/model"
)

// ProviderStats is one row of the per-provider call summary.
type ProviderStats struct {
	Provider  string `db:"provider" json:"provider"`
	Total     int64  `db:"total" json:"total"`
	Succeeded int64  `db:"succeeded" json:"succeeded"`
	Fallbacks int64  `db:"fallbacks" json:"fallbacks"`
}

// AnalysisCallRepository persists one record per orchestrated request, for
// cost monitoring and the admin stats endpoint.
type AnalysisCallRepository interface {
	Create(ctx context.Context, call *model.AnalysisCall) error
	Count(ctx context.Context) (int64, error)
	StatsByProvider(ctx context.Context) ([]ProviderStats, error)
	Recent(ctx context.Context, limit int) ([]model.AnalysisCall, error)
}

type sqliteAnalysisCallRepository struct {
	db *sqlx.DB
}

// NewAnalysisCallRepository creates a SQLite-backed AnalysisCallRepository.
func NewAnalysisCallRepository(db *sqlx.DB) AnalysisCallRepository {
	return &sqliteAnalysisCallRepository{db: db}
}

func (r *sqliteAnalysisCallRepository) Create(ctx context.Context, call *model.AnalysisCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO analysis_calls (query, ticker, provider, model, success, is_mock, confidence_score, error_message, duration_ms)
		VALUES (:query, :ticker, :provider, :model, :success, :is_mock, :confidence_score, :error_message, :duration_ms)
	`, call)
	if err != nil {
		return fmt.Errorf("creating analysis call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteAnalysisCallRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM analysis_calls")
	return count, err
}

func (r *sqliteAnalysisCallRepository) StatsByProvider(ctx context.Context) ([]ProviderStats, error) {
	var stats []ProviderStats
	err := r.db.SelectContext(ctx, &stats, `
		SELECT provider,
		       COUNT(*) AS total,
		       SUM(CASE WHEN success THEN 1 ELSE 0 END) AS succeeded,
		       SUM(CASE WHEN is_mock THEN 1 ELSE 0 END) AS fallbacks
		FROM analysis_calls
		GROUP BY provider
		ORDER BY provider
	`)
	if err != nil {
		return nil, fmt.Errorf("querying provider stats: %w", err)
	}
	return stats, nil
}

func (r *sqliteAnalysisCallRepository) Recent(ctx context.Context, limit int) ([]model.AnalysisCall, error) {
	var calls []model.AnalysisCall
	err := r.db.SelectContext(ctx, &calls,
		"SELECT * FROM analysis_calls ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent calls: %w", err)
	}
	return calls, nil
}
