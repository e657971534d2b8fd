package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/nexusdash/analyst-service/internal/model"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleCall(provider string, success, isMock bool) *model.AnalysisCall {
	score := 85
	duration := int64(1234)
	return &model.AnalysisCall{
		Query:           "陕西建工",
		Ticker:          "600248.SH",
		Provider:        provider,
		Model:           "deepseek-chat",
		Success:         success,
		IsMock:          isMock,
		ConfidenceScore: &score,
		DurationMs:      &duration,
	}
}

func TestAnalysisCallRepository_Create(t *testing.T) {
	repo := NewAnalysisCallRepository(testDB(t))
	ctx := context.Background()

	call := sampleCall("deepseek", true, false)
	if err := repo.Create(ctx, call); err != nil {
		t.Fatalf("creating call: %v", err)
	}
	if call.ID == 0 {
		t.Error("expected ID set after insert")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("counting calls: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 call, got %d", count)
	}
}

func TestAnalysisCallRepository_CreateWithError(t *testing.T) {
	repo := NewAnalysisCallRepository(testDB(t))
	ctx := context.Background()

	msg := "deepseek API 调用失败"
	call := sampleCall("deepseek", false, true)
	call.ConfidenceScore = nil
	call.ErrorMessage = &msg
	if err := repo.Create(ctx, call); err != nil {
		t.Fatalf("creating call: %v", err)
	}

	calls, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("listing calls: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	got := calls[0]
	if got.ErrorMessage == nil || *got.ErrorMessage != msg {
		t.Errorf("expected error message round-tripped, got %v", got.ErrorMessage)
	}
	if got.ConfidenceScore != nil {
		t.Errorf("expected nil confidence score, got %v", got.ConfidenceScore)
	}
	if !got.IsMock || got.Success {
		t.Errorf("expected failed mock call, got %+v", got)
	}
}

func TestAnalysisCallRepository_StatsByProvider(t *testing.T) {
	repo := NewAnalysisCallRepository(testDB(t))
	ctx := context.Background()

	for _, c := range []*model.AnalysisCall{
		sampleCall("deepseek", true, false),
		sampleCall("deepseek", false, true),
		sampleCall("gemini", true, false),
	} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("creating call: %v", err)
		}
	}

	stats, err := repo.StatsByProvider(ctx)
	if err != nil {
		t.Fatalf("querying stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(stats))
	}

	// Ordered by provider name: deepseek, gemini.
	ds := stats[0]
	if ds.Provider != "deepseek" || ds.Total != 2 || ds.Succeeded != 1 || ds.Fallbacks != 1 {
		t.Errorf("unexpected deepseek stats: %+v", ds)
	}
	gm := stats[1]
	if gm.Provider != "gemini" || gm.Total != 1 || gm.Succeeded != 1 || gm.Fallbacks != 0 {
		t.Errorf("unexpected gemini stats: %+v", gm)
	}
}

func TestAnalysisCallRepository_RecentLimit(t *testing.T) {
	repo := NewAnalysisCallRepository(testDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Create(ctx, sampleCall("kimi", true, false)); err != nil {
			t.Fatalf("creating call: %v", err)
		}
	}

	calls, err := repo.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("listing calls: %v", err)
	}
	if len(calls) != 3 {
		t.Errorf("expected 3 calls, got %d", len(calls))
	}
	// Newest first: with identical timestamps the id tiebreaker applies.
	if len(calls) > 1 && calls[0].ID < calls[1].ID {
		t.Errorf("expected newest first, got ids %d, %d", calls[0].ID, calls[1].ID)
	}
}
