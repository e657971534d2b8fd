package report

import (
	"context"
	"testing"

	"github.com/nexusdash/analyst-service/internal/model"
)

func TestMockSource_TechArchetype(t *testing.T) {
	src := NewInstantMockSource()

	for _, query := range []string{"宁德时代", "某某科技", "Apple", "特斯拉", "TSLA"} {
		rpt := src.Report(context.Background(), query)
		if rpt.Ticker != "300750.SZ" {
			t.Errorf("query %q: expected tech archetype 300750.SZ, got %s", query, rpt.Ticker)
		}
		if rpt.Rating != model.RatingBuy {
			t.Errorf("query %q: expected BUY, got %s", query, rpt.Rating)
		}
	}
}

func TestMockSource_ConstructionArchetypeDefault(t *testing.T) {
	src := NewInstantMockSource()

	for _, query := range []string{"陕西建工", "中国建筑", "随便什么公司", "apple"} {
		rpt := src.Report(context.Background(), query)
		if rpt.Ticker != "600248.SH" {
			t.Errorf("query %q: expected construction archetype 600248.SH, got %s", query, rpt.Ticker)
		}
		if rpt.Rating != model.RatingHold {
			t.Errorf("query %q: expected HOLD, got %s", query, rpt.Rating)
		}
	}
}

func TestMockSource_Deterministic(t *testing.T) {
	src := NewInstantMockSource()

	a := src.Report(context.Background(), "陕西建工")
	b := src.Report(context.Background(), "陕西建工")
	if a.Title != b.Title || a.RatingScore != b.RatingScore {
		t.Error("same query must produce the same report")
	}
}

func TestMockSource_AlwaysFlaggedMock(t *testing.T) {
	src := NewInstantMockSource()

	for _, query := range []string{"宁德时代", "陕西建工"} {
		rpt := src.Report(context.Background(), query)
		if !rpt.IsMock {
			t.Errorf("query %q: fallback report must set isMock", query)
		}
		if len(rpt.Sources) == 0 {
			t.Errorf("query %q: fallback report should carry sources", query)
		}
	}
}

func TestMockSource_CancelledContextSkipsDelay(t *testing.T) {
	src := NewMockSource()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Must return promptly and still produce a full report.
	rpt := src.Report(ctx, "陕西建工")
	if rpt == nil || rpt.Ticker != "600248.SH" {
		t.Fatalf("expected full report despite cancelled context, got %+v", rpt)
	}
}

func TestMockSource_PopulatedFields(t *testing.T) {
	rpt := NewInstantMockSource().Report(context.Background(), "宁德时代")

	if rpt.Summary == "" || rpt.Reasoning == "" {
		t.Error("summary and reasoning must be populated")
	}
	if len(rpt.Swot.Strengths) == 0 || len(rpt.Swot.Threats) == 0 {
		t.Error("swot lists must be populated")
	}
	if len(rpt.Competitors) < 2 {
		t.Errorf("expected at least 2 competitors, got %d", len(rpt.Competitors))
	}
	if len(rpt.ChartData) == 0 || len(rpt.KeyMetrics) == 0 {
		t.Error("chart data and key metrics must be populated")
	}
}
