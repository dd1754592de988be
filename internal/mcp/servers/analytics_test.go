package servers

import (
	"strings"
	"testing"
)

func TestAnalyticsServer_ListsThreeTools(t *testing.T) {
	t.Parallel()

	s := NewAnalyticsServer()
	defs := s.ListTools()
	if len(defs) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(defs))
	}
	want := []string{
		"analytics_execute_query",
		"analytics_get_production_metrics",
		"analytics_analyze_quality_trends",
	}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Fatalf("tool %d: expected %q, got %q", i, want[i], d.Name)
		}
	}
}

func TestAnalyticsServer_ExecuteQueryKeywordShapes(t *testing.T) {
	t.Parallel()

	s := NewAnalyticsServer()
	cases := []struct {
		name      string
		query     string
		wantFirst string
		wantCols  int
	}{
		{"production shape", "SELECT * FROM production_summary", "date", 5},
		{"quality shape", "SELECT defect_rate FROM quality", "date", 5},
		{"generic shape", "SELECT 1", "id", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data := invokeOK(t, s, "analytics_execute_query", map[string]any{"query": tc.query})
			columns, ok := data["columns"].([]string)
			if !ok {
				t.Fatalf("columns is %T", data["columns"])
			}
			if len(columns) != tc.wantCols || columns[0] != tc.wantFirst {
				t.Fatalf("unexpected columns: %v", columns)
			}
			rows, ok := data["rows"].([][]any)
			if !ok {
				t.Fatalf("rows is %T", data["rows"])
			}
			if data["row_count"] != len(rows) {
				t.Fatalf("row_count %v disagrees with rows %d", data["row_count"], len(rows))
			}
			for _, row := range rows {
				if len(row) != tc.wantCols {
					t.Fatalf("row width %d, expected %d", len(row), tc.wantCols)
				}
			}
		})
	}
}

func TestAnalyticsServer_ExecuteQueryTruncatesLongQueryEcho(t *testing.T) {
	t.Parallel()

	s := NewAnalyticsServer()
	long := strings.Repeat("SELECT production ", 20)
	data := invokeOK(t, s, "analytics_execute_query", map[string]any{"query": long})
	echoed, _ := data["query"].(string)
	if len(echoed) != 103 { // 100 chars + "..."
		t.Fatalf("expected truncated echo of 103 chars, got %d", len(echoed))
	}
}

func TestAnalyticsServer_ProductionMetricsDaysAndTotals(t *testing.T) {
	t.Parallel()

	s := NewAnalyticsServer()
	data := invokeOK(t, s, "analytics_get_production_metrics", map[string]any{
		"start_date": "2024-03-01",
		"end_date":   "2024-03-07",
	})
	if data["days"] != 7 {
		t.Fatalf("expected 7 days, got %v", data["days"])
	}
	metrics, ok := data["product_lines"].([]map[string]any)
	if !ok || len(metrics) != 3 {
		t.Fatalf("expected 3 product lines, got %T / %v", data["product_lines"], data["product_lines"])
	}
	sum := 0
	for _, m := range metrics {
		units, _ := m["total_units_produced"].(int)
		if units <= 0 {
			t.Fatalf("non-positive units for %v", m["product_line"])
		}
		sum += units
	}
	if data["total_production"] != sum {
		t.Fatalf("total_production %v != sum of lines %d", data["total_production"], sum)
	}
}

func TestAnalyticsServer_ProductionMetricsSingleLineFilter(t *testing.T) {
	t.Parallel()

	s := NewAnalyticsServer()
	data := invokeOK(t, s, "analytics_get_production_metrics", map[string]any{
		"start_date":   "2024-03-01",
		"end_date":     "2024-03-01",
		"product_line": "Line-B",
	})
	metrics := data["product_lines"].([]map[string]any)
	if len(metrics) != 1 || metrics[0]["product_line"] != "Line-B" {
		t.Fatalf("expected only Line-B, got %v", metrics)
	}
}

func TestAnalyticsServer_ProductionMetricsBadDateFails(t *testing.T) {
	t.Parallel()

	s := NewAnalyticsServer()
	invokeValidationFailure(t, s, "analytics_get_production_metrics", map[string]any{
		"start_date": "03/01/2024",
		"end_date":   "2024-03-07",
	})
}

func TestAnalyticsServer_QualityTrendClassification(t *testing.T) {
	t.Parallel()

	s := NewAnalyticsServer()
	data := invokeOK(t, s, "analytics_analyze_quality_trends", map[string]any{
		"product_line": "Line-A",
		"days":         30,
	})
	daily, ok := data["daily_data"].([]map[string]any)
	if !ok || len(daily) != 30 {
		t.Fatalf("expected 30 daily entries, got %T / %d", data["daily_data"], len(daily))
	}

	trend, _ := data["trend"].(string)
	if trend != "improving" && trend != "worsening" {
		t.Fatalf("unexpected trend: %q", trend)
	}

	avg, _ := data["average_defect_rate"].(float64)
	recent, _ := data["recent_7day_average"].(float64)
	if recent < avg && trend != "improving" {
		t.Fatalf("recent avg %v < overall %v but trend is %q", recent, avg, trend)
	}
	if recent >= avg && trend != "worsening" {
		t.Fatalf("recent avg %v >= overall %v but trend is %q", recent, avg, trend)
	}

	for _, d := range daily {
		rate, _ := d["defect_rate_percent"].(float64)
		if rate < 0.1 {
			t.Fatalf("defect rate %v below floor 0.1", rate)
		}
	}
}
