package servers

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

// AnalyticsServerName identifies the production analytics backend.
const AnalyticsServerName = "analytics"

// dateLayout is the YYYY-MM-DD format used by the analytics date arguments.
const dateLayout = "2006-01-02"

var productLines = []string{"Line-A", "Line-B", "Line-C"}

// AnalyticsServer simulates an analytical warehouse: SQL-like query execution
// (keyword-sniffed, no real parsing), production metric aggregation, and
// quality trend analysis.
type AnalyticsServer struct {
	*mcp.Registry
}

// NewAnalyticsServer constructs the backend and registers its three tools.
func NewAnalyticsServer() *AnalyticsServer {
	s := &AnalyticsServer{
		Registry: mcp.NewRegistry(AnalyticsServerName, "Simulated analytics warehouse for production metrics and quality trends"),
	}
	s.registerTools()
	return s
}

func (s *AnalyticsServer) registerTools() {
	s.Register("analytics_execute_query",
		"Execute an analytical SQL query",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"query": {Type: "string", Description: "SQL query to execute"},
				"limit": {Type: "integer", Description: "Maximum number of rows to return", Default: rawDefault(100)},
			},
			Required: []string{"query"},
		}, s.executeQuery)

	s.Register("analytics_get_production_metrics",
		"Get aggregated production metrics for a date range",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"start_date":   {Type: "string", Description: "Start date (YYYY-MM-DD)"},
				"end_date":     {Type: "string", Description: "End date (YYYY-MM-DD)"},
				"product_line": {Type: "string", Description: "Optional product line filter"},
			},
			Required: []string{"start_date", "end_date"},
		}, s.getProductionMetrics)

	s.Register("analytics_analyze_quality_trends",
		"Analyze quality metrics and defect trends over time",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"product_line": {Type: "string", Description: "Product line to analyze"},
				"days":         {Type: "integer", Description: "Number of days to analyze", Default: rawDefault(30)},
			},
			Required: []string{"product_line"},
		}, s.analyzeQualityTrends)
}

// executeQuery sniffs the query text for keywords to decide which synthetic
// row shape to return. There is no real SQL parsing.
func (s *AnalyticsServer) executeQuery(_ context.Context, args map[string]any) (any, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	limit := optionalInt(args, "limit", 100)

	lower := strings.ToLower(query)
	var columns []string
	var rows [][]any
	switch {
	case strings.Contains(lower, "production") || strings.Contains(lower, "output"):
		columns = []string{"date", "product_line", "units_produced", "target_units", "efficiency"}
		rows = generateProductionRows(limit)
	case strings.Contains(lower, "quality") || strings.Contains(lower, "defect"):
		columns = []string{"date", "product_line", "total_units", "defects", "defect_rate"}
		rows = generateQualityRows(limit)
	default:
		columns = []string{"id", "value", "timestamp"}
		for i := 0; i < minInt(limit, 10); i++ {
			rows = append(rows, []any{i, rand.Intn(1001), time.Now().Format(time.RFC3339)})
		}
	}

	display := query
	if len(display) > 100 {
		display = display[:100] + "..."
	}

	return map[string]any{
		"query":             display,
		"columns":           columns,
		"rows":              rows,
		"row_count":         len(rows),
		"execution_time_ms": 50 + rand.Intn(451),
	}, nil
}

func (s *AnalyticsServer) getProductionMetrics(_ context.Context, args map[string]any) (any, error) {
	startRaw, err := stringArg(args, "start_date")
	if err != nil {
		return nil, err
	}
	endRaw, err := stringArg(args, "end_date")
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD: %q", mcp.ErrValidation, startRaw)
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date must be YYYY-MM-DD: %q", mcp.ErrValidation, endRaw)
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return nil, fmt.Errorf("%w: end_date precedes start_date", mcp.ErrValidation)
	}

	lines := productLines
	if filter := optionalString(args, "product_line", ""); filter != "" {
		lines = []string{filter}
	}

	total := 0
	metrics := make([]map[string]any, 0, len(lines))
	for _, pl := range lines {
		units := (10000 + rand.Intn(40001)) * days
		target := units + rand.Intn(10001) - 5000
		efficiency := 0.0
		if target > 0 {
			efficiency = float64(units) / float64(target) * 100
		}
		metrics = append(metrics, map[string]any{
			"product_line":         pl,
			"total_units_produced": units,
			"target_units":         target,
			"efficiency_percent":   round2(efficiency),
			"average_daily_output": round2(float64(units) / float64(days)),
			"downtime_hours":       round2(randFloat(5, 50)),
			"oee":                  round2(randFloat(75, 95)),
		})
		total += units
	}

	return map[string]any{
		"start_date":       startRaw,
		"end_date":         endRaw,
		"days":             days,
		"product_lines":    metrics,
		"total_production": total,
	}, nil
}

// analyzeQualityTrends generates a daily defect-rate series and classifies
// the trend: improving when the trailing-7-day average is below the overall
// average, worsening otherwise.
func (s *AnalyticsServer) analyzeQualityTrends(_ context.Context, args map[string]any) (any, error) {
	productLine, err := stringArg(args, "product_line")
	if err != nil {
		return nil, err
	}
	days := optionalInt(args, "days", 30)
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be at least 1", mcp.ErrValidation)
	}

	baseRate := randFloat(0.5, 2.5)
	current := time.Now().AddDate(0, 0, -days)

	daily := make([]map[string]any, 0, days)
	rates := make([]float64, 0, days)
	totalDefects, totalUnits := 0, 0
	for i := 0; i < days; i++ {
		rate := baseRate + randFloat(-0.5, 0.5)
		if rate < 0.1 {
			rate = 0.1
		}
		units := 800 + rand.Intn(701)
		defects := int(float64(units) * rate / 100)

		daily = append(daily, map[string]any{
			"date":                current.Format(dateLayout),
			"total_units":         units,
			"defects":             defects,
			"defect_rate_percent": round2(rate),
		})
		rates = append(rates, round2(rate))
		totalDefects += defects
		totalUnits += units
		current = current.AddDate(0, 0, 1)
	}

	avg := meanFloat(rates)
	recentWindow := rates
	if len(rates) > 7 {
		recentWindow = rates[len(rates)-7:]
	}
	recentAvg := meanFloat(recentWindow)

	trend := "worsening"
	if recentAvg < avg {
		trend = "improving"
	}

	return map[string]any{
		"product_line":         productLine,
		"analysis_period_days": days,
		"daily_data":           daily,
		"average_defect_rate":  round2(avg),
		"recent_7day_average":  round2(recentAvg),
		"trend":                trend,
		"total_defects":        totalDefects,
		"total_units":          totalUnits,
	}, nil
}

func generateProductionRows(limit int) [][]any {
	var rows [][]any
	now := time.Now()
	for i := 0; i < minInt(limit, 30); i++ {
		units := 800 + rand.Intn(701)
		target := 900 + rand.Intn(501)
		efficiency := round2(float64(units) / float64(target) * 100)
		rows = append(rows, []any{
			now.AddDate(0, 0, -i).Format(dateLayout),
			productLines[rand.Intn(len(productLines))],
			units, target, efficiency,
		})
	}
	return rows
}

func generateQualityRows(limit int) [][]any {
	var rows [][]any
	now := time.Now()
	for i := 0; i < minInt(limit, 30); i++ {
		total := 800 + rand.Intn(701)
		defects := 5 + rand.Intn(26)
		rate := round2(float64(defects) / float64(total) * 100)
		rows = append(rows, []any{
			now.AddDate(0, 0, -i).Format(dateLayout),
			productLines[rand.Intn(len(productLines))],
			total, defects, rate,
		})
	}
	return rows
}

func meanFloat(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
