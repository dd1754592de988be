package servers

import (
	"context"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

func invokeOK(t *testing.T, b mcp.Backend, tool string, args map[string]any) map[string]any {
	t.Helper()
	res, err := b.CallTool(context.Background(), tool, args)
	if err != nil {
		t.Fatalf("CallTool(%s) returned error: %v", tool, err)
	}
	if !res.Success {
		t.Fatalf("CallTool(%s) failed: %s (%s)", tool, res.Error, res.ErrorKind)
	}
	data, ok := res.Data.(map[string]any)
	if !ok {
		t.Fatalf("CallTool(%s) data is %T, expected map", tool, res.Data)
	}
	return data
}

func invokeValidationFailure(t *testing.T, b mcp.Backend, tool string, args map[string]any) *mcp.Result {
	t.Helper()
	res, err := b.CallTool(context.Background(), tool, args)
	if err != nil {
		t.Fatalf("CallTool(%s) returned error: %v", tool, err)
	}
	if res.Success {
		t.Fatalf("CallTool(%s) unexpectedly succeeded", tool)
	}
	if res.ErrorKind != mcp.ErrorKindValidation {
		t.Fatalf("CallTool(%s) error kind = %q, expected validation", tool, res.ErrorKind)
	}
	return res
}

func TestEquipmentServer_ListsFourTools(t *testing.T) {
	t.Parallel()

	s := NewEquipmentServer()
	defs := s.ListTools()
	if len(defs) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(defs))
	}
	if defs[0].Name != "equipment_get_realtime_data" {
		t.Fatalf("unexpected first tool: %q", defs[0].Name)
	}
	if s.Info().ProtocolVersion != mcp.ProtocolVersion {
		t.Fatalf("unexpected protocol version")
	}
}

func TestEquipmentServer_RealtimeTemperatureWithinRange(t *testing.T) {
	t.Parallel()

	s := NewEquipmentServer()
	// Not seeded: assert the range, not a literal value.
	for i := 0; i < 25; i++ {
		data := invokeOK(t, s, "equipment_get_realtime_data", map[string]any{
			"equipment_id": "CNC-Machine-1",
			"tag_name":     "Temperature",
		})
		value, ok := data["value"].(float64)
		if !ok {
			t.Fatalf("value is %T, expected float64", data["value"])
		}
		if value < 65.0 || value > 85.0 {
			t.Fatalf("temperature %v outside [65, 85]", value)
		}
		if data["unit"] != "°F" {
			t.Fatalf("unexpected unit: %v", data["unit"])
		}
		if data["quality"] != "Good" {
			t.Fatalf("unexpected quality: %v", data["quality"])
		}
	}
}

func TestEquipmentServer_RealtimeUnknownEquipmentFails(t *testing.T) {
	t.Parallel()

	s := NewEquipmentServer()
	res := invokeValidationFailure(t, s, "equipment_get_realtime_data", map[string]any{
		"equipment_id": "Lathe-9",
		"tag_name":     "Temperature",
	})
	if want := "unknown equipment"; !contains(res.Error, want) {
		t.Fatalf("error %q should contain %q", res.Error, want)
	}
}

func TestEquipmentServer_RealtimeUnknownTagFails(t *testing.T) {
	t.Parallel()

	s := NewEquipmentServer()
	res := invokeValidationFailure(t, s, "equipment_get_realtime_data", map[string]any{
		"equipment_id": "Conveyor-A",
		"tag_name":     "Temperature", // conveyors have no Temperature tag
	})
	if want := "unknown tag"; !contains(res.Error, want) {
		t.Fatalf("error %q should contain %q", res.Error, want)
	}
}

func TestEquipmentServer_TimeseriesInclusiveOfEndpoints(t *testing.T) {
	t.Parallel()

	s := NewEquipmentServer()
	data := invokeOK(t, s, "equipment_query_timeseries", map[string]any{
		"equipment_id":     "CNC-Machine-1",
		"tag_name":         "Temperature",
		"start_time":       "2024-01-01T00:00:00",
		"end_time":         "2024-01-01T00:05:00",
		"interval_seconds": 60,
	})
	// 00:00 .. 00:05 at 60s steps = 6 points, both endpoints included.
	if got := data["count"]; got != 6 {
		t.Fatalf("expected 6 data points, got %v", got)
	}
	points, ok := data["data_points"].([]map[string]any)
	if !ok {
		t.Fatalf("data_points is %T", data["data_points"])
	}
	if points[0]["timestamp"] != "2024-01-01T00:00:00" {
		t.Fatalf("unexpected first timestamp: %v", points[0]["timestamp"])
	}
	if points[5]["timestamp"] != "2024-01-01T00:05:00" {
		t.Fatalf("unexpected last timestamp: %v", points[5]["timestamp"])
	}
}

func TestEquipmentServer_TimeseriesUnparseableTimestampFails(t *testing.T) {
	t.Parallel()

	s := NewEquipmentServer()
	invokeValidationFailure(t, s, "equipment_query_timeseries", map[string]any{
		"equipment_id": "CNC-Machine-1",
		"tag_name":     "Temperature",
		"start_time":   "yesterday",
		"end_time":     "2024-01-01T00:05:00",
	})
}

func TestEquipmentServer_StatusShape(t *testing.T) {
	t.Parallel()

	s := NewEquipmentServer()
	validStatuses := map[string]bool{"Running": true, "Idle": true, "Maintenance": true}
	for i := 0; i < 20; i++ {
		data := invokeOK(t, s, "equipment_get_status", map[string]any{
			"equipment_id": "Press-1",
		})
		status, _ := data["status"].(string)
		if !validStatuses[status] {
			t.Fatalf("unexpected status: %q", status)
		}
		health, _ := data["health_score"].(float64)
		if health < 50 || health > 100 {
			t.Fatalf("health score %v outside [50, 100]", health)
		}
		if status == "Running" && health < 75 {
			t.Fatalf("running equipment should score >= 75, got %v", health)
		}
	}
}

func TestEquipmentServer_ListEquipment(t *testing.T) {
	t.Parallel()

	s := NewEquipmentServer()
	data := invokeOK(t, s, "equipment_list_equipment", nil)
	if data["total_equipment"] != 6 {
		t.Fatalf("expected 6 equipment entries, got %v", data["total_equipment"])
	}
	items, ok := data["equipment"].([]map[string]any)
	if !ok || len(items) != 6 {
		t.Fatalf("unexpected equipment list: %T", data["equipment"])
	}
	if items[0]["id"] != "CNC-Machine-1" {
		t.Fatalf("unexpected first equipment: %v", items[0]["id"])
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
