package servers

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

// EquipmentServerName identifies the equipment telemetry backend.
const EquipmentServerName = "equipment"

// timestampLayouts accepted by the time-series query, tried in order.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// tagRange bounds the synthetic value generated for a tag type.
type tagRange struct {
	min, max float64
	unit     string
}

// tagRanges maps tag names to their simulated value range and unit.
// Unknown tags fall back to 0–100 "units".
var tagRanges = map[string]tagRange{
	"Temperature": {65.0, 85.0, "°F"},
	"Speed":       {1200.0, 2400.0, "RPM"},
	"Vibration":   {0.1, 1.5, "mm/s"},
	"Load":        {20.0, 80.0, "%"},
	"Force":       {5000.0, 15000.0, "lbs"},
	"CycleCount":  {100.0, 1000.0, "cycles"},
	"Status":      {0.0, 1.0, "boolean"},
}

// equipmentStatuses is a weighted pool: Running is three times more likely
// than Idle or Maintenance.
var equipmentStatuses = []string{"Running", "Running", "Running", "Idle", "Maintenance"}

// EquipmentServer simulates an OPC-UA intelligence hub: real-time tag reads,
// historical time-series queries, and equipment status/health.
type EquipmentServer struct {
	*mcp.Registry
	equipment map[string][]string
	order     []string
}

// NewEquipmentServer constructs the backend and registers its four tools.
func NewEquipmentServer() *EquipmentServer {
	s := &EquipmentServer{
		Registry: mcp.NewRegistry(EquipmentServerName, "Simulated OPC-UA intelligence hub for equipment telemetry"),
		equipment: map[string][]string{
			"CNC-Machine-1": {"Temperature", "Speed", "Vibration", "Status"},
			"CNC-Machine-2": {"Temperature", "Speed", "Vibration", "Status"},
			"CNC-Machine-3": {"Temperature", "Speed", "Vibration", "Status"},
			"Conveyor-A":    {"Speed", "Load", "Status"},
			"Conveyor-B":    {"Speed", "Load", "Status"},
			"Press-1":       {"Force", "Temperature", "CycleCount", "Status"},
		},
		order: []string{
			"CNC-Machine-1", "CNC-Machine-2", "CNC-Machine-3",
			"Conveyor-A", "Conveyor-B", "Press-1",
		},
	}
	s.registerTools()
	return s
}

func (s *EquipmentServer) registerTools() {
	s.Register("equipment_get_realtime_data",
		"Get the current real-time value for an equipment tag",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"equipment_id": {Type: "string", Description: "Equipment identifier (e.g. 'CNC-Machine-1')"},
				"tag_name":     {Type: "string", Description: "Tag name (e.g. 'Temperature', 'Speed')"},
			},
			Required: []string{"equipment_id", "tag_name"},
		}, s.getRealtimeData)

	s.Register("equipment_query_timeseries",
		"Query historical time-series data for a tag between two timestamps",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"equipment_id": {Type: "string"},
				"tag_name":     {Type: "string"},
				"start_time":   {Type: "string", Description: "ISO datetime (e.g. '2024-12-07T10:00:00')"},
				"end_time":     {Type: "string", Description: "ISO datetime"},
				"interval_seconds": {
					Type:        "integer",
					Description: "Data point interval in seconds",
					Default:     rawDefault(60),
				},
			},
			Required: []string{"equipment_id", "tag_name", "start_time", "end_time"},
		}, s.queryTimeseries)

	s.Register("equipment_get_status",
		"Get current status and health of a piece of equipment",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"equipment_id": {Type: "string"},
			},
			Required: []string{"equipment_id"},
		}, s.getStatus)

	s.Register("equipment_list_equipment",
		"List all available equipment and their tags",
		mcp.ObjectSchema(), s.listEquipment)
}

// validateTag checks that both the equipment id and the tag exist.
func (s *EquipmentServer) validateTag(equipmentID, tagName string) error {
	tags, ok := s.equipment[equipmentID]
	if !ok {
		return fmt.Errorf("%w: unknown equipment %q", mcp.ErrValidation, equipmentID)
	}
	for _, t := range tags {
		if t == tagName {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown tag %q for equipment %q", mcp.ErrValidation, tagName, equipmentID)
}

func (s *EquipmentServer) getRealtimeData(_ context.Context, args map[string]any) (any, error) {
	equipmentID, err := stringArg(args, "equipment_id")
	if err != nil {
		return nil, err
	}
	tagName, err := stringArg(args, "tag_name")
	if err != nil {
		return nil, err
	}
	if err := s.validateTag(equipmentID, tagName); err != nil {
		return nil, err
	}

	return map[string]any{
		"equipment_id": equipmentID,
		"tag_name":     tagName,
		"value":        generateTagValue(tagName),
		"timestamp":    time.Now().Format(time.RFC3339),
		"quality":      "Good",
		"unit":         tagUnit(tagName),
	}, nil
}

func (s *EquipmentServer) queryTimeseries(_ context.Context, args map[string]any) (any, error) {
	equipmentID, err := stringArg(args, "equipment_id")
	if err != nil {
		return nil, err
	}
	tagName, err := stringArg(args, "tag_name")
	if err != nil {
		return nil, err
	}
	if err := s.validateTag(equipmentID, tagName); err != nil {
		return nil, err
	}
	startRaw, err := stringArg(args, "start_time")
	if err != nil {
		return nil, err
	}
	endRaw, err := stringArg(args, "end_time")
	if err != nil {
		return nil, err
	}

	start, err := parseTimestamp(startRaw)
	if err != nil {
		return nil, err
	}
	end, err := parseTimestamp(endRaw)
	if err != nil {
		return nil, err
	}

	interval := optionalInt(args, "interval_seconds", 60)
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval_seconds must be positive", mcp.ErrValidation)
	}

	// One point per interval, inclusive of both endpoints.
	var points []map[string]any
	step := time.Duration(interval) * time.Second
	for cur := start; !cur.After(end); cur = cur.Add(step) {
		points = append(points, map[string]any{
			"timestamp": cur.Format("2006-01-02T15:04:05"),
			"value":     generateTagValue(tagName),
			"quality":   "Good",
		})
	}

	return map[string]any{
		"equipment_id":     equipmentID,
		"tag_name":         tagName,
		"start_time":       startRaw,
		"end_time":         endRaw,
		"interval_seconds": interval,
		"data_points":      points,
		"count":            len(points),
	}, nil
}

func (s *EquipmentServer) getStatus(_ context.Context, args map[string]any) (any, error) {
	equipmentID, err := stringArg(args, "equipment_id")
	if err != nil {
		return nil, err
	}
	if _, ok := s.equipment[equipmentID]; !ok {
		return nil, fmt.Errorf("%w: unknown equipment %q", mcp.ErrValidation, equipmentID)
	}

	status := equipmentStatuses[rand.Intn(len(equipmentStatuses))]

	// Health correlates with status: running equipment scores higher.
	var health float64
	if status == "Running" {
		health = randFloat(75, 100)
	} else {
		health = randFloat(50, 90)
	}

	alerts := []string{}
	if status != "Running" {
		alerts = append(alerts, "Minor vibration detected")
	}

	return map[string]any{
		"equipment_id":     equipmentID,
		"status":           status,
		"health_score":     round2(health),
		"uptime_hours":     round2(randFloat(100, 5000)),
		"last_maintenance": time.Now().AddDate(0, 0, -(1 + rand.Intn(60))).Format(time.RFC3339),
		"alerts":           alerts,
		"timestamp":        time.Now().Format(time.RFC3339),
	}, nil
}

func (s *EquipmentServer) listEquipment(_ context.Context, _ map[string]any) (any, error) {
	items := make([]map[string]any, 0, len(s.order))
	for _, id := range s.order {
		tags := s.equipment[id]
		items = append(items, map[string]any{
			"id":        id,
			"tags":      tags,
			"tag_count": len(tags),
		})
	}
	return map[string]any{
		"equipment":       items,
		"total_equipment": len(items),
	}, nil
}

// parseTimestamp tries the accepted layouts and wraps ErrValidation when none
// matches.
func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", mcp.ErrValidation, raw)
}

// generateTagValue produces a synthetic reading inside the tag's range.
func generateTagValue(tagName string) float64 {
	r, ok := tagRanges[tagName]
	if !ok {
		return round2(randFloat(0, 100))
	}
	return round2(randFloat(r.min, r.max))
}

// tagUnit returns the unit string for a tag, "units" when unknown.
func tagUnit(tagName string) string {
	if r, ok := tagRanges[tagName]; ok {
		return r.unit
	}
	return "units"
}

func randFloat(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
