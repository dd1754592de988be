package servers

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

// TransactionalServerName identifies the work-order/inventory backend.
const TransactionalServerName = "transactional"

// ticketIDBase seeds the monotonically increasing maintenance ticket counter.
const ticketIDBase = 1000

// maxWorkOrderRecords caps the synthetic work-order generator. The cap holds
// regardless of a larger requested limit; callers asking for more still get
// at most this many records.
const maxWorkOrderRecords = 20

var (
	workOrderStatuses   = []string{"open", "in_progress", "completed"}
	workOrderPriorities = []string{"low", "medium", "high", "critical"}
	technicians         = []string{"Tech-A", "Tech-B", "Tech-C"}
)

// inventoryPart is one entry of the fixed parts catalog.
type inventoryPart struct {
	partNumber string
	reorderQty int
	minQty     int
}

var partsCatalog = []inventoryPart{
	{"Bearing-6205", 50, 20},
	{"Belt-V-100", 30, 10},
	{"Filter-Air-Standard", 100, 25},
	{"Lubricant-5W30", 200, 50},
	{"Seal-O-Ring-25mm", 500, 100},
	{"Sensor-Temp-K-Type", 40, 15},
}

// TransactionalServer simulates a transactional plant database: work orders,
// inventory levels, and maintenance tickets. Tickets are the only mutable
// state; they live in an append-only in-memory list behind a mutex.
type TransactionalServer struct {
	*mcp.Registry

	mu           sync.Mutex
	tickets      []map[string]any
	nextTicketID int
}

// NewTransactionalServer constructs the backend and registers its four tools.
func NewTransactionalServer() *TransactionalServer {
	s := &TransactionalServer{
		Registry:     mcp.NewRegistry(TransactionalServerName, "Simulated transactional database for work orders, inventory and maintenance"),
		nextTicketID: ticketIDBase,
	}
	s.registerTools()
	return s
}

func (s *TransactionalServer) registerTools() {
	s.Register("txn_query_work_orders",
		"Query work orders with optional status and priority filters",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"status":   {Type: "string", Description: "Filter by status (open, in_progress, completed, all)", Default: rawDefault("all")},
				"priority": {Type: "string", Description: "Filter by priority (low, medium, high, critical)"},
				"limit":    {Type: "integer", Description: "Maximum number of results", Default: rawDefault(50)},
			},
		}, s.queryWorkOrders)

	s.Register("txn_get_inventory_levels",
		"Get current inventory levels for parts and materials",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"location":       {Type: "string", Description: "Warehouse location"},
				"low_stock_only": {Type: "boolean", Description: "Only return items with low stock", Default: rawDefault(false)},
			},
		}, s.getInventoryLevels)

	s.Register("txn_create_maintenance_ticket",
		"Create a new maintenance ticket for equipment",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"equipment_id": {Type: "string", Description: "Equipment identifier"},
				"description":  {Type: "string", Description: "Issue description"},
				"priority":     {Type: "string", Description: "Priority level (low, medium, high, critical)", Default: rawDefault("medium")},
			},
			Required: []string{"equipment_id", "description"},
		}, s.createMaintenanceTicket)

	s.Register("txn_get_maintenance_history",
		"Get maintenance history for a piece of equipment",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"equipment_id": {Type: "string", Description: "Equipment identifier"},
				"days":         {Type: "integer", Description: "Number of days to look back", Default: rawDefault(90)},
			},
			Required: []string{"equipment_id"},
		}, s.getMaintenanceHistory)
}

func (s *TransactionalServer) queryWorkOrders(_ context.Context, args map[string]any) (any, error) {
	status := optionalString(args, "status", "all")
	priority := optionalString(args, "priority", "")
	limit := optionalInt(args, "limit", 50)
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", mcp.ErrValidation)
	}

	equipment := []string{"CNC-Machine-1", "CNC-Machine-2", "Press-1", "Conveyor-A"}
	descriptions := []string{
		"Routine maintenance", "Tool replacement", "Calibration check",
		"Software update", "Belt replacement",
	}

	var workOrders []map[string]any
	for i := 0; i < minInt(limit, maxWorkOrderRecords); i++ {
		woStatus := workOrderStatuses[rand.Intn(len(workOrderStatuses))]
		woPriority := workOrderPriorities[rand.Intn(len(workOrderPriorities))]

		// Filters are plain equality; filtered-out candidates are skipped,
		// not replaced, so filters reduce the record count.
		if status != "all" && woStatus != status {
			continue
		}
		if priority != "" && woPriority != priority {
			continue
		}

		var assignee any
		if idx := rand.Intn(len(technicians) + 1); idx < len(technicians) {
			assignee = technicians[idx]
		}

		workOrders = append(workOrders, map[string]any{
			"id":              fmt.Sprintf("WO-%d", 10000+i),
			"equipment_id":    equipment[rand.Intn(len(equipment))],
			"description":     descriptions[rand.Intn(len(descriptions))],
			"status":          woStatus,
			"priority":        woPriority,
			"created_date":    time.Now().AddDate(0, 0, -(1 + rand.Intn(30))).Format(dateLayout),
			"assigned_to":     assignee,
			"estimated_hours": 1 + rand.Intn(8),
		})
	}

	return map[string]any{
		"work_orders": workOrders,
		"count":       len(workOrders),
		"filters": map[string]any{
			"status":   status,
			"priority": priority,
		},
	}, nil
}

func (s *TransactionalServer) getInventoryLevels(_ context.Context, args map[string]any) (any, error) {
	locations := []string{"Warehouse-A", "Warehouse-B"}
	if loc := optionalString(args, "location", ""); loc != "" {
		locations = []string{loc}
	}
	lowStockOnly := optionalBool(args, "low_stock_only", false)

	var items []map[string]any
	lowStockCount := 0
	for _, loc := range locations {
		for _, part := range partsCatalog {
			onHand := rand.Intn(part.reorderQty*2 + 1)
			isLow := onHand <= part.minQty
			if lowStockOnly && !isLow {
				continue
			}
			if isLow {
				lowStockCount++
			}
			items = append(items, map[string]any{
				"part_number":      part.partNumber,
				"location":         loc,
				"quantity_on_hand": onHand,
				"minimum_quantity": part.minQty,
				"reorder_quantity": part.reorderQty,
				"low_stock":        isLow,
				"unit_cost":        round2(randFloat(5.0, 500.0)),
				"last_updated":     time.Now().Format("2006-01-02 15:04:05"),
			})
		}
	}

	return map[string]any{
		"inventory_items": items,
		"count":           len(items),
		"low_stock_count": lowStockCount,
		"locations":       locations,
	}, nil
}

func (s *TransactionalServer) createMaintenanceTicket(_ context.Context, args map[string]any) (any, error) {
	equipmentID, err := stringArg(args, "equipment_id")
	if err != nil {
		return nil, err
	}
	description, err := stringArg(args, "description")
	if err != nil {
		return nil, err
	}
	priority := optionalString(args, "priority", "medium")

	s.mu.Lock()
	ticketID := fmt.Sprintf("MT-%d", s.nextTicketID)
	s.nextTicketID++

	now := time.Now()
	ticket := map[string]any{
		"ticket_id":            ticketID,
		"equipment_id":         equipmentID,
		"description":          description,
		"priority":             priority,
		"status":               "open",
		"created_date":         now.Format(time.RFC3339),
		"created_by":           "system",
		"assigned_to":          nil,
		"estimated_resolution": now.Add(24 * time.Hour).Format(time.RFC3339),
	}
	s.tickets = append(s.tickets, ticket)
	s.mu.Unlock()

	return map[string]any{
		"ticket":  ticket,
		"message": fmt.Sprintf("Maintenance ticket %s created successfully", ticketID),
	}, nil
}

func (s *TransactionalServer) getMaintenanceHistory(_ context.Context, args map[string]any) (any, error) {
	equipmentID, err := stringArg(args, "equipment_id")
	if err != nil {
		return nil, err
	}
	days := optionalInt(args, "days", 90)
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be at least 1", mcp.ErrValidation)
	}

	maintenanceTypes := []string{
		"Preventive Maintenance", "Corrective Maintenance",
		"Inspection", "Repair", "Calibration",
	}
	descriptions := []string{
		"Routine lubrication", "Replaced worn bearings", "Calibrated sensors",
		"Software update", "Belt tension adjustment",
	}

	events := 3 + rand.Intn(8)
	history := make([]map[string]any, 0, events)
	totalCost := 0.0
	totalHours := 0
	for i := 0; i < events; i++ {
		hours := 1 + rand.Intn(6)
		cost := round2(randFloat(50, 500))
		history = append(history, map[string]any{
			"ticket_id":    fmt.Sprintf("MT-%d", 1000+rand.Intn(9000)),
			"equipment_id": equipmentID,
			"date":         time.Now().AddDate(0, 0, -(1 + rand.Intn(days))).Format(dateLayout),
			"type":         maintenanceTypes[rand.Intn(len(maintenanceTypes))],
			"description":  descriptions[rand.Intn(len(descriptions))],
			"technician":   technicians[rand.Intn(len(technicians))],
			"hours_spent":  hours,
			"parts_used":   rand.Intn(6),
			"cost":         cost,
		})
		totalCost += cost
		totalHours += hours
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i]["date"].(string) > history[j]["date"].(string)
	})

	return map[string]any{
		"equipment_id":           equipmentID,
		"history":                history,
		"count":                  len(history),
		"date_range_days":        days,
		"total_maintenance_cost": round2(totalCost),
		"total_hours":            totalHours,
	}, nil
}
