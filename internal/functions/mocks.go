// internal/functions/mocks.go
package functions

import (
	"fmt"
	"strings"

	"cx-agent-builder/internal/analysis"
)

type mockTemplate struct {
	match string
	build func() map[string]interface{}
}

// First template whose match is a substring of the function name wins.
var mockTemplates = []mockTemplate{
	{"appointment", func() map[string]interface{} {
		slot := func(t string) map[string]interface{} {
			return map[string]interface{}{"date": "2026-02-24", "time": t, "available": true}
		}
		return mockEnvelope(map[string]interface{}{
			"available_slots": []interface{}{slot("09:00 AM"), slot("10:30 AM"), slot("02:00 PM")},
			"timezone":        "America/New_York",
		}, "Available slots retrieved successfully")
	}},
	{"book", func() map[string]interface{} {
		return mockEnvelope(map[string]interface{}{
			"booking_id":        "BK-20260224-001",
			"status":            "confirmed",
			"confirmation_code": "CONF-7829",
			"date":              "2026-02-24",
			"time":              "10:30 AM",
		}, "Appointment booked successfully")
	}},
	{"order", func() map[string]interface{} {
		return mockEnvelope(map[string]interface{}{
			"order_id":           "ORD-2026-4521",
			"status":             "shipped",
			"tracking_number":    "1Z999AA10123456784",
			"estimated_delivery": "2026-02-26",
			"items": []interface{}{
				map[string]interface{}{"name": "Product A", "quantity": 1, "price": 29.99},
			},
		}, "Order details retrieved successfully")
	}},
	{"account", func() map[string]interface{} {
		return mockEnvelope(map[string]interface{}{
			"account_id":    "ACC-78291",
			"name":          "John Smith",
			"status":        "active",
			"balance":       1250.00,
			"last_activity": "2026-02-23",
		}, "Account information retrieved successfully")
	}},
	{"cancel", func() map[string]interface{} {
		return mockEnvelope(map[string]interface{}{
			"cancellation_id": "CAN-20260224-003",
			"status":          "cancelled",
			"refund_amount":   29.99,
			"refund_eta":      "3-5 business days",
		}, "Cancellation processed successfully")
	}},
	{"transfer", func() map[string]interface{} {
		return mockEnvelope(map[string]interface{}{
			"transfer_id":    "TRF-001",
			"department":     "Customer Support",
			"estimated_wait": "2 minutes",
			"queue_position": 3,
		}, "Transfer initiated")
	}},
	{"verify", func() map[string]interface{} {
		return mockEnvelope(map[string]interface{}{
			"verified":    true,
			"customer_id": "CUST-45678",
			"name":        "John Smith",
		}, "Customer verified successfully")
	}},
}

// MockResponse returns a fresh sample response body for a function.
func MockResponse(name string) map[string]interface{} {
	lower := strings.ToLower(name)
	for _, tmpl := range mockTemplates {
		if strings.Contains(lower, tmpl.match) {
			return tmpl.build()
		}
	}
	return mockEnvelope(map[string]interface{}{
		"result":    fmt.Sprintf("Operation '%s' completed successfully", name),
		"id":        "RES-20260224-001",
		"timestamp": "2026-02-24T10:30:00Z",
	}, analysis.TitleCase(analysis.Readable(name))+" completed successfully")
}

func mockEnvelope(data map[string]interface{}, message string) map[string]interface{} {
	return map[string]interface{}{
		"success": true,
		"data":    data,
		"message": message,
	}
}
