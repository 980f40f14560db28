// internal/pipeline/schemas.go
package pipeline

import "cx-agent-builder/internal/common/validation"

// Stage replies are checked against these schemas before they are decoded.
// They only require what later stages cannot default.

var briefSchema = validation.NewSchema("analysis-brief", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"domain", "tasks"},
	"properties": map[string]interface{}{
		"domain": map[string]interface{}{"type": "string"},
		"tasks": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"task_name"},
				"properties": map[string]interface{}{
					"task_name":       map[string]interface{}{"type": "string", "minLength": 1},
					"data_to_collect": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"requires_api":    map[string]interface{}{"type": "boolean"},
				},
			},
		},
		"functions_needed": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name"},
			},
		},
	},
})

var nodeTypes = []interface{}{
	"greeting", "collect_info", "api_call", "decision", "response",
	"confirm", "fallback", "transfer", "end",
}

var draftSchema = validation.NewSchema("agent-draft", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"persona", "conversation_flow"},
	"properties": map[string]interface{}{
		"persona": map[string]interface{}{"type": "object"},
		"voice":   map[string]interface{}{"type": "object"},
		"intents": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name"},
				"properties": map[string]interface{}{
					"name": map[string]interface{}{"type": "string", "minLength": 1},
				},
			},
		},
		"conversation_flow": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"nodes"},
			"properties": map[string]interface{}{
				"nodes": map[string]interface{}{
					"type":     "array",
					"minItems": 1,
					"items": map[string]interface{}{
						"type":     "object",
						"required": []interface{}{"node_id", "type"},
						"properties": map[string]interface{}{
							"node_id": map[string]interface{}{"type": "string", "minLength": 1},
							"type":    map[string]interface{}{"type": "string", "enum": nodeTypes},
							"transitions": map[string]interface{}{
								"type": "array",
								"items": map[string]interface{}{
									"type":     "object",
									"required": []interface{}{"condition", "target_node_id"},
								},
							},
						},
					},
				},
			},
		},
	},
})

var catalogueSchema = validation.NewSchema("function-catalogue", map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"functions"},
	"properties": map[string]interface{}{
		"functions": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name"},
				"properties": map[string]interface{}{
					"name":       map[string]interface{}{"type": "string", "minLength": 1},
					"parameters": map[string]interface{}{"type": "array"},
				},
			},
		},
	},
})
