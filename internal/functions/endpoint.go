// internal/functions/endpoint.go
package functions

import (
	"net/http"
	"strings"

	"cx-agent-builder/internal/models"
)

const (
	EndpointPrefix        = "/api/v1/"
	DefaultAuthType       = "bearer"
	DefaultTimeoutSeconds = 10
)

type methodRule struct {
	method   string
	keywords []string
}

// Checked against the function name, in order.
var nameMethodRules = []methodRule{
	{http.MethodGet, []string{"get", "fetch", "list", "check", "search", "find", "lookup"}},
	{http.MethodPost, []string{"create", "book", "schedule", "submit", "register"}},
	{http.MethodPut, []string{"update", "modify", "change"}},
	{http.MethodDelete, []string{"delete", "cancel", "remove"}},
}

var purposeReadKeywords = []string{"retrieve", "query", "look up"}

var pathVerbs = map[string]bool{
	"get": true, "fetch": true, "create": true, "book": true, "update": true, "delete": true,
	"check": true, "list": true, "search": true, "submit": true, "cancel": true,
}

// InferMethod picks the HTTP method for a function from its name, then its
// purpose, defaulting to POST.
func InferMethod(name, purpose string) string {
	lowerName := strings.ToLower(name)
	for _, rule := range nameMethodRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowerName, kw) {
				return rule.method
			}
		}
	}

	lowerPurpose := strings.ToLower(purpose)
	for _, kw := range purposeReadKeywords {
		if strings.Contains(lowerPurpose, kw) {
			return http.MethodGet
		}
	}
	return http.MethodPost
}

// EndpointPath derives the resource path from a function name: verb tokens
// are dropped and the rest joined with "/". GET endpoints get a path template
// for the first parameter whose name contains "id".
func EndpointPath(name, method string, params []models.FunctionParameter) string {
	parts := strings.Split(name, "_")
	resource := make([]string, 0, len(parts))
	for _, p := range parts {
		if !pathVerbs[strings.ToLower(p)] {
			resource = append(resource, p)
		}
	}
	if len(resource) == 0 {
		if len(parts) > 1 {
			resource = parts[1:]
		} else {
			resource = parts
		}
	}

	path := strings.Join(resource, "/")
	if method == http.MethodGet {
		for _, p := range params {
			if strings.Contains(strings.ToLower(p.Name), "id") {
				path += "/{" + p.Name + "}"
				break
			}
		}
	}
	return path
}

// BuildEndpoint returns the mock REST endpoint for a function.
func BuildEndpoint(name, method string, params []models.FunctionParameter) *models.APIEndpoint {
	return &models.APIEndpoint{
		URL:            EndpointPrefix + EndpointPath(name, method, params),
		Method:         method,
		Headers:        map[string]string{"Content-Type": "application/json"},
		AuthType:       DefaultAuthType,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}
