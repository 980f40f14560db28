// internal/search/indexer.go
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/models"

	"github.com/bytedance/sonic"
	"github.com/elastic/go-elasticsearch/v8"
)

const DefaultIndex = "cx-agents"

var (
	ErrIndexFailed       = errors.New("INDEX_FAILED")
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

var indexMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"agent_id":        map[string]interface{}{"type": "keyword"},
			"name":            map[string]interface{}{"type": "text"},
			"role":            map[string]interface{}{"type": "text"},
			"domain":          map[string]interface{}{"type": "keyword"},
			"language":        map[string]interface{}{"type": "keyword"},
			"platform":        map[string]interface{}{"type": "keyword"},
			"generation_mode": map[string]interface{}{"type": "keyword"},
			"status":          map[string]interface{}{"type": "keyword"},
			"intents":         map[string]interface{}{"type": "text"},
			"functions":       map[string]interface{}{"type": "text"},
			"created_at":      map[string]interface{}{"type": "date"},
		},
	},
}

// AgentDocument is the searchable projection of a generated configuration.
type AgentDocument struct {
	AgentID        string   `json:"agent_id"`
	Name           string   `json:"name"`
	Role           string   `json:"role"`
	Domain         string   `json:"domain"`
	Language       string   `json:"language"`
	Platform       string   `json:"platform"`
	GenerationMode string   `json:"generation_mode"`
	Status         string   `json:"status"`
	Intents        []string `json:"intents"`
	Functions      []string `json:"functions"`
	CreatedAt      string   `json:"created_at"`
}

// NewDocument projects cfg into an AgentDocument.
func NewDocument(cfg *models.CXAgentConfig) AgentDocument {
	doc := AgentDocument{
		AgentID:   cfg.AgentID,
		Name:      cfg.Persona.Name,
		Role:      cfg.Persona.Role,
		Language:  cfg.Voice.Language,
		Platform:  cfg.Deployment.Platform,
		Status:    string(cfg.Status),
		CreatedAt: cfg.CreatedAt,
		Intents:   make([]string, 0, len(cfg.Intents)),
		Functions: make([]string, 0, len(cfg.Functions)),
	}
	if v, ok := cfg.Metadata["source_prompt"].(string); ok {
		doc.Domain = v
	}
	if v, ok := cfg.Metadata["generation_mode"].(string); ok {
		doc.GenerationMode = v
	}
	for _, in := range cfg.Intents {
		doc.Intents = append(doc.Intents, in.Name)
	}
	for _, fn := range cfg.Functions {
		doc.Functions = append(doc.Functions, fn.Name)
	}
	return doc
}

// Indexer writes agent documents to Elasticsearch and runs keyword searches
// over them.
type Indexer struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(es *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{
		es:     es,
		index:  index,
		logger: logger.ForComponent(log, "search"),
	}
}

func (i *Indexer) IndexName() string { return i.index }

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.index}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return classify(ctx, ErrIndexFailed, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: index check returned %s", ErrIndexFailed, res.Status())
	}

	body, err := sonic.Marshal(indexMapping)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}

	res, err = i.es.Indices.Create(
		i.index,
		i.es.Indices.Create.WithBody(bytes.NewReader(body)),
		i.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return classify(ctx, ErrIndexFailed, err)
	}
	defer res.Body.Close()

	// Another replica may have created it between the two calls.
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("%w: create index returned %s", ErrIndexFailed, res.Status())
	}

	i.logger.Info("search index ready", map[string]interface{}{"index": i.index})
	return nil
}

// Index stores cfg under its agent id, replacing any earlier document.
func (i *Indexer) Index(ctx context.Context, cfg *models.CXAgentConfig) error {
	if cfg == nil || cfg.AgentID == "" {
		return fmt.Errorf("%w: agent id is required", ErrIndexFailed)
	}

	body, err := sonic.Marshal(NewDocument(cfg))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}

	res, err := i.es.Index(
		i.index,
		bytes.NewReader(body),
		i.es.Index.WithDocumentID(cfg.AgentID),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return classify(ctx, ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.Status())
	}

	i.logger.Debug("agent indexed", map[string]interface{}{"agentId": cfg.AgentID})
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64       `json:"_score"`
			Source AgentDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchResult is one page of matching agents.
type SearchResult struct {
	Total  int             `json:"total"`
	Agents []AgentDocument `json:"agents"`
}

// Search runs a keyword query across name, role, domain, intents and
// functions. An empty query matches every agent.
func (i *Indexer) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	body, err := sonic.Marshal(buildQuery(query))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(bytes.NewReader(body)),
		i.es.Search.WithSize(limit),
	)
	if err != nil {
		return nil, classify(ctx, ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchQueryFailed, res.Status())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, classify(ctx, ErrSearchQueryFailed, err)
	}

	var parsed searchResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrSearchQueryFailed, err)
	}

	result := &SearchResult{
		Total:  parsed.Hits.Total.Value,
		Agents: make([]AgentDocument, 0, len(parsed.Hits.Hits)),
	}
	for _, hit := range parsed.Hits.Hits {
		result.Agents = append(result.Agents, hit.Source)
	}
	return result, nil
}

func buildQuery(query string) map[string]interface{} {
	if query == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"sort":  []interface{}{map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}}},
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "role", "domain", "intents", "functions"},
				"type":   "best_fields",
			},
		},
	}
}

func classify(ctx context.Context, base error, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrSearchTimeout, err)
	}
	return fmt.Errorf("%w: %v", base, err)
}
