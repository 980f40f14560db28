package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// renderer writes command results as JSON or YAML, optionally filtered
// through a jq expression first.
type renderer struct {
	w      io.Writer
	format string
	query  *gojq.Query
}

func newRendererFor(w io.Writer, format, expr string) (*renderer, error) {
	switch format {
	case formatJSON, formatYAML:
	case "yml":
		format = formatYAML
	default:
		return nil, fmt.Errorf("unsupported output format %q (json or yaml)", format)
	}

	r := &renderer{w: w, format: format}
	if expr != "" {
		query, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
		}
		r.query = query
	}
	return r, nil
}

func (r *renderer) Render(v interface{}) error {
	if r.query == nil {
		return r.write(v)
	}

	// gojq only walks plain maps and slices.
	generic, err := toGeneric(v)
	if err != nil {
		return err
	}

	iter := r.query.Run(generic)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := result.(error); ok {
			return fmt.Errorf("jq: %w", err)
		}
		if err := r.write(result); err != nil {
			return err
		}
	}
}

func (r *renderer) write(v interface{}) error {
	if r.format == formatYAML {
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func toGeneric(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return out, nil
}
