// internal/pipeline/decode_test.go
package pipeline

import (
	"errors"
	"testing"

	"cx-agent-builder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
		domain  string
		wantErr bool
	}{
		{name: "valid", content: `{"domain":"finance","tasks":[]}`, domain: "finance"},
		{name: "fenced", content: "```json\n{\"domain\":\"travel\",\"tasks\":[]}\n```", domain: "travel"},
		{name: "missing closing brace", content: `{"domain":"insurance","tasks":[]`, domain: "insurance"},
		{name: "trailing comma", content: `{"domain":"education","tasks":[],}`, domain: "education"},
		{name: "missing tasks", content: `{"domain":"finance"}`, wantErr: true},
		{name: "task without name", content: `{"domain":"finance","tasks":[{"description":"x"}]}`, wantErr: true},
		{name: "empty", content: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var brief models.AnalysisBrief
			err := decodeReply(tt.content, briefSchema, &brief)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidReply))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.domain, brief.Domain)
		})
	}
}

func TestDecodeReply_CatalogueRequiresNames(t *testing.T) {
	var catalogue models.FunctionCatalogue

	err := decodeReply(`{"functions":[{"description":"no name"}]}`, catalogueSchema, &catalogue)
	assert.True(t, errors.Is(err, ErrInvalidReply))

	require.NoError(t, decodeReply(`{"functions":[{"name":"get_order_status"}]}`, catalogueSchema, &catalogue))
	require.Len(t, catalogue.Functions, 1)
	assert.Equal(t, "get_order_status", catalogue.Functions[0].Name)
}

func TestEncodePayload(t *testing.T) {
	out, err := encodePayload([]models.FunctionRequirement{{Name: "get_order_status"}})

	require.NoError(t, err)
	assert.Contains(t, out, `"name":"get_order_status"`)
}
