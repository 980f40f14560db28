// internal/pipeline/decode.go
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cx-agent-builder/internal/common/validation"

	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
)

var ErrInvalidReply = errors.New("LLM_INVALID_REPLY")

// encodePayload renders the user message for a stage.
func encodePayload(v interface{}) (string, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeReply turns a completion reply into v. A reply that is not valid
// JSON is repaired once; the result must then satisfy schema.
func decodeReply(content string, schema *validation.Schema, v interface{}) error {
	raw := []byte(stripFence(content))
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty reply", ErrInvalidReply)
	}

	var parsed interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return fmt.Errorf("%w: %v", ErrInvalidReply, err)
		}
		fixed, rerr := jsonrepair.JSONRepair(string(raw))
		if rerr != nil {
			return fmt.Errorf("%w: %v", ErrInvalidReply, rerr)
		}
		raw = []byte(fixed)
	}

	result, err := schema.ValidateJSON(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s: %s", ErrInvalidReply, schema.Name(), strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
