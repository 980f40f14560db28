package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cx-agent-builder/internal/common/errors"
)

func TestDefault_ProcessOrder(t *testing.T) {
	reg := Default()

	var taskTypes []string
	for _, a := range reg.Activities {
		taskTypes = append(taskTypes, a.TaskType)
		assert.NotEmpty(t, a.InputSchema, a.TaskType)
		assert.NotEmpty(t, a.OutputSchema, a.TaskType)
		assert.Contains(t, a.Workflows, WorkflowID)
	}
	assert.Equal(t, []string{
		"analyze-request", "create-agent-config", "create-functions",
		"merge-config", "persist-agent", "notify-agent-created",
	}, taskTypes)
}

func TestLookupAndUnknown(t *testing.T) {
	reg := Default()

	a, ok := reg.Lookup("merge-config")
	require.True(t, ok)
	assert.Contains(t, a.ErrorCodes, "MALFORMED_DRAFT")
	assert.Equal(t, 0, a.Retries)

	_, ok = reg.Lookup("validate-subscription")
	assert.False(t, ok)

	assert.Equal(t, []string{"a-task", "z-task"}, reg.Unknown([]string{"z-task", "persist-agent", "a-task"}))
	assert.Empty(t, reg.Unknown([]string{"analyze-request"}))
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	data, err := json.Marshal(Default())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 6)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = LoadRegistry(path)
	assert.Error(t, err)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDefault_ErrorCodesAreThrown(t *testing.T) {
	thrown := make(map[string]bool)
	for _, bpmnCode := range apperrors.BPMNErrorMapping {
		thrown[bpmnCode] = true
	}

	for _, a := range Default().Activities {
		for _, code := range a.ErrorCodes {
			assert.True(t, thrown[code], "%s lists %s, which no worker throws", a.TaskType, code)
		}
	}
}
