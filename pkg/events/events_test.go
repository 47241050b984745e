package events

import (
	"encoding/json"
	"testing"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	base := NewBaseEvent(GraphChangedEvent, "wf-1")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, GraphChangedEvent, base.Type)
	assert.Equal(t, "wf-1", base.WorkflowID)
	assert.False(t, base.Timestamp.IsZero())
	assert.NotNil(t, base.Metadata)

	assert.NotEqual(t, base.ID, NewBaseEvent(GraphChangedEvent, "wf-1").ID)
}

func TestSaveStateChanged_JSON(t *testing.T) {
	original := SaveStateChanged{
		BaseEvent: NewBaseEvent(SaveStateChangedEvent, "wf-1"),
		From:      "pending",
		State:     "failed",
		Error:     "connection refused",
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"workflow.save.state_changed"`)
	assert.Contains(t, string(raw), `"workflow_id":"wf-1"`)

	var decoded SaveStateChanged
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "pending", decoded.From)
	assert.Equal(t, "failed", decoded.State)
	assert.Equal(t, "connection refused", decoded.Error)
	assert.Equal(t, SaveStateChangedEvent, decoded.GetType())
}

func TestExecutionStatusChanged_JSON(t *testing.T) {
	original := ExecutionStatusChanged{
		BaseEvent:   NewBaseEvent(ExecutionStatusChangedEvent, "wf-1"),
		ExecutionID: "ex-1",
		Status:      models.ExecutionStatusError,
		Error:       "node b failed",
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ExecutionStatusChanged
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, models.ExecutionStatusError, decoded.Status)
	assert.Equal(t, "node b failed", decoded.Error)
	assert.Zero(t, decoded.DurationMs)
}
