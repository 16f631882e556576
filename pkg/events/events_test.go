package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/arcsuite/arcflow/pkg/events"
	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, eventType := range []events.EventType{
		events.WorkflowCreatedEvent,
		events.WorkflowUpdatedEvent,
		events.WorkflowStatusChangedEvent,
		events.WorkflowDeletedEvent,
	} {
		event, ok := events.New(eventType)
		require.True(t, ok, eventType)

		typed, ok := event.(interface{ GetType() events.EventType })
		require.True(t, ok)
		assert.Equal(t, eventType, typed.GetType())
	}

	_, ok := events.New("workflow.exploded")
	assert.False(t, ok)
}

func TestWorkflowStatusChanged_JSON(t *testing.T) {
	at := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	event := events.WorkflowStatusChanged{
		BaseEvent: events.NewBaseEvent("evt-1", events.WorkflowStatusChangedEvent, "wf-1", at),
		From:      models.WorkflowStatusDraft,
		To:        models.WorkflowStatusActive,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": "evt-1",
		"type": "workflow.status_changed",
		"timestamp": "2024-06-01T13:00:00Z",
		"workflow_id": "wf-1",
		"from": "draft",
		"to": "active"
	}`, string(data))
}
