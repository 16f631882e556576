// Package events defines the workflow lifecycle events published by the backend.
package events

import (
	"time"

	"github.com/arcsuite/arcflow/pkg/models"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "arcflow.workflows"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowCreatedEvent       EventType = "workflow.created"
	WorkflowUpdatedEvent       EventType = "workflow.updated"
	WorkflowStatusChangedEvent EventType = "workflow.status_changed"
	WorkflowDeletedEvent       EventType = "workflow.deleted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent fills the common fields of an event.
func NewBaseEvent(id string, eventType EventType, workflowID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  at.UTC(),
		WorkflowID: workflowID,
	}
}

type WorkflowCreated struct {
	BaseEvent

	Name      string                `json:"name"`
	Status    models.WorkflowStatus `json:"status"`
	NodeCount int                   `json:"node_count"`
	CreatedBy string                `json:"created_by,omitempty"`
}

func (WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

// WorkflowUpdated reports which top level fields an update replaced.
type WorkflowUpdated struct {
	BaseEvent

	Fields    []string `json:"fields"`
	NodeCount int      `json:"node_count"`
}

func (WorkflowUpdated) GetType() EventType {
	return WorkflowUpdatedEvent
}

type WorkflowStatusChanged struct {
	BaseEvent

	From models.WorkflowStatus `json:"from"`
	To   models.WorkflowStatus `json:"to"`
}

func (WorkflowStatusChanged) GetType() EventType {
	return WorkflowStatusChangedEvent
}

type WorkflowDeleted struct {
	BaseEvent

	PreviousStatus models.WorkflowStatus `json:"previous_status"`
}

func (WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

// New returns an empty event value for eventType, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case WorkflowCreatedEvent:
		return &WorkflowCreated{}, true
	case WorkflowUpdatedEvent:
		return &WorkflowUpdated{}, true
	case WorkflowStatusChangedEvent:
		return &WorkflowStatusChanged{}, true
	case WorkflowDeletedEvent:
		return &WorkflowDeleted{}, true
	default:
		return nil, false
	}
}
