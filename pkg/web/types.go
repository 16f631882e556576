package web

import (
	"time"

	"github.com/arcsuite/arcflow/pkg/palette"
)

// TotalCountHeader carries the number of workflows matching a listing.
const TotalCountHeader = "X-Total-Count"

// UserIDHeader identifies the caller; its value is stored as createdBy.
const UserIDHeader = "X-User-ID"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Checkers  map[string]string `json:"checkers"`
	Timestamp time.Time         `json:"timestamp"`
}

// NodeDefinitionResponse describes one node subtype and its config schema.
type NodeDefinitionResponse struct {
	palette.NodeTemplate
	Schema map[string]any `json:"schema"`
}
