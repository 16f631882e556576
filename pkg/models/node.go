package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// NodeCategory is the kind of step a node represents.
type NodeCategory string

const (
	CategoryTrigger   NodeCategory = "trigger"
	CategoryAction    NodeCategory = "action"
	CategoryCondition NodeCategory = "condition"
	CategoryDelay     NodeCategory = "delay"
)

// Valid reports whether c is one of the four known categories.
func (c NodeCategory) Valid() bool {
	switch c {
	case CategoryTrigger, CategoryAction, CategoryCondition, CategoryDelay:
		return true
	default:
		return false
	}
}

// Subtype identifies the concrete behavior of a node within its category.
type Subtype string

// Trigger subtypes.
const (
	SubtypeNewRecord  Subtype = "new_record"
	SubtypeSchedule   Subtype = "schedule"
	SubtypeWebhook    Subtype = "webhook"
	SubtypeFormSubmit Subtype = "form_submit"
)

// Action subtypes.
const (
	SubtypeSendEmail    Subtype = "send_email"
	SubtypeSendWhatsApp Subtype = "send_whatsapp"
	SubtypeCreateRecord Subtype = "create_record"
	SubtypeUpdateRecord Subtype = "update_record"
	SubtypeNotify       Subtype = "notify"
	SubtypeAssignUser   Subtype = "assign_user"
)

// Condition and delay subtypes.
const (
	SubtypeIfElse Subtype = "if_else"
	SubtypeWait   Subtype = "wait"
)

var subtypeCategories = map[Subtype]NodeCategory{
	SubtypeNewRecord:    CategoryTrigger,
	SubtypeSchedule:     CategoryTrigger,
	SubtypeWebhook:      CategoryTrigger,
	SubtypeFormSubmit:   CategoryTrigger,
	SubtypeSendEmail:    CategoryAction,
	SubtypeSendWhatsApp: CategoryAction,
	SubtypeCreateRecord: CategoryAction,
	SubtypeUpdateRecord: CategoryAction,
	SubtypeNotify:       CategoryAction,
	SubtypeAssignUser:   CategoryAction,
	SubtypeIfElse:       CategoryCondition,
	SubtypeWait:         CategoryDelay,
}

// Category returns the category a known subtype belongs to.
func (s Subtype) Category() (NodeCategory, bool) {
	c, ok := subtypeCategories[s]

	return c, ok
}

// Known reports whether s is part of the node catalog.
func (s Subtype) Known() bool {
	_, ok := subtypeCategories[s]

	return ok
}

// Position is a point on the canvas in pixels, relative to the canvas origin.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// NodeInstance is a node placed on the canvas of a workflow.
type NodeInstance struct {
	ID        string       `json:"id"        validate:"required"`
	Type      NodeCategory `json:"type"      validate:"required"`
	Name      string       `json:"name"`
	Config    NodeConfig   `json:"config"`
	Position  Position     `json:"position"`
	NextNodes []string     `json:"nextNodes"`
}

// Subtype returns the subtype recorded in the node configuration.
func (n NodeInstance) Subtype() Subtype {
	if n.Config == nil {
		return ""
	}

	return n.Config.Subtype()
}

type nodeInstanceJSON struct {
	ID        string          `json:"id"`
	Type      NodeCategory    `json:"type"`
	Name      string          `json:"name"`
	Config    json.RawMessage `json:"config"`
	Position  Position        `json:"position"`
	NextNodes []string        `json:"nextNodes"`
}

// MarshalJSON always emits nextNodes as an array.
func (n NodeInstance) MarshalJSON() ([]byte, error) {
	var config json.RawMessage = []byte("null")

	if n.Config != nil {
		raw, err := json.Marshal(n.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config of node %s: %w", n.ID, err)
		}

		config = raw
	}

	next := n.NextNodes
	if next == nil {
		next = []string{}
	}

	return json.Marshal(nodeInstanceJSON{
		ID:        n.ID,
		Type:      n.Type,
		Name:      n.Name,
		Config:    config,
		Position:  n.Position,
		NextNodes: next,
	})
}

// UnmarshalJSON decodes the config into the variant matching its subtype.
func (n *NodeInstance) UnmarshalJSON(data []byte) error {
	var raw nodeInstanceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	config, err := DecodeNodeConfig(raw.Config)
	if err != nil {
		return fmt.Errorf("node %s: %w", raw.ID, err)
	}

	*n = NodeInstance{
		ID:        raw.ID,
		Type:      raw.Type,
		Name:      raw.Name,
		Config:    config,
		Position:  raw.Position,
		NextNodes: raw.NextNodes,
	}

	return nil
}

// Clone returns a deep copy of the node.
func (n NodeInstance) Clone() NodeInstance {
	clone := n
	clone.NextNodes = slices.Clone(n.NextNodes)

	if n.Config != nil {
		clone.Config = n.Config.clone()
	}

	return clone
}

// CloneNodes deep copies a node list, preserving order.
func CloneNodes(nodes []NodeInstance) []NodeInstance {
	if nodes == nil {
		return nil
	}

	out := make([]NodeInstance, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}

	return out
}
