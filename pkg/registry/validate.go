package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrMissingNodeID    = errors.New("node id is required")
	ErrDuplicateNodeID  = errors.New("duplicate node id")
	ErrUnknownCategory  = errors.New("unknown node category")
	ErrMissingSubtype   = errors.New("node config has no subtype")
	ErrUnknownSubtype   = errors.New("unknown node subtype")
	ErrCategoryMismatch = errors.New("subtype does not belong to category")
	ErrInvalidConfig    = errors.New("invalid node config")
)

// ValidateNodes validates every node and checks that ids are unique.
func (r *Registry) ValidateNodes(nodes []models.NodeInstance) error {
	seen := make(map[string]struct{}, len(nodes))

	for _, node := range nodes {
		if _, dup := seen[node.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, node.ID)
		}

		seen[node.ID] = struct{}{}

		if err := r.ValidateNode(node); err != nil {
			return err
		}
	}

	return nil
}

// ValidateNode checks the category, the subtype and the config of a node.
func (r *Registry) ValidateNode(node models.NodeInstance) error {
	if node.ID == "" {
		return ErrMissingNodeID
	}

	if !node.Type.Valid() {
		return fmt.Errorf("node %s: %w: %q", node.ID, ErrUnknownCategory, node.Type)
	}

	subtype := node.Subtype()
	if subtype == "" {
		return fmt.Errorf("node %s: %w", node.ID, ErrMissingSubtype)
	}

	def, ok := r.Lookup(subtype)
	if !ok {
		return fmt.Errorf("node %s: %w: %q", node.ID, ErrUnknownSubtype, subtype)
	}

	if def.Template.Category != node.Type {
		return fmt.Errorf("node %s: %w: %s is a %s", node.ID, ErrCategoryMismatch, subtype, def.Template.Category)
	}

	if err := r.ValidateConfig(node.Config); err != nil {
		return fmt.Errorf("node %s: %w", node.ID, err)
	}

	return nil
}

// ValidateConfig validates a config against the schema of its subtype.
// A schedule with a frequency must also render to a valid cron expression.
func (r *Registry) ValidateConfig(config models.NodeConfig) error {
	if config == nil {
		return ErrMissingSubtype
	}

	r.mu.RLock()
	e, ok := r.entries[config.Subtype()]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSubtype, config.Subtype())
	}

	result, err := e.schema.Validate(gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
	}

	if schedule, ok := config.(*models.ScheduleConfig); ok && schedule.Frequency != "" {
		if _, err := schedule.CronSpec(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	return nil
}
