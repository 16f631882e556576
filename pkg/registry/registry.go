// Package registry describes the node subtypes the backend accepts and
// validates node instances against them.
package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/palette"
	"github.com/xeipuuv/gojsonschema"
)

// Definition is a registered subtype: its palette entry and the JSON schema
// its config must satisfy.
type Definition struct {
	Template palette.NodeTemplate `json:"template"`
	Schema   map[string]any       `json:"schema"`
}

type entry struct {
	definition Definition
	schema     *gojsonschema.Schema
}

// Registry holds the node subtype definitions.
type Registry struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	order   []models.Subtype
	entries map[models.Subtype]entry
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger,
		entries: make(map[models.Subtype]entry),
	}
}

// NewDefaultRegistry creates a registry holding every palette subtype.
func NewDefaultRegistry(logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	if err := r.RegisterDefaultNodes(); err != nil {
		return nil, err
	}

	return r, nil
}

// RegisterDefaultNodes registers every palette template with its built-in schema.
func (r *Registry) RegisterDefaultNodes() error {
	for _, template := range palette.All() {
		err := r.Register(Definition{Template: template, Schema: SchemaFor(template.Subtype)})
		if err != nil {
			return err
		}
	}

	return nil
}

// Register adds or replaces a definition. The schema is compiled up front.
func (r *Registry) Register(def Definition) error {
	category, ok := def.Template.Subtype.Category()
	if ok && category != def.Template.Category {
		return fmt.Errorf("%w: %s belongs to %s, not %s",
			ErrCategoryMismatch, def.Template.Subtype, category, def.Template.Category)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.Schema))
	if err != nil {
		return fmt.Errorf("invalid schema for %s: %w", def.Template.Subtype, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Template.Subtype]; !exists {
		r.order = append(r.order, def.Template.Subtype)
	}

	r.entries[def.Template.Subtype] = entry{definition: def, schema: schema}

	r.logger.Debug("registered node subtype", "subtype", def.Template.Subtype, "category", def.Template.Category)

	return nil
}

// Lookup returns the definition of subtype.
func (r *Registry) Lookup(subtype models.Subtype) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[subtype]

	return e.definition, ok
}

// Definitions returns the definitions in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.order))
	for _, subtype := range r.order {
		out = append(out, r.entries[subtype].definition)
	}

	return out
}

// Subtypes returns the registered subtypes in registration order.
func (r *Registry) Subtypes() []models.Subtype {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// HealthCheck reports whether any node subtype is registered.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return "Registry has no node definitions", false
	}

	return fmt.Sprintf("Registry is healthy (%d node definitions)", len(r.order)), true
}
