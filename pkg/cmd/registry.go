// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/arcsuite/arcflow/pkg/registry"
)

// NewRegistry returns the registry of built-in node subtypes.
func NewRegistry(log *slog.Logger) *registry.Registry {
	reg, err := registry.NewDefaultRegistry(log.With("module", "registry"))
	if err != nil {
		panic(err)
	}

	log.Info("node registry initialized", "subtypes", len(reg.Subtypes()))

	return reg
}
