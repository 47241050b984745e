// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dukex/flowcanvas/pkg/gallery"
	"github.com/dukex/flowcanvas/pkg/registry"
)

// NewRegistry returns the built-in node templates, extended or overridden by
// the catalog file at catalogPath when it is set.
func NewRegistry(log *slog.Logger, catalogPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	if err := reg.RegisterDefaultTemplates(); err != nil {
		return nil, fmt.Errorf("failed to register default templates: %w", err)
	}

	if catalogPath == "" {
		return reg, nil
	}

	if _, err := reg.LoadFile(catalogPath); err != nil {
		return nil, err
	}

	return reg, nil
}

// NewGallery returns the built-in workflow templates, extended or overridden
// by the gallery file at path when it is set.
func NewGallery(log *slog.Logger, path string) (*gallery.Gallery, error) {
	g := gallery.NewGallery(log)

	if err := g.RegisterDefaultTemplates(); err != nil {
		return nil, fmt.Errorf("failed to register default workflow templates: %w", err)
	}

	if path == "" {
		return g, nil
	}

	if _, err := g.LoadFile(path); err != nil {
		return nil, err
	}

	return g, nil
}
