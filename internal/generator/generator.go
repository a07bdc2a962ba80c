package generator

import (
	"context"

	"github.com/ralt/wheelhouse/internal/models"
)

// Generator interface for index generators
type Generator interface {
	// Generate rewrites the index tree from the registry state
	Generate(ctx context.Context, reg *models.Registry) error
}

// Func adapts a plain function to the Generator interface
type Func func(ctx context.Context, reg *models.Registry) error

// Generate calls f
func (f Func) Generate(ctx context.Context, reg *models.Registry) error {
	return f(ctx, reg)
}
