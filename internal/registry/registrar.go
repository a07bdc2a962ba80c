package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/ralt/wheelhouse/internal/generator"
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/sirupsen/logrus"
)

// RegisterRequest holds the metadata for a new package
type RegisterRequest struct {
	Name         string
	SourceRepo   string
	UpstreamRepo string
	Branch       string
	Description  string
}

// Registrar adds packages to the registry and keeps the index in step
type Registrar struct {
	store Store
	gen   generator.Generator
}

// NewRegistrar creates a registrar over the given store and index generator
func NewRegistrar(store Store, gen generator.Generator) *Registrar {
	return &Registrar{store: store, gen: gen}
}

// Register inserts a new package with an empty wheel list, saves the registry
// and re-renders the index. A render failure after the save is returned as
// ErrRenderFailure and leaves the saved registry in place.
func (r *Registrar) Register(ctx context.Context, req RegisterRequest) error {
	name := strings.TrimSpace(req.Name)
	if err := ValidateName(name); err != nil {
		return err
	}

	reg, err := r.store.Load(ctx)
	if err != nil {
		return err
	}

	if existing, _, ok := Lookup(reg, name); ok {
		return models.NewError(models.ErrDuplicatePackage, name,
			fmt.Errorf("already registered as %q (normalized %q)", existing, Normalize(name)))
	}

	branch := req.Branch
	if branch == "" {
		branch = models.DefaultBranch
	}

	reg.Packages[name] = &models.PackageEntry{
		SourceRepo:   req.SourceRepo,
		UpstreamRepo: req.UpstreamRepo,
		SourceBranch: branch,
		Description:  req.Description,
		Wheels:       []models.WheelRecord{},
	}

	if err := r.store.Save(ctx, reg); err != nil {
		return err
	}
	logrus.Infof("Registered package %s (%s)", name, Normalize(name))

	if err := r.gen.Generate(ctx, reg); err != nil {
		return models.NewError(models.ErrRenderFailure, name,
			fmt.Errorf("registry saved but index is stale, run render: %w", err))
	}

	return nil
}
