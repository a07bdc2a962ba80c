// Package simple renders a static PEP 503 "simple" package index.
package simple

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ralt/wheelhouse/internal/generator"
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/ralt/wheelhouse/internal/signer"
	"github.com/ralt/wheelhouse/internal/utils"
	"github.com/sirupsen/logrus"
)

// DefaultTitle is used for the root page when no title is configured
const DefaultTitle = "Simple Index"

// Generator implements the generator.Generator interface for simple indexes
type Generator struct {
	config *models.Config
	signer signer.Signer
}

// NewGenerator creates a new simple index generator
func NewGenerator(config *models.Config, s signer.Signer) generator.Generator {
	return &Generator{
		config: config,
		signer: s,
	}
}

// Generate renders the registry and rewrites the index directory
func (g *Generator) Generate(ctx context.Context, reg *models.Registry) error {
	if err := g.generate(ctx, reg); err != nil {
		return models.NewError(models.ErrRenderFailure, "", err)
	}
	return nil
}

func (g *Generator) generate(ctx context.Context, reg *models.Registry) error {
	logrus.Infof("Generating index in %s...", g.config.IndexDir)

	opts := Options{
		Title:       g.config.Title,
		Description: g.config.Description,
		Gzip:        g.config.Gzip,
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}

	if g.signer != nil {
		key, err := g.signer.GetPublicKey()
		if err != nil {
			return fmt.Errorf("failed to export public key: %w", err)
		}
		opts.PublicKey = key
	}

	tree, err := Render(opts, reg)
	if err != nil {
		return err
	}

	if err := utils.EnsureDir(g.config.IndexDir); err != nil {
		return err
	}

	for _, path := range tree.Paths() {
		if err := ctx.Err(); err != nil {
			return err
		}

		dst := filepath.Join(g.config.IndexDir, filepath.FromSlash(path))
		if err := utils.WriteFile(dst, tree[path], 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logrus.Debugf("Wrote %s", dst)
	}

	if err := g.prune(tree); err != nil {
		return err
	}

	logrus.Infof("Index generated successfully (%d packages)", len(reg.Packages))
	return nil
}

// prune removes pages that the current tree no longer contains: package
// directories dropped from the registry, gzip siblings when gzip is off, and a
// stale public key.
func (g *Generator) prune(tree Tree) error {
	stale := []string{IndexFile + ".gz", PublicKeyFile}

	entries, err := os.ReadDir(g.config.IndexDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(g.config.IndexDir, e.Name(), IndexFile)); err != nil {
			// Not an index page directory; leave it alone
			continue
		}
		stale = append(stale, e.Name()+"/"+IndexFile, e.Name()+"/"+IndexFile+".gz")
	}

	for _, path := range stale {
		if _, ok := tree[path]; ok {
			continue
		}

		dst := filepath.Join(g.config.IndexDir, filepath.FromSlash(path))
		if err := os.Remove(dst); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to remove stale %s: %w", path, err)
		}
		logrus.Infof("Removed stale %s", path)

		// Drop the package directory once it is empty
		if dir := filepath.Dir(dst); dir != filepath.Clean(g.config.IndexDir) {
			os.Remove(dir)
		}
	}

	return nil
}
