package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ralt/wheelhouse/internal/models"
	"github.com/ralt/wheelhouse/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/tailscale/hujson"
)

// Store loads and persists the registry. Each operation loads once on entry
// and saves once before returning; no handle is kept between operations.
type Store interface {
	// Load reads the current registry state
	Load(ctx context.Context) (*models.Registry, error)

	// Save replaces the persisted registry state
	Save(ctx context.Context, reg *models.Registry) error
}

// FileStore keeps the registry in a JSON file
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the JSON file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the registry file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and validates the registry file. A missing file is an empty registry.
func (s *FileStore) Load(ctx context.Context) (*models.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Debugf("Registry %s does not exist yet, starting empty", s.path)
			return models.NewRegistry(), nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	reg, err := Decode(data)
	if err != nil {
		return nil, models.NewError(models.ErrRegistryCorrupt, "", fmt.Errorf("%s: %w", s.path, err))
	}

	logrus.Debugf("Loaded %d packages from %s", len(reg.Packages), s.path)
	return reg, nil
}

// Save writes the registry as indented JSON, replacing the file atomically
func (s *FileStore) Save(ctx context.Context, reg *models.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(reg)
	if err != nil {
		return err
	}

	if err := utils.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}

	logrus.Debugf("Saved %d packages to %s", len(reg.Packages), s.path)
	return nil
}

// Decode parses registry data. Comments and trailing commas from hand edits
// are accepted. The result must satisfy the registry schema and hold no two
// packages with the same normalized name.
func Decode(data []byte) (*models.Registry, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := validateDocument(std); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	reg := models.NewRegistry()
	if err := json.Unmarshal(std, reg); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	if reg.Packages == nil {
		reg.Packages = make(map[string]*models.PackageEntry)
	}

	seen := make(map[string]string, len(reg.Packages))
	for name, entry := range reg.Packages {
		key := Normalize(name)
		if other, ok := seen[key]; ok {
			return nil, fmt.Errorf("packages %q and %q share normalized name %q", other, name, key)
		}
		seen[key] = name

		if entry == nil {
			return nil, fmt.Errorf("package %q has no metadata", name)
		}
		files := make(map[string]bool, len(entry.Wheels))
		for _, w := range entry.Wheels {
			if files[w.Filename] {
				return nil, fmt.Errorf("package %q lists %s more than once", name, w.Filename)
			}
			files[w.Filename] = true
		}
	}

	return reg, nil
}

// Encode serializes the registry with sorted keys and a trailing newline
func Encode(reg *models.Registry) ([]byte, error) {
	out := models.Registry{Packages: make(map[string]*models.PackageEntry, len(reg.Packages))}
	for name, entry := range reg.Packages {
		e := *entry
		if e.Wheels == nil {
			e.Wheels = []models.WheelRecord{}
		}
		out.Packages[name] = &e
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode registry: %w", err)
	}
	return append(data, '\n'), nil
}

// MemoryStore keeps the registry in memory. Load and Save copy through the
// JSON encoding so callers never share state with the store.
type MemoryStore struct {
	data  []byte
	Saves int
}

// NewMemoryStore creates an in-memory store seeded with reg (nil for empty)
func NewMemoryStore(reg *models.Registry) *MemoryStore {
	s := &MemoryStore{}
	if reg != nil {
		s.data, _ = Encode(reg)
	}
	return s
}

// Load returns a copy of the stored registry
func (s *MemoryStore) Load(ctx context.Context) (*models.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.data == nil {
		return models.NewRegistry(), nil
	}
	reg, err := Decode(s.data)
	if err != nil {
		return nil, models.NewError(models.ErrRegistryCorrupt, "", err)
	}
	return reg, nil
}

// Save stores a copy of reg
func (s *MemoryStore) Save(ctx context.Context, reg *models.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(reg)
	if err != nil {
		return err
	}
	s.data = data
	s.Saves++
	return nil
}
