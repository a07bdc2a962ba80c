// Package registry owns the package registry: name normalization, persistence
// and registration of new packages.
package registry

import (
	"fmt"
	"strings"

	"github.com/ralt/wheelhouse/internal/models"
)

var nameFolder = strings.NewReplacer("_", "-", ".", "-")

// Normalize returns the lookup key for a package name: lower-cased, with every
// "_" and "." replaced by "-". Other punctuation is kept as-is.
func Normalize(name string) string {
	return nameFolder.Replace(strings.ToLower(name))
}

// Lookup finds the entry whose name normalizes to the same key as name.
// It returns the display name the entry is stored under.
func Lookup(reg *models.Registry, name string) (string, *models.PackageEntry, bool) {
	key := Normalize(name)
	for displayName, entry := range reg.Packages {
		if Normalize(displayName) == key {
			return displayName, entry, true
		}
	}
	return "", nil, false
}

// FindWheel returns the index of the wheel record with the given filename, or -1
func FindWheel(entry *models.PackageEntry, filename string) int {
	for i := range entry.Wheels {
		if entry.Wheels[i].Filename == filename {
			return i
		}
	}
	return -1
}

// ValidateName rejects names that cannot be used as an index path segment.
// Dots never survive normalization, so only empty names and path separators
// need checking.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "/\\") {
		return models.NewError(models.ErrInvalidConfig, name, fmt.Errorf("not usable as an index path segment"))
	}
	return nil
}
