package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// FindWheels returns the paths of the wheels beneath dir in lexical order.
// Hidden directories such as .git or .venv are not descended into, and
// files named *.whl that are not zip archives are skipped with a warning.
func FindWheels(ctx context.Context, dir string) ([]string, error) {
	var wheels []string

	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || filepath.Ext(path) != ".whl" {
			return nil
		}

		typ, err := DetectPackageType(path)
		if err != nil {
			logrus.Warnf("Skipping %s: %v", path, err)
			return nil
		}
		if typ != TypeWheel {
			logrus.Warnf("Skipping %s: not a zip archive", path)
			return nil
		}

		wheels = append(wheels, path)
		return nil
	}

	if err := filepath.WalkDir(dir, walk); err != nil {
		return nil, fmt.Errorf("failed to scan %s for wheels: %w", dir, err)
	}

	logrus.Debugf("Found %d wheels in %s", len(wheels), dir)
	return wheels, nil
}
