// Package wheel parses wheel file names and reads metadata out of wheel archives.
package wheel

import (
	"fmt"
	"strings"

	"github.com/ralt/wheelhouse/internal/models"
)

// Extension is the file extension of a wheel
const Extension = ".whl"

// Filename holds the fields encoded in a wheel file name
type Filename struct {
	Package        string
	Version        string
	Build          string // Optional build tag, empty when absent
	InterpreterTag string
	ABITag         string
	PlatformTag    string
}

// ParseFilename splits a wheel file name of the form
//
//	<package>-<version>[-<build>]-<interpreter>-<abi>-<platform>.whl
//
// The interpreter and ABI tags are the first two dash-separated tokens of the
// tag blob; everything after them is the platform tag, which may itself
// contain "-" and "_".
func ParseFilename(name string) (*Filename, error) {
	stem, ok := strings.CutSuffix(name, Extension)
	if !ok || stem == "" {
		return nil, invalidFilename(name, "missing %s extension", Extension)
	}

	pkg, rest, ok := strings.Cut(stem, "-")
	if !ok {
		return nil, invalidFilename(name, "no version")
	}
	if !isDistributionName(pkg) {
		return nil, invalidFilename(name, "package %q must be letters, digits or underscores", pkg)
	}

	version, blob, ok := strings.Cut(rest, "-")
	if !ok {
		return nil, invalidFilename(name, "no tags")
	}
	if version == "" || !isDigit(version[0]) {
		return nil, invalidFilename(name, "version %q must start with a digit", version)
	}

	tags := strings.Split(blob, "-")
	for _, t := range tags {
		if t == "" {
			return nil, invalidFilename(name, "empty tag")
		}
	}

	var build string
	if len(tags) > 3 && isDigit(tags[0][0]) {
		build = tags[0]
		tags = tags[1:]
	}
	if len(tags) < 3 {
		return nil, invalidFilename(name, "expected interpreter, ABI and platform tags, got %d", len(tags))
	}

	return &Filename{
		Package:        pkg,
		Version:        version,
		Build:          build,
		InterpreterTag: tags[0],
		ABITag:         tags[1],
		PlatformTag:    strings.Join(tags[2:], "-"),
	}, nil
}

// String reassembles the file name
func (f *Filename) String() string {
	parts := []string{f.Package, f.Version}
	if f.Build != "" {
		parts = append(parts, f.Build)
	}
	parts = append(parts, f.InterpreterTag, f.ABITag, f.PlatformTag)
	return strings.Join(parts, "-") + Extension
}

func invalidFilename(name, format string, args ...any) error {
	return models.NewError(models.ErrInvalidFilenameFormat, name, fmt.Errorf(format, args...))
}

func isDistributionName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && c != '_' && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
