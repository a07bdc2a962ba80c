package wheel

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// maxHeaderLine bounds a single METADATA line; some projects ship
// descriptions or classifier lists far longer than bufio's default
const maxHeaderLine = 16 << 20

// ErrNoMetadata is returned when a wheel has no .dist-info/METADATA member
var ErrNoMetadata = errors.New("wheel has no .dist-info/METADATA")

// Metadata is the core metadata file shipped inside a wheel
type Metadata struct {
	Raw            []byte
	Name           string
	Version        string
	RequiresPython string
}

// ReadMetadata extracts and parses <name>.dist-info/METADATA from a wheel
func ReadMetadata(wheelPath string) (*Metadata, error) {
	r, err := zip.OpenReader(wheelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		dir, base := path.Split(f.Name)
		if base != "METADATA" || strings.Count(dir, "/") != 1 || !strings.HasSuffix(dir, ".dist-info/") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}

		return ParseMetadata(data)
	}

	return nil, ErrNoMetadata
}

// ParseMetadata reads the header block of a core metadata file
func ParseMetadata(data []byte) (*Metadata, error) {
	md := &Metadata{Raw: data}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxHeaderLine)
	var currentKey string
	var currentValue strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		// Headers end at the first blank line; the body is the long description
		if line == "" {
			break
		}

		// Handle continuation lines (start with space)
		if line[0] == ' ' || line[0] == '\t' {
			currentValue.WriteString(" ")
			currentValue.WriteString(strings.TrimSpace(line))
			continue
		}

		if currentKey != "" {
			md.set(currentKey, currentValue.String())
		}

		currentKey = ""
		if k, v, ok := strings.Cut(line, ":"); ok {
			currentKey = strings.TrimSpace(k)
			currentValue.Reset()
			currentValue.WriteString(strings.TrimSpace(v))
		}
	}

	if currentKey != "" {
		md.set(currentKey, currentValue.String())
	}

	return md, scanner.Err()
}

func (m *Metadata) set(key, value string) {
	switch strings.ToLower(key) {
	case "name":
		m.Name = value
	case "version":
		m.Version = value
	case "requires-python":
		m.RequiresPython = value
	}
}
