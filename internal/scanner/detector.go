package scanner

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Wheels are zip archives
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// DetectPackageType determines the artifact type based on magic bytes and file extension
func DetectPackageType(path string) (PackageType, error) {
	if filepath.Ext(path) != ".whl" {
		return TypeUnknown, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer f.Close()

	header := make([]byte, len(zipMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && n == 0 {
		return TypeUnknown, err
	}

	if bytes.Equal(header[:n], zipMagic) {
		return TypeWheel, nil
	}

	return TypeUnknown, nil
}
