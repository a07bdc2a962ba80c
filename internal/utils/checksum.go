package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Digester computes the content hash of a byte stream
type Digester interface {
	// Digest consumes r and returns the hex-encoded digest
	Digest(r io.Reader) (string, error)
}

// SHA256Digester streams its input through SHA-256
type SHA256Digester struct{}

// Digest hashes r without buffering it in memory
func (SHA256Digester) Digest(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Checksum contains the digest and size of a file
type Checksum struct {
	SHA256 string
	Size   int64
}

// CalculateChecksums hashes a file in a single streaming pass
func CalculateChecksums(path string, d Digester) (*Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Get file info for size
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	sum, err := d.Digest(f)
	if err != nil {
		return nil, err
	}

	return &Checksum{
		SHA256: sum,
		Size:   info.Size(),
	}, nil
}

// CalculateChecksum returns the hex SHA-256 of data
func CalculateChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
