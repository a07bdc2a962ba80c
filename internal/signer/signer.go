package signer

import "io"

// Signer interface for signing published artifacts
type Signer interface {
	// SignDetached creates an armored detached signature (for <wheel>.asc)
	SignDetached(r io.Reader) ([]byte, error)

	// GetPublicKey returns the armored public key
	GetPublicKey() ([]byte, error)
}
