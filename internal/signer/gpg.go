package signer

import (
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

var errPassphraseRequired = errors.New("signing key is passphrase-protected and no passphrase was given")

// GPGSigner signs wheels with the first secret key of an OpenPGP key ring
type GPGSigner struct {
	entity *openpgp.Entity
	config *packet.Config
}

// NewGPGSigner loads an armored or binary secret key ring from keyPath and
// unlocks it with passphrase
func NewGPGSigner(keyPath, passphrase string) (*GPGSigner, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	ring, err := readKeyRing(keyPath)
	if err != nil {
		return nil, err
	}

	entity := secretEntity(ring)
	if entity == nil {
		return nil, fmt.Errorf("%s holds no secret key", keyPath)
	}

	if err := unlock(entity, []byte(passphrase)); err != nil {
		return nil, err
	}

	return &GPGSigner{
		entity: entity,
		config: &packet.Config{DefaultHash: crypto.SHA512},
	}, nil
}

func readKeyRing(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	var ring openpgp.EntityList
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		ring, err = openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	} else {
		ring, err = openpgp.ReadKeyRing(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse key file %s: %w", path, err)
	}
	return ring, nil
}

// secretEntity returns the first entity carrying a private primary key
func secretEntity(ring openpgp.EntityList) *openpgp.Entity {
	for _, e := range ring {
		if e.PrivateKey != nil {
			return e
		}
	}
	return nil
}

// unlock decrypts the primary key and every encrypted signing subkey
func unlock(entity *openpgp.Entity, passphrase []byte) error {
	keys := []*packet.PrivateKey{entity.PrivateKey}
	for _, sub := range entity.Subkeys {
		if sub.PrivateKey != nil {
			keys = append(keys, sub.PrivateKey)
		}
	}

	for _, k := range keys {
		if !k.Encrypted {
			continue
		}
		if len(passphrase) == 0 {
			return errPassphraseRequired
		}
		if err := k.Decrypt(passphrase); err != nil {
			return fmt.Errorf("failed to unlock key %X: %w", k.Fingerprint, err)
		}
	}
	return nil
}

// Fingerprint returns the primary key fingerprint in upper-case hex
func (s *GPGSigner) Fingerprint() string {
	return fmt.Sprintf("%X", s.entity.PrimaryKey.Fingerprint)
}

// SignDetached creates an armored detached signature over everything read from r
func (s *GPGSigner) SignDetached(r io.Reader) ([]byte, error) {
	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, s.entity, r, s.config); err != nil {
		return nil, fmt.Errorf("failed to sign with key %s: %w", s.Fingerprint(), err)
	}
	return sig.Bytes(), nil
}

// GetPublicKey exports the public half of the signing key, armored, for
// pubkey.asc at the index root
func (s *GPGSigner) GetPublicKey() ([]byte, error) {
	var out bytes.Buffer

	w, err := armor.Encode(&out, openpgp.PublicKeyType, map[string]string{"Comment": s.Fingerprint()})
	if err != nil {
		return nil, err
	}
	if err := s.entity.Serialize(w); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to export key %s: %w", s.Fingerprint(), err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
