// Package crypto derives fixed-size keys from configured secrets.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the size of every derived key (32 bytes)
const KeySize = 32

var ErrEmptySecret = errors.New("secret must not be empty")

// DeriveKey returns a KeySize key for purpose.
// A hex encoded 32 byte secret is used as is; any other secret is
// stretched with HKDF-SHA256 so that operators can configure a passphrase.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if key, err := hex.DecodeString(secret); err == nil && len(key) == KeySize {
		return key, nil
	}

	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("librarian "+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
