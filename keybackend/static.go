// Package keybackend resolves and checks the shared API key.
package keybackend

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/sagarc03/filebox"
)

// StaticKey checks presented keys against one shared secret.
type StaticKey struct {
	digest [sha256.Size]byte
}

// NewStaticKey returns a verifier for key. An empty key is rejected.
func NewStaticKey(key string) (*StaticKey, error) {
	if key == "" {
		return nil, ErrNoKey
	}
	return &StaticKey{digest: sha256.Sum256([]byte(key))}, nil
}

// Verify returns nil when presented matches the configured key and
// filebox.ErrUnauthorized otherwise. Both sides are hashed before the
// constant-time comparison so the key length does not leak either.
func (k *StaticKey) Verify(presented string) error {
	digest := sha256.Sum256([]byte(presented))
	if presented == "" || subtle.ConstantTimeCompare(k.digest[:], digest[:]) != 1 {
		return fmt.Errorf("verify api key: %w", filebox.ErrUnauthorized)
	}
	return nil
}
