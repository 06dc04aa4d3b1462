package jwtx

import (
	"crypto/ed25519"
	"fmt"
	"sync"
)

// KeySet holds the public keys tokens are verified against. Safe for
// concurrent use.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PublicKey
}

func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]ed25519.PublicKey)}
}

// Add registers a public key under kid, replacing any previous key.
func (k *KeySet) Add(kid string, pub ed25519.PublicKey) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("jwtx: invalid Ed25519 public key size %d", len(pub))
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[kid] = pub
	return nil
}

// AddSigner registers the signer's public half.
func (k *KeySet) AddSigner(s Signer) error {
	return k.Add(s.KID(), s.PublicKey())
}

// Get returns the key for kid, or ErrUnknownKID.
func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pub, ok := k.keys[kid]; ok {
		return pub, nil
	}
	return nil, ErrUnknownKID
}

// Len is the number of keys held.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}
