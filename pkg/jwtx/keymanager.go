package jwtx

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/seroft/pharmhub-auth/pkg/cryptox"
)

const (
	defaultNumKeys = 3
	maxNumKeys     = 10
)

// KeyManager owns an instance's signing keys and the verifier for them.
//
// Keys are ephemeral: generated at start and kept only in memory, so every
// issued token dies with the process. That matches session semantics here,
// since sessions must be re-established after a server restart anyway.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures NewEphemeralKeyManager.
type KeyManagerOptions struct {
	Issuer   string
	Audience []string

	// NumKeys defaults to 3 and is capped at 10. Signing picks one at random.
	NumKeys int

	VerifyOptions VerifyOptions
}

// NewEphemeralKeyManager generates NumKeys Ed25519 keys.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: issuer is required")
	}

	n := opts.NumKeys
	if n <= 0 {
		n = defaultNumKeys
	}
	n = min(n, maxNumKeys)

	keys := NewKeySet()
	signers := make([]Signer, 0, n)
	for i := range n {
		kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return nil, fmt.Errorf("jwtx: key id: %w", err)
		}
		pemKey, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, err
		}
		s, err := NewSignerEdDSA("pharmhub-"+kid, pemKey)
		if err != nil {
			return nil, fmt.Errorf("jwtx: signer %d: %w", i+1, err)
		}
		if err := keys.AddSigner(s); err != nil {
			return nil, err
		}
		signers = append(signers, s)
	}

	vopts := opts.VerifyOptions
	vopts.Issuer = opts.Issuer
	vopts.Audience = opts.Audience

	return &KeyManager{
		Verifier: NewVerifierEdDSA(keys, vopts),
		KeySet:   keys,
		signers:  signers,
	}, nil
}

// GetSigner picks one of the signing keys at random.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	switch len(km.signers) {
	case 0:
		return nil
	case 1:
		return km.signers[0]
	}
	return km.signers[rand.IntN(len(km.signers))]
}

// NumSigners is the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// IsReady reports whether tokens can be signed and verified.
func (km *KeyManager) IsReady() bool {
	return km.NumSigners() > 0 && km.KeySet.Len() > 0
}

// Sign signs claims with a random key.
func (km *KeyManager) Sign(c Claims) (string, error) {
	s := km.GetSigner()
	if s == nil {
		return "", errors.New("jwtx: no signing keys")
	}
	return s.Sign(c)
}
