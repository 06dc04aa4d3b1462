package app

import (
	"fmt"
	"log/slog"

	"github.com/seroft/pharmhub-auth/pkg/jwtx"
)

// InitAuthKeys generates the instance's Ed25519 signing keys.
//
// Keys live only in memory. A restart invalidates every issued token, and
// with it every session, which clients handle by logging in again.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	logger.Info("initializing ephemeral key manager", "num_keys", cfg.NumKeys)

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:  cfg.Issuer,
		NumKeys: cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
	}

	logger.Info("generated ephemeral signing keys",
		"num_keys", keyManager.NumSigners(),
		"issuer", cfg.Issuer,
	)
	return keyManager, nil
}
