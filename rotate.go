package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"margin-gateway/pkg/crypto"
	"margin-gateway/pkg/db"
)

type secretStore interface {
	ListAccounts(ctx context.Context) ([]db.Account, error)
	RotateAccountSecret(ctx context.Context, publicID, sealed string, version int) error
}

// resealAccounts moves every sealed secret not yet on the keyring's current
// version onto it. It returns the number of accounts updated.
func resealAccounts(ctx context.Context, store secretStore, kr *crypto.Keyring, zl *zap.Logger) (int, error) {
	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	current := kr.CurrentVersion()
	n := 0
	for _, a := range accounts {
		if crypto.SealedVersion(a.SecretSealed) == current {
			continue
		}
		sealed, err := kr.Reseal(a.SecretSealed, a.PublicID)
		if err != nil {
			return n, fmt.Errorf("reseal %s: %w", a.PublicID, err)
		}
		if err := store.RotateAccountSecret(ctx, a.PublicID, sealed, current); err != nil {
			return n, fmt.Errorf("store %s: %w", a.PublicID, err)
		}
		zl.Debug("resealed account secret", zap.String("account", a.PublicID), zap.Int("version", current))
		n++
	}
	return n, nil
}
