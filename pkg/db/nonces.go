package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LoadNonce returns the highest nonce issued for keyID, or 0 if none.
func (d *Database) LoadNonce(ctx context.Context, keyID string) (int64, error) {
	var v int64
	err := d.DB.QueryRowContext(ctx, `SELECT last_value FROM nonces WHERE key_id = ?`, keyID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query nonce: %w", err)
	}
	return v, nil
}

// SaveNonce records v as the high-water mark for keyID. The stored value
// never moves backwards.
func (d *Database) SaveNonce(ctx context.Context, keyID string, v int64) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO nonces (key_id, last_value) VALUES (?, ?)
		ON CONFLICT(key_id) DO UPDATE SET last_value = MAX(last_value, excluded.last_value)
	`, keyID, v)
	if err != nil {
		return fmt.Errorf("save nonce: %w", err)
	}
	return nil
}
