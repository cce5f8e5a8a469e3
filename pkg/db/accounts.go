package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateAccount inserts a new account. A clash on public id or display
// name is reported as ErrDuplicateKey.
func (d *Database) CreateAccount(ctx context.Context, a Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.KeyVersion == 0 {
		a.KeyVersion = 1
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO accounts (public_id, display_name, secret_hash, secret_sealed, key_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.PublicID, a.DisplayName, a.SecretHash, a.SecretSealed, a.KeyVersion, a.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert account: %w", translate(err))
	}
	return nil
}

// GetAccount looks up an account by public id.
func (d *Database) GetAccount(ctx context.Context, publicID string) (*Account, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT public_id, display_name, secret_hash, secret_sealed, key_version, created_at
		FROM accounts WHERE public_id = ?
	`, publicID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return a, nil
}

// ListAccounts returns every account in creation order.
func (d *Database) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT public_id, display_name, secret_hash, secret_sealed, key_version, created_at
		FROM accounts ORDER BY created_at, public_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account and all of its orders atomically.
func (d *Database) DeleteAccount(ctx context.Context, publicID string) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete account: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE account_id = ?`, publicID); err != nil {
		return fmt.Errorf("delete account orders: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE public_id = ?`, publicID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete account: %w", err)
	}
	return nil
}

// RotateAccountSecret replaces the sealed secret, e.g. after a master key rotation.
func (d *Database) RotateAccountSecret(ctx context.Context, publicID, sealed string, version int) error {
	res, err := d.DB.ExecContext(ctx, `
		UPDATE accounts SET secret_sealed = ?, key_version = ? WHERE public_id = ?
	`, sealed, version, publicID)
	if err != nil {
		return fmt.Errorf("update account secret: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account secret: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*Account, error) {
	var (
		a       Account
		created int64
	)
	if err := s.Scan(&a.PublicID, &a.DisplayName, &a.SecretHash, &a.SecretSealed, &a.KeyVersion, &created); err != nil {
		return nil, err
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	return &a, nil
}
