package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrder inserts an order owned by o.AccountID. A missing owner is
// reported as ErrNotFound, a reused id as ErrDuplicateKey.
func (d *Database) CreateOrder(ctx context.Context, o Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO orders (id, account_id, symbol, side, size, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.AccountID, o.Symbol, o.Side, o.Size, o.Price.String(), o.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert order: %w", translate(err))
	}
	return nil
}

// GetOrder returns the order only if it belongs to accountID.
func (d *Database) GetOrder(ctx context.Context, accountID, orderID string) (*Order, error) {
	row := d.DB.QueryRowContext(ctx, `
		SELECT id, account_id, symbol, side, size, price, created_at
		FROM orders WHERE id = ? AND account_id = ?
	`, orderID, accountID)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return o, nil
}

// ListOrdersByAccount returns the account's orders oldest first.
func (d *Database) ListOrdersByAccount(ctx context.Context, accountID string) ([]Order, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, account_id, symbol, side, size, price, created_at
		FROM orders WHERE account_id = ?
		ORDER BY created_at, id
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// DeleteOrder removes an order owned by accountID.
func (d *Database) DeleteOrder(ctx context.Context, accountID, orderID string) error {
	res, err := d.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = ? AND account_id = ?`, orderID, accountID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(s scanner) (*Order, error) {
	var (
		o       Order
		price   string
		created int64
	)
	if err := s.Scan(&o.ID, &o.AccountID, &o.Symbol, &o.Side, &o.Size, &price, &created); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	o.Price = p
	o.CreatedAt = time.UnixMilli(created).UTC()
	return &o, nil
}
