package common

import "context"

// Venue abstracts the remote margin exchange. Every call is attempted at
// most once and honours ctx cancellation.
type Venue interface {
	Positions(ctx context.Context, creds Credentials) ([]Position, error)
	SetLeverage(ctx context.Context, creds Credentials, symbol string, leverage float64) (Position, error)
	RecentTrades(ctx context.Context, symbol string) ([]Trade, error)
}
