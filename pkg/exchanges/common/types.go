package common

import "fmt"

// Side denotes order side as the venue spells it.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// ParseSide validates s as a venue side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid side %q: want Buy or Sell", s)
}

// Credentials is an account's venue API key pair.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Position is the projection of a venue position served to clients.
// Leverage 0 means cross margin.
type Position struct {
	Symbol           string  `json:"symbol"`
	Size             int64   `json:"size"`
	Leverage         float64 `json:"leverage"`
	AvgEntryPrice    float64 `json:"avgEntryPrice"`
	LiquidationPrice float64 `json:"liquidationPrice"`
}

// Trade is a public execution with venue bookkeeping fields removed.
type Trade struct {
	Symbol string  `json:"symbol"`
	Side   Side    `json:"side"`
	Size   int64   `json:"size"`
	Price  float64 `json:"price"`
}
