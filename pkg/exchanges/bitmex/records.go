package bitmex

import "margin-gateway/pkg/exchanges/common"

// positionRecord is the subset of the venue position table we read.
// Prices are null while no position is open.
type positionRecord struct {
	Symbol           string   `json:"symbol"`
	CurrentQty       int64    `json:"currentQty"`
	Leverage         float64  `json:"leverage"`
	CrossMargin      bool     `json:"crossMargin"`
	AvgEntryPrice    *float64 `json:"avgEntryPrice"`
	LiquidationPrice *float64 `json:"liquidationPrice"`
}

func (p positionRecord) project() common.Position {
	out := common.Position{
		Symbol:           p.Symbol,
		Size:             p.CurrentQty,
		Leverage:         p.Leverage,
		AvgEntryPrice:    deref(p.AvgEntryPrice),
		LiquidationPrice: deref(p.LiquidationPrice),
	}
	if p.CrossMargin {
		out.Leverage = 0
	}
	return out
}

// tradeRecord decodes only the fields that survive projection; timestamp,
// tickDirection, trdMatchID and the notional columns are dropped.
type tradeRecord struct {
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"`
	Size   int64   `json:"size"`
	Price  float64 `json:"price"`
}

func (t tradeRecord) project() common.Trade {
	return common.Trade{
		Symbol: t.Symbol,
		Side:   common.Side(t.Side),
		Size:   t.Size,
		Price:  t.Price,
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
