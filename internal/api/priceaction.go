package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"margin-gateway/internal/hypermedia"
	"margin-gateway/pkg/exchanges/common"
)

func (s *Server) getPriceAction(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		s.fail(c, fmt.Errorf("%w: symbol query parameter is required", errValidation))
		return
	}

	trades, err := s.recentTrades(c, symbol)
	if err != nil {
		s.fail(c, err)
		return
	}

	items := make([]hypermedia.Document, 0, len(trades))
	for _, t := range trades {
		items = append(items, hypermedia.New(map[string]any{
			"symbol": t.Symbol,
			"side":   string(t.Side),
			"size":   t.Size,
			"price":  t.Price,
		}))
	}
	doc := hypermedia.New(map[string]any{"symbol": symbol}).
		With(
			hypermedia.Self(hypermedia.PriceActionPath(symbol)),
			hypermedia.Up(hypermedia.EntryPath(), "Entry"),
		).
		WithItems(items...)
	respond(c, http.StatusOK, doc)
}

func (s *Server) recentTrades(c *gin.Context, symbol string) ([]common.Trade, error) {
	if trades, ok := s.Trades.Get(symbol); ok {
		return trades, nil
	}
	start := time.Now()
	trades, err := s.Venue.RecentTrades(c.Request.Context(), symbol)
	s.observeVenue(c, "trades", start, err)
	if err != nil {
		return nil, err
	}
	s.Trades.Set(symbol, trades)
	return trades, nil
}
