package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"margin-gateway/internal/hypermedia"
	"margin-gateway/pkg/db"
	"margin-gateway/pkg/exchanges/common"
)

type patchPositionRequest struct {
	Leverage float64 `json:"leverage"`
}

func positionData(p common.Position) map[string]any {
	return map[string]any{
		"symbol":           p.Symbol,
		"size":             p.Size,
		"leverage":         p.Leverage,
		"avgEntryPrice":    p.AvgEntryPrice,
		"liquidationPrice": p.LiquidationPrice,
	}
}

// credentials opens the account's sealed secret for a venue call.
func (s *Server) credentials(acc *db.Account) (common.Credentials, error) {
	secret, err := s.Secrets.Open(acc.SecretSealed, acc.PublicID)
	if err != nil {
		return common.Credentials{}, fmt.Errorf("open secret for %s: %w", acc.PublicID, err)
	}
	return common.Credentials{APIKey: acc.PublicID, APISecret: secret}, nil
}

// observeVenue records metrics and logs for one venue call.
func (s *Server) observeVenue(c *gin.Context, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.Metrics.ObserveUpstream(op, elapsed, err)
	if err != nil {
		s.Log.Warn("venue call failed",
			zap.String("op", op),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
	}
}

func (s *Server) fetchPositions(c *gin.Context, acc *db.Account) ([]common.Position, error) {
	creds, err := s.credentials(acc)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	positions, err := s.Venue.Positions(c.Request.Context(), creds)
	s.observeVenue(c, "positions", start, err)
	return positions, err
}

func (s *Server) listPositions(c *gin.Context) {
	acc := accountFrom(c)
	positions, err := s.fetchPositions(c, acc)
	if err != nil {
		s.fail(c, err)
		return
	}
	items := make([]hypermedia.Document, 0, len(positions))
	for _, p := range positions {
		items = append(items, hypermedia.New(positionData(p)).
			With(hypermedia.Self(hypermedia.PositionPath(acc.PublicID, p.Symbol))))
	}
	doc := hypermedia.New(nil).
		With(
			hypermedia.Self(hypermedia.PositionsPath(acc.PublicID)),
			hypermedia.Up(hypermedia.AccountPath(acc.PublicID), "Account"),
		).
		WithItems(items...)
	respond(c, http.StatusOK, doc)
}

func (s *Server) getPosition(c *gin.Context) {
	acc := accountFrom(c)
	symbol := c.Param("symbol")
	positions, err := s.fetchPositions(c, acc)
	if err != nil {
		s.fail(c, err)
		return
	}
	for _, p := range positions {
		if p.Symbol != symbol {
			continue
		}
		doc := hypermedia.New(positionData(p)).
			With(
				hypermedia.Self(hypermedia.PositionPath(acc.PublicID, symbol)),
				hypermedia.Collection(hypermedia.PositionsPath(acc.PublicID)),
				hypermedia.EditPosition(acc.PublicID, symbol),
			)
		respond(c, http.StatusOK, doc)
		return
	}
	s.fail(c, fmt.Errorf("%w: no position in %s", db.ErrNotFound, symbol))
}

func (s *Server) patchPosition(c *gin.Context) {
	acc := accountFrom(c)
	var req patchPositionRequest
	if err := decodeBody(c, hypermedia.LeverageSchema, &req); err != nil {
		s.fail(c, err)
		return
	}
	creds, err := s.credentials(acc)
	if err != nil {
		s.fail(c, err)
		return
	}

	start := time.Now()
	_, err = s.Venue.SetLeverage(c.Request.Context(), creds, c.Param("symbol"), req.Leverage)
	s.observeVenue(c, "leverage", start, err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
