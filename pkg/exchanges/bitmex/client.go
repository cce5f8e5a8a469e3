// Package bitmex talks to a BitMEX-style margin venue: signed REST for
// mutations and realtime snapshots for reads.
package bitmex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"margin-gateway/pkg/exchanges/common"
	"margin-gateway/pkg/logger"
)

const (
	defaultTimeout  = 5 * time.Second
	maxResponseBody = 1 << 20

	leveragePath = "/api/v1/position/leverage"
)

var _ common.Venue = (*Client)(nil)

// Config holds venue endpoints.
type Config struct {
	RESTURL string
	WSURL   string
	// Timeout bounds each venue call, including the realtime handshake.
	Timeout time.Duration
}

// Client handles venue calls for any account; credentials are per call.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	nonces      *Nonces
	rateLimiter *common.RateLimiter
	realtime    *Realtime
	log         *zap.Logger
}

// NewClient creates a venue client. nonces must be shared by every client
// signing with the same keys.
func NewClient(cfg Config, nonces *Nonces, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	log = logger.OrNop(log)
	if nonces == nil {
		nonces = NewNonces(nil)
	}
	return &Client{
		cfg:         cfg,
		httpClient:  &http.Client{},
		nonces:      nonces,
		rateLimiter: common.NewRateLimiter(log),
		realtime:    NewRealtime(cfg.WSURL, log),
		log:         log,
	}
}

// Positions returns the account's positions from a realtime snapshot.
func (c *Client) Positions(ctx context.Context, creds common.Credentials) ([]common.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, err := c.realtime.Snapshot(ctx, &creds, "position")
	if err != nil {
		return nil, err
	}
	var recs []positionRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, &common.UpstreamError{Kind: common.KindBadResponse, Op: "positions", Err: err}
	}
	out := make([]common.Position, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.project())
	}
	return out, nil
}

// RecentTrades returns the venue's recent public trades for symbol.
func (c *Client) RecentTrades(ctx context.Context, symbol string) ([]common.Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, err := c.realtime.Snapshot(ctx, nil, "trade:"+symbol)
	if err != nil {
		return nil, err
	}
	var recs []tradeRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, &common.UpstreamError{Kind: common.KindBadResponse, Op: "trades", Err: err}
	}
	out := make([]common.Trade, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.project())
	}
	return out, nil
}

type leverageRequest struct {
	Symbol   string  `json:"symbol"`
	Leverage float64 `json:"leverage"`
}

// SetLeverage changes the leverage of the account's position in symbol.
// Leverage 0 switches the position to cross margin.
func (c *Client) SetLeverage(ctx context.Context, creds common.Credentials, symbol string, leverage float64) (common.Position, error) {
	body, err := json.Marshal(leverageRequest{Symbol: symbol, Leverage: leverage})
	if err != nil {
		return common.Position{}, fmt.Errorf("encode leverage request: %w", err)
	}
	raw, err := c.doSigned(ctx, creds, "leverage", http.MethodPost, leveragePath, body)
	if err != nil {
		return common.Position{}, err
	}
	var rec positionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return common.Position{}, &common.UpstreamError{Kind: common.KindBadResponse, Op: "leverage", Err: err}
	}
	return rec.project(), nil
}

type venueError struct {
	Error struct {
		Message string `json:"message"`
		Name    string `json:"name"`
	} `json:"error"`
}

// doSigned sends one signed request. It is never retried.
func (c *Client) doSigned(ctx context.Context, creds common.Credentials, op, method, path string, body []byte) ([]byte, error) {
	if blocked, wait := c.rateLimiter.Blocked(); blocked {
		return nil, &common.UpstreamError{Kind: common.KindRateLimited, Op: op, RetryAfter: wait, Message: "local budget exhausted"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	nonce, err := c.nonces.Next(ctx, creds.APIKey)
	if err != nil {
		return nil, fmt.Errorf("issue nonce: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.RESTURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", creds.APIKey)
	req.Header.Set("api-nonce", strconv.FormatInt(nonce, 10))
	req.Header.Set("api-signature", Sign(creds.APISecret, method, path, nonce, body))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, op, err)
	}
	defer res.Body.Close()

	c.rateLimiter.UpdateFromHeaders(res.Header)
	if remaining, limit := c.rateLimiter.Usage(); limit > 0 {
		c.log.Debug("venue rate budget", zap.String("op", op), zap.Int("remaining", remaining), zap.Int("limit", limit))
	}

	payload, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return nil, transportError(ctx, op, err)
	}
	if res.StatusCode >= 300 {
		ue := &common.UpstreamError{Op: op, Status: res.StatusCode}
		var ve venueError
		if json.Unmarshal(payload, &ve) == nil {
			ue.Message = ve.Error.Message
		}
		ue.Kind = errorKind(res.StatusCode, ue.Message)
		if secs, err := strconv.Atoi(res.Header.Get("Retry-After")); err == nil {
			ue.RetryAfter = time.Duration(secs) * time.Second
		}
		c.log.Warn("venue call failed", zap.String("op", op), zap.Int("status", res.StatusCode), zap.String("message", ue.Message))
		return nil, ue
	}
	return payload, nil
}
