package bitmex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"margin-gateway/pkg/exchanges/common"
	"margin-gateway/pkg/logger"
)

// authExpiry bounds how long a realtime auth signature stays valid.
const authExpiry = 60 * time.Second

// Realtime opens short-lived sessions against the venue's websocket API to
// read table snapshots.
type Realtime struct {
	URL    string
	dialer *websocket.Dialer
	now    func() time.Time
	log    *zap.Logger
}

// NewRealtime builds a session factory for the given realtime endpoint.
func NewRealtime(url string, log *zap.Logger) *Realtime {
	log = logger.OrNop(log)
	return &Realtime{
		URL:    url,
		dialer: websocket.DefaultDialer,
		now:    time.Now,
		log:    log,
	}
}

type realtimeOp struct {
	Op   string `json:"op"`
	Args []any  `json:"args"`
}

type realtimeMessage struct {
	Info    string          `json:"info"`
	Success *bool           `json:"success"`
	Status  int             `json:"status"`
	Error   string          `json:"error"`
	Table   string          `json:"table"`
	Action  string          `json:"action"`
	Data    json.RawMessage `json:"data"`
}

// Snapshot connects, authenticates when creds is non-nil, subscribes to
// topic and returns the data array of the first partial for its table.
// The session is closed before returning.
func (r *Realtime) Snapshot(ctx context.Context, creds *common.Credentials, topic string) (json.RawMessage, error) {
	op := "subscribe " + topic

	conn, resp, err := r.dialer.DialContext(ctx, r.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, &common.UpstreamError{Kind: errorKind(resp.StatusCode, ""), Op: op, Status: resp.StatusCode, Err: err}
		}
		return nil, transportError(ctx, op, err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
		_ = conn.SetWriteDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if creds != nil {
		expires := r.now().Add(authExpiry).Unix()
		sig := Sign(creds.APISecret, "GET", "/realtime", expires, nil)
		if err := conn.WriteJSON(realtimeOp{Op: "authKeyExpires", Args: []any{creds.APIKey, expires, sig}}); err != nil {
			return nil, transportError(ctx, op, err)
		}
	}
	if err := conn.WriteJSON(realtimeOp{Op: "subscribe", Args: []any{topic}}); err != nil {
		return nil, transportError(ctx, op, err)
	}

	table, _, _ := strings.Cut(topic, ":")
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, transportError(ctx, op, err)
		}

		var msg realtimeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, &common.UpstreamError{Kind: common.KindBadResponse, Op: op, Err: fmt.Errorf("decode frame: %w", err)}
		}
		switch {
		case msg.Error != "":
			return nil, &common.UpstreamError{Kind: errorKind(msg.Status, msg.Error), Op: op, Status: msg.Status, Message: msg.Error}
		case msg.Table == table && msg.Action == "partial":
			if len(msg.Data) == 0 {
				return nil, &common.UpstreamError{Kind: common.KindBadResponse, Op: op, Message: "partial without data"}
			}
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return msg.Data, nil
		default:
			r.log.Debug("realtime frame skipped", zap.String("topic", topic), zap.String("table", msg.Table), zap.String("action", msg.Action))
		}
	}
}

// errorKind classifies a venue error reply. The venue answers an unknown
// symbol with a 400, so the message decides not-found. A 404 without a
// venue message means the endpoint itself is missing.
func errorKind(status int, message string) common.ErrorKind {
	m := strings.ToLower(message)
	switch {
	case status == 404 && message == "":
		return common.KindUnavailable
	case status != 0 && status != 400:
		return common.KindForStatus(status)
	case strings.Contains(m, "unknown or expired symbol"), strings.Contains(m, "not found"):
		return common.KindNotFound
	default:
		return common.KindRejected
	}
}

// transportError classifies a network failure. Deadline expiry, whether
// from ctx or a socket deadline, is a timeout.
func transportError(ctx context.Context, op string, err error) error {
	var ne net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		return &common.UpstreamError{Kind: common.KindTimeout, Op: op, Err: err}
	default:
		return &common.UpstreamError{Kind: common.KindUnavailable, Op: op, Err: err}
	}
}
