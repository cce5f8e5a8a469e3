package bitmex

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Sign returns hex(HMAC-SHA256(secret, METHOD+PATH+NONCE+BODY)).
// path includes the query string, if any.
func Sign(secret, method, path string, nonce int64, body []byte) string {
	return computeHmacSha256(secret, canonical(method, path, nonce, body))
}

func canonical(method, path string, nonce int64, body []byte) string {
	return method + path + strconv.FormatInt(nonce, 10) + string(body)
}

func computeHmacSha256(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// NonceStore persists the last nonce issued per API key.
type NonceStore interface {
	LoadNonce(ctx context.Context, keyID string) (int64, error)
	SaveNonce(ctx context.Context, keyID string, v int64) error
}

// Nonces issues strictly increasing nonces per API key. Values follow the
// microsecond clock and are bumped past the last issued value when the
// clock stalls or steps back. With a store, the high-water mark survives
// restarts.
type Nonces struct {
	mu    sync.Mutex
	last  map[string]int64
	store NonceStore
	now   func() time.Time
}

// NewNonces creates a generator. store may be nil for a process-local one.
func NewNonces(store NonceStore) *Nonces {
	return &Nonces{
		last:  make(map[string]int64),
		store: store,
		now:   time.Now,
	}
}

// Next reserves the next nonce for keyID. The value is persisted before it
// is returned.
func (n *Nonces) Next(ctx context.Context, keyID string) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	last, ok := n.last[keyID]
	if !ok && n.store != nil {
		stored, err := n.store.LoadNonce(ctx, keyID)
		if err != nil {
			return 0, fmt.Errorf("load nonce: %w", err)
		}
		last = stored
	}

	next := n.now().UnixMicro()
	if next <= last {
		next = last + 1
	}
	if n.store != nil {
		if err := n.store.SaveNonce(ctx, keyID, next); err != nil {
			return 0, fmt.Errorf("save nonce: %w", err)
		}
	}
	n.last[keyID] = next
	return next, nil
}
