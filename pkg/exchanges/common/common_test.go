package common

import (
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestParseSide(t *testing.T) {
	s, err := ParseSide("Buy")
	assert.NilError(t, err)
	assert.Equal(t, s, SideBuy)

	s, err = ParseSide("Sell")
	assert.NilError(t, err)
	assert.Equal(t, s, SideSell)

	_, err = ParseSide("buy")
	assert.ErrorContains(t, err, `invalid side "buy"`)
}

func TestKindForStatus(t *testing.T) {
	cases := map[int]ErrorKind{
		401: KindAuthRejected,
		403: KindAuthRejected,
		429: KindRateLimited,
		504: KindTimeout,
		502: KindUnavailable,
		503: KindUnavailable,
		400: KindRejected,
		404: KindNotFound,
		422: KindRejected,
	}
	for status, want := range cases {
		assert.Equal(t, KindForStatus(status), want, "status %d", status)
	}
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("connection reset")
	var err error = &UpstreamError{Kind: KindUnavailable, Op: "leverage", Status: 503, Message: "overloaded", Err: cause}
	wrapped := errors.Join(errors.New("outer"), err)

	kind, ok := KindOf(wrapped)
	assert.Assert(t, ok)
	assert.Equal(t, kind, KindUnavailable)
	assert.Assert(t, errors.Is(wrapped, cause))
	assert.ErrorContains(t, err, "venue leverage: unavailable (status 503): overloaded")

	_, ok = KindOf(errors.New("plain"))
	assert.Assert(t, !ok)
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(nil)
	rl.now = func() time.Time { return now }

	blocked, _ := rl.Blocked()
	assert.Assert(t, !blocked, "no information means not blocked")

	h := http.Header{}
	h.Set("x-ratelimit-limit", "60")
	h.Set("x-ratelimit-remaining", "0")
	h.Set("x-ratelimit-reset", strconv.FormatInt(now.Add(10*time.Second).Unix(), 10))
	rl.UpdateFromHeaders(h)

	blocked, wait := rl.Blocked()
	assert.Assert(t, blocked)
	assert.Equal(t, wait, 10*time.Second)

	now = now.Add(11 * time.Second)
	blocked, _ = rl.Blocked()
	assert.Assert(t, !blocked, "budget resets after x-ratelimit-reset")

	h.Set("x-ratelimit-remaining", "59")
	rl.UpdateFromHeaders(h)
	remaining, limit := rl.Usage()
	assert.Equal(t, remaining, 59)
	assert.Equal(t, limit, 60)

	rl.UpdateFromHeaders(http.Header{})
	remaining, _ = rl.Usage()
	assert.Equal(t, remaining, 59, "missing headers leave state untouched")
}
