package pannier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"
)

// RateLimitKeyPrefix is the reserved key namespace for limiter records.
// Records are ordinary objects: any client able to write the store can write
// them too. That boundary weakness is inherited from the design, not
// defended against here.
const RateLimitKeyPrefix = "ratelimit:"

// LimiterConfig holds the sliding-window parameters.
type LimiterConfig struct {
	// Window is the trailing window duration W.
	Window time.Duration
	// Max maps an action name to its per-window request cap. Actions
	// without an entry are not limited.
	Max map[string]int
}

// Limiter is a best-effort sliding-window rate limiter persisted inside the
// object store as JSON arrays of millisecond timestamps.
//
// The read-filter-append-write sequence is not atomic: two concurrent checks
// for the same (action, client) can both pass and each write back a list
// missing the other's timestamp, briefly admitting more than the cap. The
// store contract offers no compare-and-swap, so the race is tolerated rather
// than serialized. On any store failure the limiter fails open.
type Limiter struct {
	store  ObjectStore
	window time.Duration
	max    map[string]int
	now    func() time.Time
}

// NewLimiter creates a Limiter backed by store.
func NewLimiter(store ObjectStore, cfg LimiterConfig) *Limiter {
	return &Limiter{
		store:  store,
		window: cfg.Window,
		max:    cfg.Max,
		now:    time.Now,
	}
}

// Allow reports whether one more request for (action, clientID) fits in the
// current window, recording it if so. Over-limit attempts are not recorded:
// hammering a closed window does not extend it.
func (l *Limiter) Allow(ctx context.Context, action, clientID string) bool {
	maxN, limited := l.max[action]
	if !limited {
		return true
	}

	key := RecordKey(action, clientID)
	now := l.now()
	windowStart := now.Add(-l.window).UnixMilli()

	timestamps, err := l.readRecord(ctx, key)
	if err != nil {
		slog.Warn("rate limit read failed, allowing request", "key", key, "err", err)
		return true
	}

	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts > windowStart {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= maxN {
		slog.Debug("rate limit exceeded", "action", action, "client", clientID, "count", len(kept))
		return false
	}

	kept = append(kept, now.UnixMilli())
	if err := l.writeRecord(ctx, key, kept); err != nil {
		slog.Warn("rate limit write failed, allowing request", "key", key, "err", err)
	}

	return true
}

func (l *Limiter) readRecord(ctx context.Context, key string) ([]int64, error) {
	_, rc, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	var timestamps []int64
	if err := json.Unmarshal(raw, &timestamps); err != nil {
		return nil, err
	}
	return timestamps, nil
}

func (l *Limiter) writeRecord(ctx context.Context, key string, timestamps []int64) error {
	raw, err := json.Marshal(timestamps)
	if err != nil {
		return err
	}
	_, err = l.store.Put(ctx, key, "application/json", bytes.NewReader(raw))
	return err
}

// RecordKey returns the reserved store key for a limiter record.
func RecordKey(action, clientID string) string {
	return RateLimitKeyPrefix + action + ":" + clientID
}
