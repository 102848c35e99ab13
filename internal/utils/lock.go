// Package utils holds small shared helpers with no domain knowledge.
package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when it still holds our token, so
// an expired lock re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReservationLock is a best-effort per-reservation mutex on Redis using
// SET NX PX. It serializes participant decisions and reassignments against
// the deadline sweep across processes. With a nil client every acquire
// succeeds immediately; the database row lock remains the correctness
// backstop.
type ReservationLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReservationLock builds a lock manager. client may be nil.
func NewReservationLock(client *redis.Client, ttl time.Duration) *ReservationLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &ReservationLock{client: client, ttl: ttl}
}

func lockKey(reservationID uint64) string {
	return fmt.Sprintf("lock:reservation:%d", reservationID)
}

// Acquire takes the per-reservation lock and returns a release function.
// It retries briefly before giving up with a conflict-flavored error.
func (l *ReservationLock) Acquire(ctx context.Context, reservationID uint64) (func(), error) {
	if l.client == nil {
		return func() {}, nil
	}
	key := lockKey(reservationID)
	token := uuid.NewString()

	deadline := time.Now().Add(l.ttl)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			// Redis being down must not take reservations down with it.
			return func() {}, nil
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("reservation %d is being modified concurrently", reservationID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
