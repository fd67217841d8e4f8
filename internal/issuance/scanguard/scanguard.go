package scanguard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-canteen/internal/models"
)

const pendingMarker = "pending"

// Guard remembers recently handled scan requests so a client retry with the
// same request key cannot debit the employee twice.
type Guard struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewGuard(client *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Guard{Client: client, TTL: ttl}
}

func Key(employeeID, requestKey string) string {
	return fmt.Sprintf("scan:%s:%s", employeeID, requestKey)
}

// Acquire claims key. It returns acquired=true when the caller owns the
// request. Otherwise it returns the ticket already issued for the key, or
// nil when the first request is still in flight.
func (g *Guard) Acquire(ctx context.Context, key string) (*models.Ticket, bool, error) {
	ok, err := g.Client.SetNX(ctx, key, pendingMarker, g.TTL).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	val, err := g.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		// expired between the two calls
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if val == pendingMarker {
		return nil, false, nil
	}

	var ticket models.Ticket
	if err := json.Unmarshal([]byte(val), &ticket); err != nil {
		return nil, false, fmt.Errorf("corrupt scan record %s: %w", key, err)
	}
	return &ticket, false, nil
}

// Complete stores the issued ticket under key for replay.
func (g *Guard) Complete(ctx context.Context, key string, ticket *models.Ticket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return g.Client.Set(ctx, key, data, g.TTL).Err()
}

// Release forgets key so the request can be tried again.
func (g *Guard) Release(ctx context.Context, key string) error {
	return g.Client.Del(ctx, key).Err()
}
