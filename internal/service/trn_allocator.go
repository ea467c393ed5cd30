package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TRN numbers are seven digits; the sequence is seeded to the first free
// number above historical allocations.
const (
	trnSequenceKey = "trs:trn:sequence"
	trnFloor       = 1000000
	trnCeiling     = 9999999
)

// TRNAllocator hands out teacher reference numbers. Generate is called only
// once duplicate matching has confirmed no existing owner.
type TRNAllocator interface {
	Generate(ctx context.Context) (string, error)
}

// RedisTRNAllocator allocates TRNs from a Redis counter, which keeps
// allocation monotonic across instances without a store round-trip.
type RedisTRNAllocator struct {
	client *redis.Client
}

// NewRedisTRNAllocator constructs a RedisTRNAllocator.
func NewRedisTRNAllocator(client *redis.Client) *RedisTRNAllocator {
	return &RedisTRNAllocator{client: client}
}

// Generate increments the sequence and formats the next TRN.
func (a *RedisTRNAllocator) Generate(ctx context.Context) (string, error) {
	n, err := a.client.Incr(ctx, trnSequenceKey).Result()
	if err != nil {
		return "", fmt.Errorf("allocate trn: %w", err)
	}
	return FormatTRN(n)
}

// FormatTRN renders a sequence value as a seven-digit TRN.
func FormatTRN(n int64) (string, error) {
	if n < trnFloor {
		return "", fmt.Errorf("trn sequence not seeded: %d below floor", n)
	}
	if n > trnCeiling {
		return "", fmt.Errorf("trn sequence exhausted: %d", n)
	}
	return fmt.Sprintf("%07d", n), nil
}
