package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "IDEMPOTENCY:"
	lockValue = "LOCKED"
	lockTTL   = 24 * time.Hour
)

var (
	// ErrMissingRequestID is returned when the caller supplied no request id.
	ErrMissingRequestID = errors.New("request id is missing")
	// ErrAlreadyProcessed is returned when the request id was admitted before.
	ErrAlreadyProcessed = errors.New("request already processed")
)

// Guard is the distributed admission gate in front of every mutating
// operation. A request id is admitted at most once per TTL window. The lock
// is not released when the operation fails or times out: the underlying
// write may still have completed server-side.
type Guard struct {
	rdb *redis.Client
	log logger.Logger
}

func NewGuard(rdb *redis.Client, log logger.Logger) *Guard {
	return &Guard{rdb: rdb, log: log}
}

// Admit atomically claims the request id. The SETNX either creates the lock
// record (first submission) or observes the existing one (duplicate).
func (g *Guard) Admit(ctx context.Context, requestID string) error {
	if strings.TrimSpace(requestID) == "" {
		return ErrMissingRequestID
	}

	admitted, err := g.rdb.SetNX(ctx, keyPrefix+requestID, lockValue, lockTTL).Result()
	if err != nil {
		return fmt.Errorf("idempotency lock: %w", err)
	}

	if !admitted {
		g.log.Warn("Duplicate request blocked",
			logger.StringField("request_id", requestID))
		return fmt.Errorf("%w: %s", ErrAlreadyProcessed, requestID)
	}

	g.log.Debug("Request id locked",
		logger.StringField("request_id", requestID))
	return nil
}
