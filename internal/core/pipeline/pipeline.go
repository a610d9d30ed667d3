package pipeline

import (
	"context"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/repository"
)

// Context is the per-request aggregate owned by exactly one chain run.
// Handlers fill in the wallet snapshots as the context moves down the
// chain; it is discarded once the run completes or fails.
type Context struct {
	RequestID     string
	TransactionID string
	CallerID      string
	CallerName    string
	Request       models.TransferRequest

	SenderWallet   *models.Wallet
	ReceiverWallet *models.Wallet
}

// Handler is one step of the transfer pipeline. Steps receive the store of
// the enclosing database transaction, so everything they write commits or
// rolls back together.
type Handler interface {
	Name() string
	Process(ctx context.Context, store repository.LedgerStore, txc *Context) error
}

// Chain runs handlers in the fixed order they were constructed with. The
// order is business policy, set once at startup.
type Chain struct {
	handlers []Handler
	log      logger.Logger
}

func NewChain(log logger.Logger, handlers ...Handler) *Chain {
	return &Chain{handlers: handlers, log: log}
}

func (c *Chain) Run(ctx context.Context, store repository.LedgerStore, txc *Context) error {
	for _, h := range c.handlers {
		c.log.Debug("Executing pipeline handler",
			logger.StringField("handler", h.Name()),
			logger.StringField("transaction_id", txc.TransactionID))
		if err := h.Process(ctx, store, txc); err != nil {
			return err
		}
	}
	return nil
}
