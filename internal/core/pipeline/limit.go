package pipeline

import (
	"context"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/repository"
	"github.com/shopspring/decimal"
)

// LimitCheckHandler is step 2: rejects transfers above the per-transfer
// maximum. Stateless; reads only the context and configuration.
type LimitCheckHandler struct {
	maxTransferLimit decimal.Decimal
	log              logger.Logger
}

func NewLimitCheckHandler(maxTransferLimit decimal.Decimal, log logger.Logger) *LimitCheckHandler {
	return &LimitCheckHandler{maxTransferLimit: maxTransferLimit, log: log}
}

func (h *LimitCheckHandler) Name() string { return "limit-check" }

func (h *LimitCheckHandler) Process(ctx context.Context, store repository.LedgerStore, txc *Context) error {
	amount := txc.Request.Amount
	if amount.GreaterThan(h.maxTransferLimit) {
		h.log.Warn("Transfer amount exceeds maximum limit",
			logger.StringField("amount", amount.String()),
			logger.StringField("limit", h.maxTransferLimit.String()))
		return ErrLimitExceeded
	}

	return nil
}
