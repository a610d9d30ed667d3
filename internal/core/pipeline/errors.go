package pipeline

import "errors"

var (
	ErrInvalidAmount       = errors.New("transfer amount must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer funds to the same wallet")
	ErrUnauthorized        = errors.New("caller does not own the sender wallet")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrLimitExceeded       = errors.New("transfer amount exceeds the maximum allowed limit")
	ErrConcurrencyConflict = errors.New("wallet state changed concurrently")
)
