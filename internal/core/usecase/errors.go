package usecase

import (
	"errors"

	"github.com/Pudd11ng/wallet/internal/core/pipeline"
	"github.com/Pudd11ng/wallet/internal/core/repository"
)

var (
	ErrInvalidAmount       = pipeline.ErrInvalidAmount
	ErrSelfTransfer        = pipeline.ErrSelfTransfer
	ErrUnauthorized        = pipeline.ErrUnauthorized
	ErrInsufficientFunds   = pipeline.ErrInsufficientFunds
	ErrLimitExceeded       = pipeline.ErrLimitExceeded
	ErrConcurrencyConflict = pipeline.ErrConcurrencyConflict
	ErrWalletNotFound      = repository.ErrWalletNotFound
	ErrDuplicateRequest    = repository.ErrDuplicateRequest

	ErrWalletExists        = errors.New("user already has an active wallet")
	ErrWalletInactive      = errors.New("wallet is not active")
	ErrIdentityUnavailable = errors.New("could not verify caller identity")
)
