package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest is the body of POST /api/v1/wallets/transfer.
type TransferRequest struct {
	FromWalletID string          `json:"fromWalletId"`
	ToWalletID   string          `json:"toWalletId"`
	Amount       decimal.Decimal `json:"amount"`
	Remark       string          `json:"remark,omitempty"`
}

// TopUpRequest is the body of POST /api/v1/wallets/topup.
type TopUpRequest struct {
	WalletID    string          `json:"walletId"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"` // e.g. BANK_FPX
	ReferenceID string          `json:"referenceId"`
}

// InitializeWalletRequest is the body of POST /api/v1/wallets/initialize.
type InitializeWalletRequest struct {
	UserID   string `json:"userId"`
	Currency string `json:"currency"`
}

// WalletResponse is returned by transfer and initialize.
type WalletResponse struct {
	WalletID string          `json:"walletId"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
}

// TopUpResponse is returned by topup.
type TopUpResponse struct {
	TransactionID string          `json:"transactionId"`
	NewBalance    decimal.Decimal `json:"newBalance"`
	Currency      string          `json:"currency"`
}

// TransactionHistory is one line of a wallet's history projection.
type TransactionHistory struct {
	TransactionID string          `json:"transactionId"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// WalletHistoryResponse is returned by GET history.
type WalletHistoryResponse struct {
	WalletID       string               `json:"walletId"`
	CurrentBalance decimal.Decimal      `json:"currentBalance"`
	Currency       string               `json:"currency"`
	Transactions   []TransactionHistory `json:"transactions"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
