package pipeline_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/pipeline"
	"github.com/Pudd11ng/wallet/internal/core/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	wallets  map[string]*models.Wallet
	requests []models.TransactionRequest
	entries  []models.JournalEntry
	outbox   []models.OutboxEvent

	// staleSwap forces the compare-and-swap on these wallet ids to report
	// zero rows, as if a concurrent writer got there first.
	staleSwap map[string]bool
}

func newMemStore(wallets ...*models.Wallet) *memStore {
	s := &memStore{
		wallets:   make(map[string]*models.Wallet),
		staleSwap: make(map[string]bool),
	}
	for _, w := range wallets {
		s.wallets[w.ID] = w
	}
	return s
}

func (s *memStore) GetWalletByID(_ context.Context, id string) (*models.Wallet, error) {
	w, ok := s.wallets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrWalletNotFound, id)
	}
	copied := *w
	return &copied, nil
}

func (s *memStore) GetWalletByUserID(_ context.Context, userID string) (*models.Wallet, error) {
	for _, w := range s.wallets {
		if w.UserID == userID {
			copied := *w
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", repository.ErrWalletNotFound, userID)
}

func (s *memStore) CreateWallet(_ context.Context, wallet *models.Wallet) error {
	copied := *wallet
	s.wallets[wallet.ID] = &copied
	return nil
}

func (s *memStore) UpdateWalletBalance(_ context.Context, walletID string, newBalance decimal.Decimal, expectedVersion int64) (bool, error) {
	if s.staleSwap[walletID] {
		return false, nil
	}
	w, ok := s.wallets[walletID]
	if !ok || w.Version != expectedVersion {
		return false, nil
	}
	w.Balance = newBalance
	w.Version++
	return true, nil
}

func (s *memStore) InsertTransactionRequest(_ context.Context, req *models.TransactionRequest) error {
	for _, existing := range s.requests {
		if existing.RequestID == req.RequestID {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateRequest, req.RequestID)
		}
	}
	s.requests = append(s.requests, *req)
	return nil
}

func (s *memStore) InsertJournalEntry(_ context.Context, entry *models.JournalEntry) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memStore) InsertOutboxEvent(_ context.Context, event *models.OutboxEvent) error {
	s.outbox = append(s.outbox, *event)
	return nil
}

func (s *memStore) ListJournalEntries(_ context.Context, walletID string, limit int) ([]models.JournalEntry, error) {
	var out []models.JournalEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].WalletID == walletID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func newWallet(id, userID, balance string, version int64) *models.Wallet {
	return &models.Wallet{
		ID:       id,
		UserID:   userID,
		Balance:  decimal.RequireFromString(balance),
		Currency: "USD",
		Status:   models.WalletStatusActive,
		Version:  version,
	}
}

func newChain(limit string) *pipeline.Chain {
	log := zap.NewNop()
	return pipeline.NewChain(log,
		pipeline.NewValidationHandler(log),
		pipeline.NewLimitCheckHandler(decimal.RequireFromString(limit), log),
		pipeline.NewLedgerUpdateHandler(log),
	)
}

func newTransferContext(amount string) *pipeline.Context {
	return &pipeline.Context{
		RequestID:     "R1",
		TransactionID: "TXN-TEST0001",
		CallerID:      "user-a",
		CallerName:    "Alice",
		Request: models.TransferRequest{
			FromWalletID: "W-A",
			ToWalletID:   "W-B",
			Amount:       decimal.RequireFromString(amount),
		},
	}
}

func TestChainTransferSuccess(t *testing.T) {
	store := newMemStore(
		newWallet("W-A", "user-a", "100.00", 3),
		newWallet("W-B", "user-b", "10.00", 7),
	)
	txc := newTransferContext("40.00")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	require.NoError(t, err)

	sender := store.wallets["W-A"]
	receiver := store.wallets["W-B"]
	assert.True(t, sender.Balance.Equal(decimal.RequireFromString("60.00")), "sender balance: %s", sender.Balance)
	assert.True(t, receiver.Balance.Equal(decimal.RequireFromString("50.00")), "receiver balance: %s", receiver.Balance)
	assert.Equal(t, int64(4), sender.Version)
	assert.Equal(t, int64(8), receiver.Version)

	// Double-entry: exactly one DEBIT and one CREDIT with equal amounts on
	// distinct wallets.
	require.Len(t, store.entries, 2)
	debit, credit := store.entries[0], store.entries[1]
	assert.Equal(t, models.EntryTypeDebit, debit.EntryType)
	assert.Equal(t, "W-A", debit.WalletID)
	assert.Equal(t, models.EntryTypeCredit, credit.EntryType)
	assert.Equal(t, "W-B", credit.WalletID)
	assert.True(t, debit.Amount.Equal(credit.Amount))
	assert.Equal(t, txc.TransactionID, debit.TransactionID)
	assert.Equal(t, txc.TransactionID, credit.TransactionID)

	require.Len(t, store.requests, 1)
	assert.Equal(t, models.TransactionTypeTransfer, store.requests[0].Type)
	assert.Equal(t, "R1", store.requests[0].RequestID)

	require.Len(t, store.outbox, 1)
	event := store.outbox[0]
	assert.Equal(t, models.TopicTransferEvents, event.Topic)
	assert.Equal(t, models.OutboxStatusPending, event.Status)
	assert.Contains(t, event.Payload, txc.TransactionID)
	assert.Contains(t, event.Payload, `"fromWalletId":"W-A"`)
	assert.Contains(t, event.Payload, `"toWalletId":"W-B"`)
}

func TestChainConservation(t *testing.T) {
	store := newMemStore(
		newWallet("W-A", "user-a", "100.00", 0),
		newWallet("W-B", "user-b", "10.00", 0),
	)

	total := func() decimal.Decimal {
		sum := decimal.Zero
		for _, w := range store.wallets {
			sum = sum.Add(w.Balance)
		}
		return sum
	}
	before := total()

	chain := newChain("10000.00")
	for i := 0; i < 5; i++ {
		txc := newTransferContext("7.25")
		txc.RequestID = fmt.Sprintf("R-%d", i)
		require.NoError(t, chain.Run(context.Background(), store, txc))
	}

	assert.True(t, total().Equal(before), "sum of balances changed: %s -> %s", before, total())
}

func TestChainRejectsNonPositiveAmount(t *testing.T) {
	store := newMemStore(
		newWallet("W-A", "user-a", "100.00", 0),
		newWallet("W-B", "user-b", "10.00", 0),
	)
	txc := newTransferContext("0")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, pipeline.ErrInvalidAmount)
	assert.Empty(t, store.entries)
	assert.Empty(t, store.outbox)
}

func TestChainRejectsSelfTransfer(t *testing.T) {
	store := newMemStore(newWallet("W-A", "user-a", "100.00", 0))
	txc := newTransferContext("10.00")
	txc.Request.ToWalletID = "W-A"

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, pipeline.ErrSelfTransfer)
	assert.True(t, store.wallets["W-A"].Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestChainRejectsUnknownSender(t *testing.T) {
	store := newMemStore(newWallet("W-B", "user-b", "10.00", 0))
	txc := newTransferContext("10.00")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
}

func TestChainRejectsUnknownReceiver(t *testing.T) {
	store := newMemStore(newWallet("W-A", "user-a", "100.00", 0))
	txc := newTransferContext("10.00")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
}

func TestChainRejectsForeignWallet(t *testing.T) {
	store := newMemStore(
		newWallet("W-A", "user-someone-else", "100.00", 0),
		newWallet("W-B", "user-b", "10.00", 0),
	)
	txc := newTransferContext("10.00")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, pipeline.ErrUnauthorized)
}

func TestChainRejectsInsufficientFunds(t *testing.T) {
	store := newMemStore(
		newWallet("W-A", "user-a", "5.00", 0),
		newWallet("W-B", "user-b", "10.00", 0),
	)
	txc := newTransferContext("10.00")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, pipeline.ErrInsufficientFunds)
	assert.Empty(t, store.entries)
}

func TestChainRejectsOverLimit(t *testing.T) {
	store := newMemStore(
		newWallet("W-A", "user-a", "20000.00", 0),
		newWallet("W-B", "user-b", "10.00", 0),
	)
	txc := newTransferContext("10000.01")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, pipeline.ErrLimitExceeded)
	assert.True(t, store.wallets["W-A"].Balance.Equal(decimal.RequireFromString("20000.00")))
	assert.Empty(t, store.entries)
	assert.Empty(t, store.outbox)
}

func TestChainConcurrencyConflictOnSender(t *testing.T) {
	store := newMemStore(
		newWallet("W-A", "user-a", "100.00", 0),
		newWallet("W-B", "user-b", "10.00", 0),
	)
	store.staleSwap["W-A"] = true
	txc := newTransferContext("10.00")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, pipeline.ErrConcurrencyConflict)
}

func TestChainConcurrencyConflictOnReceiver(t *testing.T) {
	store := newMemStore(
		newWallet("W-A", "user-a", "100.00", 0),
		newWallet("W-B", "user-b", "10.00", 0),
	)
	store.staleSwap["W-B"] = true
	txc := newTransferContext("10.00")

	err := newChain("10000.00").Run(context.Background(), store, txc)
	assert.ErrorIs(t, err, pipeline.ErrConcurrencyConflict)
}
