package usecase_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/repository"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory LedgerStore used by the usecase tests.
type fakeStore struct {
	wallets  map[string]*models.Wallet
	requests []models.TransactionRequest
	entries  []models.JournalEntry
	outbox   []models.OutboxEvent

	staleSwap map[string]bool
}

func newFakeStore(wallets ...*models.Wallet) *fakeStore {
	s := &fakeStore{
		wallets:   make(map[string]*models.Wallet),
		staleSwap: make(map[string]bool),
	}
	for _, w := range wallets {
		copied := *w
		s.wallets[w.ID] = &copied
	}
	return s
}

func (s *fakeStore) clone() *fakeStore {
	c := &fakeStore{
		wallets:   make(map[string]*models.Wallet, len(s.wallets)),
		requests:  append([]models.TransactionRequest(nil), s.requests...),
		entries:   append([]models.JournalEntry(nil), s.entries...),
		outbox:    append([]models.OutboxEvent(nil), s.outbox...),
		staleSwap: s.staleSwap,
	}
	for id, w := range s.wallets {
		copied := *w
		c.wallets[id] = &copied
	}
	return c
}

func (s *fakeStore) GetWalletByID(_ context.Context, id string) (*models.Wallet, error) {
	w, ok := s.wallets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrWalletNotFound, id)
	}
	copied := *w
	return &copied, nil
}

func (s *fakeStore) GetWalletByUserID(_ context.Context, userID string) (*models.Wallet, error) {
	for _, w := range s.wallets {
		if w.UserID == userID {
			copied := *w
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", repository.ErrWalletNotFound, userID)
}

func (s *fakeStore) CreateWallet(_ context.Context, wallet *models.Wallet) error {
	copied := *wallet
	s.wallets[wallet.ID] = &copied
	return nil
}

func (s *fakeStore) UpdateWalletBalance(_ context.Context, walletID string, newBalance decimal.Decimal, expectedVersion int64) (bool, error) {
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

func (s *fakeStore) InsertTransactionRequest(_ context.Context, req *models.TransactionRequest) error {
	for _, existing := range s.requests {
		if existing.RequestID == req.RequestID {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateRequest, req.RequestID)
		}
	}
	s.requests = append(s.requests, *req)
	return nil
}

func (s *fakeStore) InsertJournalEntry(_ context.Context, entry *models.JournalEntry) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeStore) InsertOutboxEvent(_ context.Context, event *models.OutboxEvent) error {
	s.outbox = append(s.outbox, *event)
	return nil
}

func (s *fakeStore) ListJournalEntries(_ context.Context, walletID string, limit int) ([]models.JournalEntry, error) {
	var out []models.JournalEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].WalletID == walletID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// fakeLedger gives WithinTx all-or-nothing semantics: the callback works on
// a clone that only replaces the live store when it returns nil.
type fakeLedger struct {
	*fakeStore
	txRuns int

	// conflictsLeft makes that many WithinTx runs observe a stale sender
	// swap before behaving normally again.
	conflictsLeft   int
	conflictsWallet string
}

func newFakeLedger(wallets ...*models.Wallet) *fakeLedger {
	return &fakeLedger{fakeStore: newFakeStore(wallets...)}
}

func (l *fakeLedger) WithinTx(_ context.Context, fn func(store repository.LedgerStore) error) error {
	l.txRuns++

	clone := l.fakeStore.clone()
	if l.conflictsLeft > 0 {
		l.conflictsLeft--
		clone.staleSwap = map[string]bool{l.conflictsWallet: true}
	}

	if err := fn(clone); err != nil {
		return err
	}

	clone.staleSwap = l.fakeStore.staleSwap
	*l.fakeStore = *clone
	return nil
}

// fakeResolver satisfies identity.Resolver.
type fakeResolver struct {
	name string
	err  error
}

func (r *fakeResolver) FetchDisplayName(_ context.Context, userID string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.name, nil
}

var errIdentityDown = errors.New("identity service: connection refused")
