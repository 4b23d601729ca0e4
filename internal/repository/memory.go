package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"LedgerApi/internal/model"
)

// MemoryRepository keeps the ledger in process memory. It implements the
// same contract as PostgresRepository and backs the service in tests and
// when no database is configured. All state is guarded by a single mutex;
// callers receive value snapshots, never internal references.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]model.Account
	byRef    map[string]struct{}
	history  map[string][]model.Transaction

	// beforeAppend, when set, runs between the balance write and the
	// transaction append inside Commit. Tests use it to verify that a
	// fault at that point leaves no partial state behind.
	beforeAppend func() error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]model.Account),
		byRef:    make(map[string]struct{}),
		history:  make(map[string][]model.Transaction),
	}
}

func (r *MemoryRepository) CreateAccount(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	r.accounts[id] = model.Account{ID: id, Balance: 0, CreatedAt: time.Now().UTC()}
	return id, nil
}

func (r *MemoryRepository) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return model.Account{}, model.ErrAccountNotFound
	}
	return a, nil
}

func (r *MemoryRepository) WriteBalance(ctx context.Context, accountID string, expected, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeBalanceLocked(accountID, expected, balance)
}

// errNegativeBalance mirrors the CHECK (balance >= 0) constraint of the
// accounts table, so the in-memory backend rejects what Postgres would.
var errNegativeBalance = errors.New("balance must not be negative")

func (r *MemoryRepository) writeBalanceLocked(accountID string, expected, balance int64) error {
	if balance < 0 {
		return errNegativeBalance
	}
	a, ok := r.accounts[accountID]
	if !ok {
		return model.ErrAccountNotFound
	}
	if a.Balance != expected {
		return model.ErrConflict
	}
	a.Balance = balance
	r.accounts[accountID] = a
	return nil
}

func (r *MemoryRepository) Append(ctx context.Context, tx model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendLocked(tx)
}

func (r *MemoryRepository) appendLocked(tx model.Transaction) error {
	if _, dup := r.byRef[tx.Reference]; dup {
		return model.ErrConflict
	}
	r.byRef[tx.Reference] = struct{}{}
	r.history[tx.AccountID] = append(r.history[tx.AccountID], tx)
	return nil
}

func (r *MemoryRepository) ListByAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txs := r.history[accountID]
	out := make([]model.Transaction, len(txs))
	copy(out, txs)
	return out, nil
}

// Commit applies the balance write and the transaction append under one
// critical section. If any step fails the balance is restored, so no
// partial state is ever observable.
func (r *MemoryRepository) Commit(ctx context.Context, expectedBalance int64, tx model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writeBalanceLocked(tx.AccountID, expectedBalance, tx.ResultingBalance); err != nil {
		return err
	}
	if r.beforeAppend != nil {
		if err := r.beforeAppend(); err != nil {
			r.rollbackBalanceLocked(tx.AccountID, expectedBalance)
			return err
		}
	}
	if err := r.appendLocked(tx); err != nil {
		r.rollbackBalanceLocked(tx.AccountID, expectedBalance)
		return err
	}
	return nil
}

func (r *MemoryRepository) rollbackBalanceLocked(accountID string, balance int64) {
	a := r.accounts[accountID]
	a.Balance = balance
	r.accounts[accountID] = a
}
