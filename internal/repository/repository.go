package repository

import (
	"context"

	"LedgerApi/internal/model"
)

// AccountStore maps account ids to their current balance.
// WriteBalance is conditional: it fails with model.ErrConflict when the
// stored balance no longer equals expected. The per-account lock in the
// service layer should make that unreachable; the condition is the last
// line of defense against a lock bug.
type AccountStore interface {
	CreateAccount(ctx context.Context) (string, error)
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
	WriteBalance(ctx context.Context, accountID string, expected, balance int64) error
}

// TransactionLog is the append-only transaction history. Append fails with
// model.ErrConflict when the reference already exists; there is no update
// or delete.
type TransactionLog interface {
	Append(ctx context.Context, tx model.Transaction) error
	ListByAccount(ctx context.Context, accountID string) ([]model.Transaction, error)
}

// LedgerRepository combines both stores and adds Commit, which persists the
// balance change and the transaction record as one atomic unit. Either both
// writes become visible or neither does.
type LedgerRepository interface {
	AccountStore
	TransactionLog
	Commit(ctx context.Context, expectedBalance int64, tx model.Transaction) error
}
