package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"LedgerApi/internal/lock"
	"LedgerApi/internal/model"
	"LedgerApi/internal/repository"
)

// LedgerService is the only writer of account balances and transaction
// records. Deposits and withdrawals run under the per-account lock and
// commit the balance change and the transaction record as one unit.
type LedgerService interface {
	CreateAccount(ctx context.Context) (string, error)
	GetBalance(ctx context.Context, accountID string) (int64, error)
	Deposit(ctx context.Context, accountID string, amount int64) (model.Receipt, error)
	Withdraw(ctx context.Context, accountID string, amount int64) (model.Receipt, error)
	ListTransactions(ctx context.Context, accountID string) ([]model.Transaction, error)
}

type ledgerService struct {
	repo  repository.LedgerRepository
	locks *lock.Manager
	log   zerolog.Logger
}

func NewLedgerService(repo repository.LedgerRepository, locks *lock.Manager, log zerolog.Logger) LedgerService {
	return &ledgerService{
		repo:  repo,
		locks: locks,
		log:   log,
	}
}

func (s *ledgerService) CreateAccount(ctx context.Context) (string, error) {
	accountID, err := s.repo.CreateAccount(ctx)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	s.log.Info().Str("account_id", accountID).Msg("account created")
	return accountID, nil
}

// GetBalance is a single-field read and takes no lock.
func (s *ledgerService) GetBalance(ctx context.Context, accountID string) (int64, error) {
	a, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("get balance for account %s: %w", accountID, err)
	}
	return a.Balance, nil
}

func (s *ledgerService) Deposit(ctx context.Context, accountID string, amount int64) (model.Receipt, error) {
	return s.process(ctx, accountID, amount, model.Deposit)
}

func (s *ledgerService) Withdraw(ctx context.Context, accountID string, amount int64) (model.Receipt, error) {
	return s.process(ctx, accountID, amount, model.Withdrawal)
}

func (s *ledgerService) ListTransactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, fmt.Errorf("list transactions for account %s: %w", accountID, err)
	}
	txs, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for account %s: %w", accountID, err)
	}
	return txs, nil
}

func (s *ledgerService) process(ctx context.Context, accountID string, amount int64, op model.TransactionType) (model.Receipt, error) {
	if amount <= 0 {
		return model.Receipt{}, fmt.Errorf("%s for account %s: %w", op, accountID, model.ErrInvalidAmount)
	}

	release, err := s.locks.Acquire(ctx, accountID)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("%s for account %s: %w", op, accountID, err)
	}
	defer release()

	a, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("%s for account %s: %w", op, accountID, err)
	}

	// The balance must stay representable in int64 minor units; a deposit
	// that would wrap past MaxInt64 is rejected before touching storage.
	if op == model.Deposit && amount > math.MaxInt64-a.Balance {
		return model.Receipt{}, fmt.Errorf("%s for account %s: %w", op, accountID, model.ErrInvalidAmount)
	}

	newBalance := a.Balance + amount
	if op == model.Withdrawal {
		if amount > a.Balance {
			return model.Receipt{}, fmt.Errorf("%s for account %s: %w", op, accountID, model.ErrInsufficientFunds)
		}
		newBalance = a.Balance - amount
	}

	tx := model.Transaction{
		ID:               uuid.NewString(),
		AccountID:        accountID,
		Type:             op,
		Amount:           amount,
		Reference:        newReference(op),
		ResultingBalance: newBalance,
		Status:           model.StatusCompleted,
		CreatedAt:        time.Now().UTC(),
	}

	err = s.repo.Commit(ctx, a.Balance, tx)
	if errors.Is(err, model.ErrConflict) {
		// Only a reference collision is worth retrying; if the stored
		// balance moved under the lock, the conditional write failed and
		// retrying with the same expected balance cannot succeed.
		cur, readErr := s.repo.GetAccount(ctx, accountID)
		if readErr == nil && cur.Balance == a.Balance {
			tx.Reference = newReference(op)
			err = s.repo.Commit(ctx, a.Balance, tx)
		}
	}
	if err != nil {
		s.log.Error().Err(err).
			Str("operation", string(op)).
			Str("account_id", accountID).
			Msg("commit failed")
		return model.Receipt{}, fmt.Errorf("%s for account %s: %w", op, accountID, err)
	}

	s.log.Info().
		Str("operation", string(op)).
		Str("account_id", accountID).
		Str("transaction_id", tx.ID).
		Int64("balance", newBalance).
		Msg("transaction committed")

	return model.Receipt{TransactionID: tx.ID, Balance: newBalance}, nil
}

// newReference builds a globally unique audit reference. The timestamp is
// kept for readability; uniqueness comes from the random UUID suffix, so
// two requests within the same clock tick cannot collide.
func newReference(op model.TransactionType) string {
	prefix := "DEP"
	if op == model.Withdrawal {
		prefix = "WDR"
	}
	return fmt.Sprintf("%s%d-%s", prefix, time.Now().UnixMilli(), uuid.NewString())
}
