package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lib/pq"

	"LedgerApi/internal/model"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateAccount(ctx context.Context) (string, error) {
	var accountID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (balance) VALUES (0) RETURNING id::text`).Scan(&accountID)
	if err != nil {
		return "", fmt.Errorf("failed to create account: %w", err)
	}
	return accountID, nil
}

func (r *PostgresRepository) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	var a model.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id::text, balance, created_at FROM accounts WHERE id = $1`,
		accountID,
	).Scan(&a.ID, &a.Balance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) WriteBalance(ctx context.Context, accountID string, expected, balance int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance = $3 WHERE id = $1 AND balance = $2`,
		accountID, expected, balance,
	)
	if err != nil {
		return fmt.Errorf("balance update failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("balance update failed: %w", err)
	}
	if affected == 0 {
		return r.missOrConflict(ctx, accountID)
	}
	return nil
}

func (r *PostgresRepository) Append(ctx context.Context, tx model.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, type, amount, reference, resulting_balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.AccountID, tx.Type, tx.Amount, tx.Reference, tx.ResultingBalance, tx.Status, tx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("transaction append failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, account_id::text, type, amount, reference, resulting_balance, status, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at, id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Type, &tx.Amount,
			&tx.Reference, &tx.ResultingBalance, &tx.Status, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Commit applies the balance change and the transaction record inside a
// single database transaction, so a failure on either write leaves no
// partial state behind.
func (r *PostgresRepository) Commit(ctx context.Context, expectedBalance int64, tx model.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx,
		`UPDATE accounts SET balance = $3 WHERE id = $1 AND balance = $2`,
		tx.AccountID, expectedBalance, tx.ResultingBalance,
	)
	if err != nil {
		return fmt.Errorf("balance update failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("balance update failed: %w", err)
	}
	if affected == 0 {
		return r.missOrConflict(ctx, tx.AccountID)
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, type, amount, reference, resulting_balance, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.AccountID, tx.Type, tx.Amount, tx.Reference, tx.ResultingBalance, tx.Status, tx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrConflict
		}
		return fmt.Errorf("transaction append failed: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) missOrConflict(ctx context.Context, accountID string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`,
		accountID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("account existence check failed: %w", err)
	}
	if !exists {
		return model.ErrAccountNotFound
	}
	return model.ErrConflict
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *PostgresRepository) RunMigrations(ctx context.Context) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	migrationPath := filepath.Join(wd, "migrations", "001_init.sql")

	migration, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file at %s: %w", migrationPath, err)
	}

	if _, err := r.db.ExecContext(ctx, string(migration)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	return nil
}
