package model

import "time"

// Account holds the current balance for one account.
// Balances are stored in minor currency units (e.g. cents) and are never negative.
type Account struct {
	ID        string    `json:"id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

type TransactionType string

const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is one immutable entry in the ledger. Records are written once
// and never updated; Reference is unique across the whole system.
type Transaction struct {
	ID               string            `json:"id"`
	AccountID        string            `json:"accountId"`
	Type             TransactionType   `json:"type"`
	Amount           int64             `json:"amount"`
	Reference        string            `json:"reference"`
	ResultingBalance int64             `json:"resultingBalance"`
	Status           TransactionStatus `json:"status"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// Receipt is returned to the caller after a committed deposit or withdrawal.
type Receipt struct {
	TransactionID string `json:"transactionId"`
	Balance       int64  `json:"balance"`
}
