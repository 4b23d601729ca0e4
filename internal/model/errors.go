package model

import (
	"errors"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrBusy              = errors.New("account is busy")
	ErrConflict          = errors.New("write conflict")
)
