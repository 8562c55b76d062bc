package account

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("account: not found")
	ErrNegativeBalance   = errors.New("account: balance cannot be negative")
	ErrInvalidDebit      = errors.New("account: debit amount must be positive")
	ErrInsufficientFunds = errors.New("account: insufficient funds")
)

type AccountID string

// Account is the guest-side ledger. The engine only ever decrements the
// balance; deposits happen elsewhere.
type Account struct {
	ID      AccountID
	Balance decimal.Decimal
}

func New(id AccountID, balance decimal.Decimal) (*Account, error) {
	if id == "" {
		return nil, errors.New("account: id required")
	}
	if balance.IsNegative() {
		return nil, ErrNegativeBalance
	}
	return &Account{ID: id, Balance: balance}, nil
}

// Debit decrements the balance, refusing any debit that would take it below
// zero.
func (a *Account) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidDebit
	}
	next := a.Balance.Sub(amount)
	if next.IsNegative() {
		return ErrInsufficientFunds
	}
	a.Balance = next
	return nil
}

// Repository is the account-side ledger contract. Debit participates in the
// commit transaction and must enforce the non-negative balance invariant even
// if the caller already checked affordability.
type Repository interface {
	ByID(ctx context.Context, id AccountID) (*Account, error)
	Save(ctx context.Context, acct *Account) error
	Debit(ctx context.Context, id AccountID, amount decimal.Decimal) error
}
