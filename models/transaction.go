package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionPurchase TransactionType = "purchase"
	TransactionRefund   TransactionType = "refund"
)

// Transaction is one balance-affecting entry of the wallet ledger.
// Amount is signed: debits are negative, credits positive.
type Transaction struct {
	ID          string          `json:"id" yaml:"id"`
	Type        TransactionType `json:"type" yaml:"type"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Date        time.Time       `json:"date" yaml:"date"`
	Description string          `json:"description" yaml:"description"`
}

// SignValid reports whether the amount's sign agrees with the type.
func (t Transaction) SignValid() bool {
	switch t.Type {
	case TransactionPurchase:
		return t.Amount.IsNegative()
	case TransactionDeposit, TransactionRefund:
		return t.Amount.IsPositive()
	default:
		return false
	}
}

type UserWallet struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}
