package fines

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCash       Method = "cash"
	MethodTransfer   Method = "transfer"
	MethodEWallet    Method = "e-wallet"
	MethodCreditCard Method = "credit_card"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodTransfer, MethodEWallet, MethodCreditCard:
		return true
	}
	return false
}

// Fine は fines テーブルの1行（MemberID は transactions から引く）。
// paid_amount <= amount、paid なら paid_amount >= amount
type Fine struct {
	ID            int64
	ULID          string
	TransactionID int64
	MemberID      int64
	Amount        decimal.Decimal
	PaidAmount    decimal.Decimal
	Paid          bool
	PaymentDate   sql.NullTime
	PaymentMethod sql.NullString
	Notes         sql.NullString
	CreatedAt     time.Time
}

// Outstanding: 未払い残高
func (f *Fine) Outstanding() decimal.Decimal {
	rest := f.Amount.Sub(f.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

type FineFilter struct {
	MemberID   *int64
	UnpaidOnly bool
}
