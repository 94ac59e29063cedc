package fines

import (
	"time"

	"github.com/shopspring/decimal"
)

// 支払い登録リクエスト（管理者のみ）
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"30000"`
	Method Method          `json:"method" binding:"required"`
	Notes  *string         `json:"notes,omitempty"`
}

type FineResponse struct {
	ID            int64           `json:"id"`
	ULID          string          `json:"fine_ulid"`
	TransactionID int64           `json:"transaction_id"`
	MemberID      int64           `json:"member_id"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	PaidAmount    decimal.Decimal `json:"paid_amount" swaggertype:"string"`
	Outstanding   decimal.Decimal `json:"outstanding" swaggertype:"string"`
	Paid          bool            `json:"paid"`
	PaymentDate   *time.Time      `json:"payment_date"`
	PaymentMethod *string         `json:"payment_method"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (f Fine) toDTO() FineResponse {
	resp := FineResponse{
		ID:            f.ID,
		ULID:          f.ULID,
		TransactionID: f.TransactionID,
		MemberID:      f.MemberID,
		Amount:        f.Amount,
		PaidAmount:    f.PaidAmount,
		Outstanding:   f.Outstanding(),
		Paid:          f.Paid,
		CreatedAt:     f.CreatedAt,
	}
	if f.PaymentDate.Valid {
		v := f.PaymentDate.Time
		resp.PaymentDate = &v
	}
	if f.PaymentMethod.Valid {
		v := f.PaymentMethod.String
		resp.PaymentMethod = &v
	}
	if f.Notes.Valid {
		v := f.Notes.String
		resp.Notes = &v
	}
	return resp
}
