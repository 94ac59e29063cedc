package fines

import (
	"context"
	"crypto/rand"
	"log"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

func errAlreadyPaid() error {
	return apperr.New(apperr.CodeFineAlreadyPaid, "Fine already paid")
}

type Service struct {
	db    *db.DB
	store *Store
	now   func() time.Time
}

func NewService(conn *db.DB) *Service {
	return &Service{
		db:    conn,
		store: NewStore(conn),
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CreateFineTx は返却処理の Tx の中で延滞金レコードを作る
func (s *Service) CreateFineTx(ctx context.Context, tx db.DBTX, transactionID int64, amount int64, now time.Time) error {
	if amount <= 0 {
		return nil
	}
	id := ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String()
	f := newFine(id, transactionID, amount, now)
	if err := s.store.InsertTx(ctx, tx, f); err != nil {
		return err
	}
	log.Printf("[INFO] fine created fine=%s transaction=%d amount=%s", f.ULID, transactionID, f.Amount)
	return nil
}

const amountScale = 2

// RecordPayment は支払いを1件記録する（管理者のみ）。
// 残高を超える支払いは 422、完済済みなら FINE_ALREADY_PAID
func (s *Service) RecordPayment(ctx context.Context, p auth.Principal, key string, in PaymentRequest) (FineResponse, string, error) {
	if !p.Authenticated() {
		return FineResponse{}, "", apperr.Unauthorized("Unauthenticated")
	}
	if !p.IsAdmin() {
		return FineResponse{}, "", apperr.Forbidden("Forbidden. Admin access required.")
	}
	if !in.Amount.IsPositive() {
		return FineResponse{}, "", apperr.Invalid("amount must be greater than 0")
	}
	// DB 列は DECIMAL(12,2)。丸められると残高と paid がずれる
	if !in.Amount.Equal(in.Amount.Truncate(amountScale)) {
		return FineResponse{}, "", apperr.Invalid("amount must have at most 2 decimal places")
	}
	if !in.Method.Valid() {
		return FineResponse{}, "", apperr.Invalid("method must be one of cash, transfer, e-wallet, credit_card")
	}

	now := s.now()
	var out *Fine
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		f, err := s.store.GetByKeyTx(ctx, tx, key, true)
		if err != nil {
			return err
		}
		if f.Paid {
			return errAlreadyPaid()
		}
		if in.Amount.GreaterThan(f.Outstanding()) {
			return apperr.Invalid("amount exceeds outstanding fine " + f.Outstanding().String())
		}

		f.PaidAmount = f.PaidAmount.Add(in.Amount).Round(amountScale)
		f.Paid = f.PaidAmount.GreaterThanOrEqual(f.Amount)
		f.PaymentDate.Time, f.PaymentDate.Valid = now, true
		f.PaymentMethod.String, f.PaymentMethod.Valid = string(in.Method), true
		if in.Notes != nil && strings.TrimSpace(*in.Notes) != "" {
			f.Notes.String, f.Notes.Valid = strings.TrimSpace(*in.Notes), true
		}
		if err := s.store.UpdatePaymentTx(ctx, tx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return FineResponse{}, "", err
	}

	log.Printf("[INFO] fine payment fine=%s by=%d amount=%s method=%s paid=%t",
		out.ULID, p.ID, in.Amount, in.Method, out.Paid)

	msg := "Payment recorded"
	if out.Paid {
		msg = "Fine fully paid"
	}
	return out.toDTO(), msg, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, key string) (FineResponse, error) {
	if !p.Authenticated() {
		return FineResponse{}, apperr.Unauthorized("Unauthenticated")
	}
	f, err := s.store.GetByKeyTx(ctx, s.db, key, false)
	if err != nil {
		return FineResponse{}, err
	}
	if !auth.IsOwnerOrAdmin(p, f.MemberID) {
		return FineResponse{}, apperr.Forbidden("You are not allowed to access this fine")
	}
	return f.toDTO(), nil
}

// List: admin は全件（member_id 指定可）、member は自分の分だけ
func (s *Service) List(ctx context.Context, p auth.Principal, f FineFilter, pg db.Page) (db.ListResult[FineResponse], error) {
	if !p.Authenticated() {
		return db.ListResult[FineResponse]{}, apperr.Unauthorized("Unauthenticated")
	}
	if !p.IsAdmin() {
		id := p.ID
		f.MemberID = &id
	}
	pg = pg.Normalize()
	rows, total, err := s.store.List(ctx, f, pg)
	if err != nil {
		return db.ListResult[FineResponse]{}, err
	}
	items := make([]FineResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toDTO())
	}
	return db.ListResult[FineResponse]{Items: items, Total: total, NextOffset: pg.NextOffset(total)}, nil
}
