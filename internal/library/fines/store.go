package fines

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/db"
)

type Store struct {
	db *db.DB
}

func NewStore(conn *db.DB) *Store { return &Store{db: conn} }

var fineColumns = []any{
	goqu.I("f.id"), goqu.I("f.fine_ulid"), goqu.I("f.transaction_id"), goqu.I("t.member_id"),
	goqu.I("f.amount"), goqu.I("f.paid_amount"), goqu.I("f.paid"), goqu.I("f.payment_date"),
	goqu.I("f.payment_method"), goqu.I("f.notes"), goqu.I("f.created_at"),
}

const fineSelect = `
	SELECT f.id, f.fine_ulid, f.transaction_id, t.member_id, f.amount, f.paid_amount, f.paid,
	f.payment_date, f.payment_method, f.notes, f.created_at
	FROM fines f JOIN transactions t ON t.id = f.transaction_id`

func scanFine(row interface{ Scan(...any) error }) (*Fine, error) {
	var f Fine
	if err := row.Scan(
		&f.ID, &f.ULID, &f.TransactionID, &f.MemberID, &f.Amount, &f.PaidAmount, &f.Paid,
		&f.PaymentDate, &f.PaymentMethod, &f.Notes, &f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) InsertTx(ctx context.Context, tx db.DBTX, f *Fine) error {
	const q = `
	INSERT INTO fines (fine_ulid, transaction_id, amount, paid_amount, paid, created_at)
	VALUES (?, ?, ?, ?, 0, ?)`
	res, err := tx.ExecContext(ctx, q, f.ULID, f.TransactionID, f.Amount, f.PaidAmount, f.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Invariant("fine already exists for transaction")
		}
		return pkgerrors.Wrap(err, "insert fine")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.Wrap(err, "fine id")
	}
	f.ID = id
	return nil
}

// GetByKeyTx は id / ULID で取得。lock=true なら行ロック
func (s *Store) GetByKeyTx(ctx context.Context, tx db.DBTX, key string, lock bool) (*Fine, error) {
	q := fineSelect
	var arg any = key
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		q += ` WHERE f.id = ?`
		arg = id
	} else {
		q += ` WHERE f.fine_ulid = ?`
	}
	if lock {
		q += s.db.Dialect.ForUpdate()
	}
	f, err := scanFine(tx.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeFineNotFound, "Fine not found")
		}
		return nil, pkgerrors.Wrap(err, "select fine")
	}
	return f, nil
}

func (s *Store) GetByTransaction(ctx context.Context, transactionID int64) (*Fine, error) {
	f, err := scanFine(s.db.QueryRowContext(ctx, fineSelect+` WHERE f.transaction_id = ?`, transactionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeFineNotFound, "Fine not found")
		}
		return nil, pkgerrors.Wrap(err, "select fine")
	}
	return f, nil
}

// UpdatePaymentTx は支払い結果を書き込む。完済済みの行は更新しない
func (s *Store) UpdatePaymentTx(ctx context.Context, tx db.DBTX, f *Fine) error {
	const q = `
	UPDATE fines
	SET paid_amount = ?, paid = ?, payment_date = ?, payment_method = ?, notes = ?
	WHERE id = ? AND paid = 0`
	res, err := tx.ExecContext(ctx, q, f.PaidAmount, f.Paid, f.PaymentDate, f.PaymentMethod, f.Notes, f.ID)
	if err != nil {
		return pkgerrors.Wrap(err, "update fine")
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "update fine")
	}
	if aff != 1 {
		return errAlreadyPaid()
	}
	return nil
}

func (s *Store) List(ctx context.Context, f FineFilter, p db.Page) ([]Fine, int64, error) {
	ds := s.db.Dialect.Builder().
		From(goqu.T("fines").As("f")).
		Join(goqu.T("transactions").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("f.transaction_id")))).
		Prepared(true)

	var conds []exp.Expression
	if f.MemberID != nil {
		conds = append(conds, goqu.I("t.member_id").Eq(*f.MemberID))
	}
	if f.UnpaidOnly {
		conds = append(conds, goqu.I("f.paid").Eq(0))
	}
	if len(conds) > 0 {
		ds = ds.Where(conds...)
	}

	countQ, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "build count")
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count fines")
	}

	q, args, err := ds.Select(fineColumns...).
		Order(goqu.I("f.created_at").Desc(), goqu.I("f.id").Desc()).
		Limit(uint(p.Limit)).Offset(uint(p.Offset)).ToSQL()
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "build list")
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list fines")
	}
	defer rows.Close()

	var out []Fine
	for rows.Next() {
		fn, err := scanFine(rows)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(err, "scan fine")
		}
		out = append(out, *fn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list fines")
	}
	return out, total, nil
}

// newFine は返却時に作る未払いの延滞金
func newFine(id string, transactionID int64, amount int64, now time.Time) *Fine {
	return &Fine{
		ULID:          id,
		TransactionID: transactionID,
		Amount:        decimal.NewFromInt(amount),
		PaidAmount:    decimal.Zero,
		CreatedAt:     now,
	}
}
