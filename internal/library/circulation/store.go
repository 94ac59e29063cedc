package circulation

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	pkgerrors "github.com/pkg/errors"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/db"
)

// Store は transactions テーブルのリポジトリ。
// 状態遷移に関わるものは呼び出し側の Tx（db.DBTX）の中で使う
type Store struct {
	db *db.DB
}

func NewStore(conn *db.DB) *Store { return &Store{db: conn} }

var transactionColumns = []any{
	"id", "transaction_ulid", "member_id", "book_id", "borrow_date", "due_date", "return_date",
	"status", "days_late", "fine_amount", "notes", "returned_by", "created_at", "updated_at",
}

const transactionSelect = `
	SELECT id, transaction_ulid, member_id, book_id, borrow_date, due_date, return_date,
	status, days_late, fine_amount, notes, returned_by, created_at, updated_at
	FROM transactions`

func scanTransaction(row interface{ Scan(...any) error }) (*Transaction, error) {
	var t Transaction
	if err := row.Scan(
		&t.ID, &t.ULID, &t.MemberID, &t.BookID, &t.BorrowDate, &t.DueDate, &t.ReturnDate,
		&t.Status, &t.DaysLate, &t.FineAmount, &t.Notes, &t.ReturnedBy, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// keyCondition: 数値なら id、それ以外は transaction_ulid として扱う
func keyCondition(key string) (string, any) {
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		return ` WHERE id = ?`, id
	}
	return ` WHERE transaction_ulid = ?`, key
}

func notFound() error {
	return apperr.NotFound(apperr.CodeTransactionNotFound, "Transaction not found")
}

// GetByKeyTx は id / ULID で1件取得する。lock=true なら行ロックを取る
func (s *Store) GetByKeyTx(ctx context.Context, tx db.DBTX, key string, lock bool) (*Transaction, error) {
	if key == "" {
		return nil, notFound()
	}
	where, arg := keyCondition(key)
	q := transactionSelect + where
	if lock {
		q += s.db.Dialect.ForUpdate()
	}
	t, err := scanTransaction(tx.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(err, "select transaction")
	}
	return t, nil
}

func (s *Store) GetByKey(ctx context.Context, key string) (*Transaction, error) {
	return s.GetByKeyTx(ctx, s.db, key, false)
}

// FindOpenTx: (member, book) の未返却貸出。無ければ nil
func (s *Store) FindOpenTx(ctx context.Context, tx db.DBTX, memberID, bookID int64) (*Transaction, error) {
	q := transactionSelect + ` WHERE member_id = ? AND book_id = ? AND return_date IS NULL LIMIT 1`
	t, err := scanTransaction(tx.QueryRowContext(ctx, q, memberID, bookID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "select open transaction")
	}
	return t, nil
}

// InsertTx は新規貸出を登録する。未返却の重複は UNIQUE 制約でも弾かれる
func (s *Store) InsertTx(ctx context.Context, tx db.DBTX, t *Transaction) error {
	const q = `
	INSERT INTO transactions
	(transaction_ulid, member_id, book_id, borrow_date, due_date, status, days_late, fine_amount, notes, created_at, updated_at)
	VALUES
	(?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		t.ULID, t.MemberID, t.BookID, t.BorrowDate, t.DueDate, t.Status, t.Notes, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errAlreadyBorrowed()
		}
		return pkgerrors.Wrap(err, "insert transaction")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.Wrap(err, "transaction id")
	}
	t.ID = id
	return nil
}

// MarkReturnedTx は返却項目をまとめて書き込む。
// return_date IS NULL を条件にして、二重返却は0件更新として検出する
func (s *Store) MarkReturnedTx(ctx context.Context, tx db.DBTX, t *Transaction) error {
	const q = `
	UPDATE transactions
	SET return_date = ?, status = ?, days_late = ?, fine_amount = ?, returned_by = ?, updated_at = ?
	WHERE id = ? AND return_date IS NULL`
	res, err := tx.ExecContext(ctx, q,
		t.ReturnDate, t.Status, t.DaysLate, t.FineAmount, t.ReturnedBy, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return pkgerrors.Wrap(err, "update transaction")
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "update transaction")
	}
	if aff != 1 {
		return errAlreadyReturned()
	}
	return nil
}

// SweepOverdue は期限切れの未返却貸出の保存 status を overdue に揃える（表示用キャッシュ）
func (s *Store) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
	UPDATE transactions
	SET status = ?, updated_at = ?
	WHERE return_date IS NULL AND status = ? AND due_date < ?`
	res, err := s.db.ExecContext(ctx, q, StatusOverdue, now, StatusBorrowed, now)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "sweep overdue")
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, f TransactionFilter, p db.Page, now time.Time) ([]Transaction, int64, error) {
	ds := s.db.Dialect.Builder().From("transactions").Prepared(true)

	var conds []exp.Expression
	if f.MemberID != nil {
		conds = append(conds, goqu.C("member_id").Eq(*f.MemberID))
	}
	if f.BookID != nil {
		conds = append(conds, goqu.C("book_id").Eq(*f.BookID))
	}
	if f.OpenOnly {
		conds = append(conds, goqu.C("return_date").IsNull())
	}
	switch f.Status {
	case StatusReturned:
		conds = append(conds, goqu.C("return_date").IsNotNull())
	case StatusOverdue:
		conds = append(conds,
			goqu.C("return_date").IsNull(),
			goqu.C("status").Neq(StatusLost),
			goqu.C("due_date").Lt(now))
	case StatusBorrowed:
		conds = append(conds,
			goqu.C("return_date").IsNull(),
			goqu.C("status").Neq(StatusLost),
			goqu.C("due_date").Gte(now))
	case StatusLost:
		conds = append(conds, goqu.C("return_date").IsNull(), goqu.C("status").Eq(StatusLost))
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
		return nil, 0, pkgerrors.Wrap(err, "count transactions")
	}

	q, args, err := ds.Select(transactionColumns...).
		Order(goqu.C("borrow_date").Desc(), goqu.C("id").Desc()).
		Limit(uint(p.Limit)).Offset(uint(p.Offset)).ToSQL()
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "build list")
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list transactions")
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(err, "scan transaction")
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list transactions")
	}
	return out, total, nil
}
