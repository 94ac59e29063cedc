package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	pkgerrors "github.com/pkg/errors"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/db"
)

type Store struct {
	db *db.DB
}

func NewStore(conn *db.DB) *Store { return &Store{db: conn} }

const bookColumns = `id, isbn, title, author, publisher, publication_year, total_stock, available_stock, created_at, updated_at`

func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	var b Book
	if err := row.Scan(
		&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Publisher, &b.PublicationYear,
		&b.Stock.Total, &b.Stock.Available, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetBook(ctx context.Context, id int64) (*Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeBookNotFound, "Book not found")
		}
		return nil, pkgerrors.Wrap(err, "select book")
	}
	return b, nil
}

func (s *Store) InsertBook(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(isbn, title, author, publisher, publication_year, total_stock, available_stock, created_at, updated_at)
	VALUES
	(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		b.ISBN, b.Title, b.Author, b.Publisher, b.PublicationYear,
		b.Stock.Total, b.Stock.Available, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("isbn already exists")
		}
		return pkgerrors.Wrap(err, "insert book")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.Wrap(err, "book id")
	}
	b.ID = id
	return nil
}

func (s *Store) ListBooks(ctx context.Context, f BookFilter, p db.Page) ([]Book, int64, error) {
	ds := s.db.Dialect.Builder().From("books").Prepared(true)
	if f.AvailableOnly {
		ds = ds.Where(goqu.C("available_stock").Gt(0))
	}

	countQ, countArgs, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "build count")
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count books")
	}

	q, args, err := ds.Select(
		"id", "isbn", "title", "author", "publisher", "publication_year",
		"total_stock", "available_stock", "created_at", "updated_at",
	).Order(goqu.C("title").Asc(), goqu.C("id").Asc()).
		Limit(uint(p.Limit)).Offset(uint(p.Offset)).ToSQL()
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "build list")
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list books")
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(err, "scan book")
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list books")
	}
	return out, total, nil
}

// ---- Tx スコープの在庫台帳操作 ----

// LockBookTx は在庫行をロックして取得する（MySQL: FOR UPDATE / SQLite: Tx開始時の書き込みロック）
func (s *Store) LockBookTx(ctx context.Context, tx db.DBTX, id int64) (*Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE id = ?` + s.db.Dialect.ForUpdate()
	b, err := scanBook(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeBookNotFound, "Book not found")
		}
		return nil, pkgerrors.Wrap(err, "lock book")
	}
	return b, nil
}

// DecrementAvailableTx: 貸出可能数を1減らす。b はロック済みの行であること
func (s *Store) DecrementAvailableTx(ctx context.Context, tx db.DBTX, b *Book, now time.Time) error {
	next, err := b.Stock.Decrement()
	if err != nil {
		return err
	}
	// 条件付き UPDATE で最後にもう一度守る
	const q = `UPDATE books SET available_stock = available_stock - 1, updated_at = ? WHERE id = ? AND available_stock > 0`
	if err := s.applyStock(ctx, tx, q, now, b.ID); err != nil {
		return err
	}
	b.Stock = next
	b.UpdatedAt = now
	return nil
}

// IncrementAvailableTx: 貸出可能数を1戻す。b はロック済みの行であること
func (s *Store) IncrementAvailableTx(ctx context.Context, tx db.DBTX, b *Book, now time.Time) error {
	next, err := b.Stock.Increment()
	if err != nil {
		return err
	}
	const q = `UPDATE books SET available_stock = available_stock + 1, updated_at = ? WHERE id = ? AND available_stock < total_stock`
	if err := s.applyStock(ctx, tx, q, now, b.ID); err != nil {
		return err
	}
	b.Stock = next
	b.UpdatedAt = now
	return nil
}

func (s *Store) applyStock(ctx context.Context, tx db.DBTX, q string, now time.Time, id int64) error {
	res, err := tx.ExecContext(ctx, q, now, id)
	if err != nil {
		return pkgerrors.Wrap(err, "update books.available_stock")
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "update books.available_stock")
	}
	if aff != 1 {
		return apperr.Invariant("books.available_stock guard rejected the update")
	}
	return nil
}
