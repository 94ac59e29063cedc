package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/db/dbtest"
)

func TestPage(t *testing.T) {
	p := db.ParsePage("", "")
	assert.Equal(t, db.Page{Limit: db.DefaultPageLimit, Offset: 0}, p)

	p = db.ParsePage("500", "-3")
	assert.Equal(t, db.Page{Limit: db.MaxPageLimit, Offset: 0}, p)

	p = db.ParsePage("abc", "20")
	assert.Equal(t, db.Page{Limit: db.DefaultPageLimit, Offset: 20}, p)

	assert.Equal(t, 10, db.Page{Limit: 10, Offset: 0}.NextOffset(25))
	assert.Equal(t, 0, db.Page{Limit: 10, Offset: 20}.NextOffset(25))
}

func TestLibraryDefaults(t *testing.T) {
	l := db.LibraryConfig{}.WithDefaults()
	assert.Equal(t, 14, l.BorrowDurationDays)
	assert.EqualValues(t, 5000, l.FinePerDay)
	assert.EqualValues(t, 100000, l.MaxFine)

	l = db.LibraryConfig{BorrowDurationDays: 7, FinePerDay: 1000}.WithDefaults()
	assert.Equal(t, 7, l.BorrowDurationDays)
	assert.EqualValues(t, 1000, l.FinePerDay)
}

func TestRunInTxRollsBack(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	bookID := dbtest.SeedBook(t, conn, "978-0", 3)

	boom := errors.New("boom")
	err := db.RunInTx(ctx, conn, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE books SET available_stock = 0 WHERE id = ?`, bookID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var avail int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT available_stock FROM books WHERE id = ?`, bookID).Scan(&avail))
	assert.Equal(t, 3, avail)
}

func TestStockCheckConstraint(t *testing.T) {
	conn := dbtest.Open(t)
	bookID := dbtest.SeedBook(t, conn, "978-1", 1)

	_, err := conn.ExecContext(context.Background(), `UPDATE books SET available_stock = 2 WHERE id = ?`, bookID)
	assert.Error(t, err, "available_stock must not exceed total_stock")
	_, err = conn.ExecContext(context.Background(), `UPDATE books SET available_stock = -1 WHERE id = ?`, bookID)
	assert.Error(t, err, "available_stock must not go negative")
}

func TestOpenTransactionUniqueIndex(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	memberID := dbtest.SeedMember(t, conn, "m@example.com", "member")
	bookID := dbtest.SeedBook(t, conn, "978-2", 5)

	const ins = `INSERT INTO transactions (transaction_ulid, member_id, book_id, borrow_date, due_date, status, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, 'borrowed', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err := conn.ExecContext(ctx, ins, "01A", memberID, bookID)
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, ins, "01B", memberID, bookID)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	_, err = conn.ExecContext(ctx, `UPDATE transactions SET return_date = CURRENT_TIMESTAMP WHERE transaction_ulid = '01A'`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, ins, "01C", memberID, bookID)
	assert.NoError(t, err, "a closed transaction does not block a new borrow")
}
