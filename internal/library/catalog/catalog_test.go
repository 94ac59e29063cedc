package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/db/dbtest"
)

func TestStockDecrementIncrement(t *testing.T) {
	s, err := NewStock(2)
	require.NoError(t, err)
	assert.Equal(t, Stock{Total: 2, Available: 2}, s)

	s, err = s.Decrement()
	require.NoError(t, err)
	s, err = s.Decrement()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Available)

	_, err = s.Decrement()
	assert.True(t, apperr.Is(err, apperr.CodeInvariantViolation))

	s, err = s.Increment()
	require.NoError(t, err)
	s, err = s.Increment()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Available)

	_, err = s.Increment()
	assert.True(t, apperr.Is(err, apperr.CodeInvariantViolation))
}

func TestNewStockRejectsNegative(t *testing.T) {
	_, err := NewStock(-1)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestStockRejectsCorruptedInput(t *testing.T) {
	_, err := Stock{Total: 1, Available: 3}.Decrement()
	assert.Error(t, err)
	_, err = Stock{Total: 1, Available: -1}.Increment()
	assert.Error(t, err)
}

func TestLedgerTx(t *testing.T) {
	conn := dbtest.Open(t)
	store := NewStore(conn)
	ctx := context.Background()
	id := dbtest.SeedBook(t, conn, "978-3", 1)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	err := db.RunInTx(ctx, conn, nil, func(ctx context.Context, tx db.DBTX) error {
		b, err := store.LockBookTx(ctx, tx, id)
		if err != nil {
			return err
		}
		return store.DecrementAvailableTx(ctx, tx, b, now)
	})
	require.NoError(t, err)

	b, err := store.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Stock{Total: 1, Available: 0}, b.Stock)

	// 2回目は台帳側で弾かれ、Tx はロールバックされる
	err = db.RunInTx(ctx, conn, nil, func(ctx context.Context, tx db.DBTX) error {
		b, err := store.LockBookTx(ctx, tx, id)
		if err != nil {
			return err
		}
		return store.DecrementAvailableTx(ctx, tx, b, now)
	})
	assert.True(t, apperr.Is(err, apperr.CodeInvariantViolation))

	err = db.RunInTx(ctx, conn, nil, func(ctx context.Context, tx db.DBTX) error {
		b, err := store.LockBookTx(ctx, tx, id)
		if err != nil {
			return err
		}
		return store.IncrementAvailableTx(ctx, tx, b, now)
	})
	require.NoError(t, err)

	b, err = store.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Stock{Total: 1, Available: 1}, b.Stock)
}

func TestLedgerGuardOnStaleRow(t *testing.T) {
	conn := dbtest.Open(t)
	store := NewStore(conn)
	ctx := context.Background()
	id := dbtest.SeedBook(t, conn, "978-4", 1)

	// 呼び出し側が古い在庫を持っていても、条件付き UPDATE が上限を守る
	stale := &Book{ID: id, Stock: Stock{Total: 2, Available: 1}}
	err := db.RunInTx(ctx, conn, nil, func(ctx context.Context, tx db.DBTX) error {
		return store.IncrementAvailableTx(ctx, tx, stale, time.Now().UTC())
	})
	assert.True(t, apperr.Is(err, apperr.CodeInvariantViolation))
}

func TestLockBookNotFound(t *testing.T) {
	conn := dbtest.Open(t)
	store := NewStore(conn)
	err := db.RunInTx(context.Background(), conn, nil, func(ctx context.Context, tx db.DBTX) error {
		_, err := store.LockBookTx(ctx, tx, 999)
		return err
	})
	assert.True(t, apperr.Is(err, apperr.CodeBookNotFound))
}

func TestServiceCreateAndList(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn)
	ctx := context.Background()

	pub := "Gramedia"
	created, err := svc.CreateBook(ctx, CreateBookRequest{ISBN: "978-602", Title: "Laskar Pelangi", Author: "Andrea Hirata", Publisher: &pub, TotalStock: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, created.AvailableStock)
	assert.Equal(t, "Gramedia", *created.Publisher)

	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "978-602", Title: "Dup", Author: "X", TotalStock: 1})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	_, err = svc.CreateBook(ctx, CreateBookRequest{ISBN: "978-000", Title: "Empty", Author: "Y", TotalStock: 0})
	require.NoError(t, err)

	all, err := svc.ListBooks(ctx, BookFilter{}, db.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)

	avail, err := svc.ListBooks(ctx, BookFilter{AvailableOnly: true}, db.Page{})
	require.NoError(t, err)
	require.Len(t, avail.Items, 1)
	assert.Equal(t, "Laskar Pelangi", avail.Items[0].Title)

	_, err = svc.GetBook(ctx, 12345)
	assert.True(t, apperr.Is(err, apperr.CodeBookNotFound))
}
