// Package dbtest opens throwaway SQLite databases for storage-backed tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"LIBRA-backend/internal/platform/db"
)

// Open returns a migrated SQLite database living in t.TempDir().
func Open(t *testing.T) *db.DB {
	t.Helper()
	conn, err := db.Connect(db.DatabaseConfig{
		Driver: string(db.SQLite),
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// SeedMember inserts a member row and returns its id.
func SeedMember(t *testing.T, conn *db.DB, email, role string) int64 {
	t.Helper()
	res, err := conn.ExecContext(context.Background(),
		`INSERT INTO members (email, name, password_hash, role, is_disabled, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		email, email, "x", role, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedBook inserts a book with available_stock = total and returns its id.
func SeedBook(t *testing.T, conn *db.DB, isbn string, total int) int64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := conn.ExecContext(context.Background(),
		`INSERT INTO books (isbn, title, author, total_stock, available_stock, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		isbn, "Title "+isbn, "Author", total, total, now, now)
	if err != nil {
		t.Fatalf("seed book: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}
