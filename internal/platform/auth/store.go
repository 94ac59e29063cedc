package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"LIBRA-backend/internal/platform/db"
)

type Member struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	IsDisabled   bool
	CreatedAt    time.Time
}

type MemberStore interface {
	GetByEmail(ctx context.Context, email string) (*Member, error)
	GetByID(ctx context.Context, id int64) (*Member, error)
	Create(ctx context.Context, m *Member) error
}

type Store struct{ db *db.DB }

func NewStore(conn *db.DB) MemberStore {
	return &Store{db: conn}
}

const memberSelect = `
SELECT id, email, name, password_hash, role, is_disabled, created_at
FROM members
`

func (s *Store) GetByEmail(ctx context.Context, email string) (*Member, error) {
	return s.getOne(ctx, memberSelect+`WHERE email = ? LIMIT 1`, email)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Member, error) {
	return s.getOne(ctx, memberSelect+`WHERE id = ? LIMIT 1`, id)
}

// 見つからなければ nil, nil
func (s *Store) getOne(ctx context.Context, q string, arg any) (*Member, error) {
	var m Member
	var isDisabledInt int
	err := s.db.QueryRowContext(ctx, q, arg).Scan(
		&m.ID,
		&m.Email,
		&m.Name,
		&m.PasswordHash,
		&m.Role,
		&isDisabledInt,
		&m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select member")
	}
	m.IsDisabled = isDisabledInt != 0
	return &m, nil
}

func (s *Store) Create(ctx context.Context, m *Member) error {
	const q = `
INSERT INTO members (email, name, password_hash, role, is_disabled, created_at)
VALUES (?, ?, ?, ?, 0, ?)
`
	res, err := s.db.ExecContext(ctx, q, m.Email, m.Name, m.PasswordHash, m.Role, m.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return pkgerrors.Wrap(err, "insert member")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.Wrap(err, "member id")
	}
	m.ID = id
	return nil
}
