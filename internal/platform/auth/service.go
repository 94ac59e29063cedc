package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/db"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrDisabled      = errors.New("account disabled")
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *Member, error)
	Register(ctx context.Context, email, name, password string, role Role) (*Member, error)
}

type Service struct {
	store  MemberStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(conn *db.DB, secret []byte, ttl time.Duration) *Service {
	return &Service{store: NewStore(conn), secret: secret, ttl: ttl, now: time.Now}
}

func (s *Service) Secret() []byte { return s.secret }

func (s *Service) Login(ctx context.Context, email, password string) (string, *Member, error) {
	m, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, err
	}
	if m == nil {
		return "", nil, ErrAuthFailed
	}
	if m.IsDisabled {
		return "", nil, ErrDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthFailed
	}

	token, err := s.IssueToken(Principal{ID: m.ID, Role: m.Role})
	if err != nil {
		return "", nil, err
	}
	return token, m, nil
}

// CheckActive はトークンの主がまだ有効な会員かを確認する。
// 削除済みなら ErrAuthFailed、停止中なら ErrDisabled
func (s *Service) CheckActive(ctx context.Context, id int64) error {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrAuthFailed
	}
	if m.IsDisabled {
		return ErrDisabled
	}
	return nil
}

// IssueToken は Principal を HS256 で署名したトークンにする
func (s *Service) IssueToken(p Principal) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(p.ID, 10),
		"role": string(p.Role),
		"exp":  s.now().Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, email, name, password string, role Role) (*Member, error) {
	if !role.Valid() {
		role = RoleMember
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	m := &Member{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
