package auth

import "context"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleMember }

// Principal は認証済みの呼び出し元。ID 0 は未認証
type Principal struct {
	ID   int64
	Role Role
}

func (p Principal) Authenticated() bool { return p.ID > 0 }
func (p Principal) IsAdmin() bool       { return p.Authenticated() && p.Role == RoleAdmin }

// IsOwnerOrAdmin: 本人のリソースか、管理者か
func IsOwnerOrAdmin(p Principal, ownerID int64) bool {
	if !p.Authenticated() {
		return false
	}
	return p.IsAdmin() || p.ID == ownerID
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext は未設定なら未認証の Principal を返す
func FromContext(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
