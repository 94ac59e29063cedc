package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"LIBRA-backend/internal/platform/apperr"
)

const (
	CtxUserIDKey = "user_id"
	CtxRoleKey   = "role"
)

var errNoToken = errors.New("missing Authorization header")

// RequireAuth: Authorization: Bearer <token> を検証して context に Principal を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := principalFromHeader(secret, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Fail(apperr.Unauthorized(err.Error())))
			return
		}
		attach(c, p)
		c.Next()
	}
}

// OptionalAuth: トークンがあれば検証して詰める。無ければ未認証のまま通す（GraphQL 用）
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := principalFromHeader(secret, c.GetHeader("Authorization"))
		switch {
		case err == nil:
			attach(c, p)
		case errors.Is(err, errNoToken):
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Fail(apperr.Unauthorized(err.Error())))
			return
		}
		c.Next()
	}
}

// ActiveChecker: 会員の停止・削除を確認する（*Service が実装）
type ActiveChecker interface {
	CheckActive(ctx context.Context, id int64) error
}

// RequireActive: RequireAuth / OptionalAuth の後ろに置く。
// 停止・削除された会員のトークンは有効期限内でも 401。未認証はそのまま通す
func RequireActive(chk ActiveChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := FromContext(c.Request.Context())
		if !p.Authenticated() {
			c.Next()
			return
		}
		err := chk.CheckActive(c.Request.Context(), p.ID)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, ErrDisabled):
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Fail(apperr.Unauthorized("Account is disabled")))
		case errors.Is(err, ErrAuthFailed):
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Fail(apperr.Unauthorized("Account no longer exists")))
		default:
			apperr.Write(c, err)
			c.Abort()
		}
	}
}

// RequireRole: 例) admin のみ許可したい時に追加
func RequireRole(roles ...Role) gin.HandlerFunc {
	roleSet := make(map[Role]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		p := FromContext(c.Request.Context())
		if !p.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Fail(apperr.Unauthorized("Please login first")))
			return
		}
		if _, allowed := roleSet[p.Role]; !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, apperr.Fail(apperr.Forbidden("Forbidden. Admin access required.")))
			return
		}
		c.Next()
	}
}

func attach(c *gin.Context, p Principal) {
	c.Set(CtxUserIDKey, p.ID)
	c.Set(CtxRoleKey, p.Role)
	c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
}

func principalFromHeader(secret []byte, h string) (Principal, error) {
	if h == "" {
		return Principal{}, errNoToken
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Principal{}, errors.New("invalid Authorization header")
	}
	tokenStr := strings.TrimSpace(parts[1])
	if tokenStr == "" {
		return Principal{}, errors.New("empty token")
	}
	return ParseToken(secret, tokenStr)
}

// ParseToken は HS256 固定でトークンを検証し Principal を取り出す
func ParseToken(secret []byte, tokenStr string) (Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		// alg 固定（none攻撃とか回避）
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || token == nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, errors.New("Token has expired. Please login again.")
		}
		return Principal{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("invalid claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Principal{}, errors.New("missing sub")
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return Principal{}, errors.New("invalid sub")
	}

	role := RoleMember
	if v, ok := claims["role"].(string); ok && Role(v).Valid() {
		role = Role(v)
	}
	return Principal{ID: id, Role: role}, nil
}
