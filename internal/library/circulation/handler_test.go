package circulation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db/dbtest"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    apperr.Code `json:"code"`
		Details string      `json:"details"`
	} `json:"error"`
}

func newRouter(svc *Service, p *auth.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if p != nil {
			c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), *p))
		}
		c.Next()
	})
	RegisterRoutes(r, svc)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestHandlerBorrowAndReturn(t *testing.T) {
	f := newFixture(t)
	x := f.member(t, "x@example.com")
	bookID := dbtest.SeedBook(t, f.conn, "978-H1", 1)
	r := newRouter(f.svc, &x)

	w, env := do(t, r, http.MethodPost, "/transactions/borrow", map[string]any{"book_id": bookID})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Book borrowed successfully", env.Message)
	assert.Nil(t, env.Error)

	var borrowed BorrowResult
	require.NoError(t, json.Unmarshal(env.Data, &borrowed))
	assert.Equal(t, bookID, borrowed.Book.ID)

	w, env = do(t, r, http.MethodPost, "/transactions/borrow", map[string]any{"book_id": bookID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperr.CodeBookUnavailable, env.Error.Code)

	f.clock.Set(day0.AddDate(0, 0, 20))
	w, env = do(t, r, http.MethodPost, "/transactions/"+borrowed.Transaction.ULID+"/return", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Book returned late. Fine: Rp 30.000", env.Message)

	w, env = do(t, r, http.MethodPost, "/transactions/"+borrowed.Transaction.ULID+"/return", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.CodeAlreadyReturned, env.Error.Code)

	w, env = do(t, r, http.MethodGet, "/transactions/"+borrowed.Transaction.ULID+"/fine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Book already returned", env.Message)
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(t)
	x := f.member(t, "x@example.com")

	w, env := do(t, newRouter(f.svc, nil), http.MethodPost, "/transactions/borrow", map[string]any{"book_id": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperr.CodeUnauthorized, env.Error.Code)

	r := newRouter(f.svc, &x)
	w, env = do(t, r, http.MethodPost, "/transactions/borrow", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperr.CodeValidation, env.Error.Code)

	w, env = do(t, r, http.MethodPost, "/transactions/borrow", map[string]any{"book_id": 777})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperr.CodeBookNotFound, env.Error.Code)

	w, env = do(t, r, http.MethodPost, "/transactions/123/return", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperr.CodeTransactionNotFound, env.Error.Code)

	w, env = do(t, r, http.MethodGet, "/transactions?status=bogus", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperr.CodeValidation, env.Error.Code)
}

func TestHandlerList(t *testing.T) {
	f := newFixture(t)
	x := f.member(t, "x@example.com")
	bookID := dbtest.SeedBook(t, f.conn, "978-H2", 1)
	_, err := f.svc.Borrow(context.Background(), x, bookID, nil)
	require.NoError(t, err)

	w, env := do(t, newRouter(f.svc, &x), http.MethodGet, "/transactions?status=borrowed&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Items []TransactionResponse `json:"items"`
		Total int64                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, bookID, page.Items[0].BookID)
}
