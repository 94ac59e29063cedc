package graph

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/library/catalog"
	"LIBRA-backend/internal/library/circulation"
	"LIBRA-backend/internal/library/fines"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
	"LIBRA-backend/internal/platform/db/dbtest"
	"LIBRA-backend/internal/platform/middleware"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time { return c.t }

type gqlError struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

type txPayload struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   *gqlError `json:"error"`
	Data    *struct {
		ID         string  `json:"id"`
		Status     string  `json:"status"`
		DaysLate   int     `json:"daysLate"`
		FineAmount float64 `json:"fineAmount"`
	} `json:"data"`
}

func setup(t *testing.T) (*db.DB, *stepClock, *gin.Engine, func(p auth.Principal) *gin.Engine) {
	t.Helper()
	conn := dbtest.Open(t)
	clock := &stepClock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	policy := circulation.Policy{BorrowDurationDays: 14, FinePerDay: 5000, MaxFine: 100000, Location: time.UTC, CurrencyPrefix: "Rp"}
	svc := circulation.NewService(conn, catalog.NewStore(conn), fines.NewService(conn), policy).WithClock(clock)
	schema, err := NewSchema(svc)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	anon := gin.New()
	RegisterRoutes(anon, schema)

	as := func(p auth.Principal) *gin.Engine {
		r := gin.New()
		r.Use(middleware.RequestID(), func(c *gin.Context) {
			c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
			c.Next()
		})
		RegisterRoutes(r, schema)
		return r
	}
	return conn, clock, anon, as
}

func query(t *testing.T, r http.Handler, q string, vars map[string]any) map[string]json.RawMessage {
	t.Helper()
	body, err := json.Marshal(map[string]any{"query": q, "variables": vars})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data   map[string]json.RawMessage `json:"data"`
		Errors []map[string]any           `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.Empty(t, resp.Errors)
	return resp.Data
}

const borrowMutation = `mutation($book: ID!) {
	borrowBook(bookId: $book) { success message error { code details } data { id status daysLate fineAmount } }
}`

const returnMutation = `mutation($tx: ID!) {
	returnBook(transactionId: $tx) { success message error { code details } data { id status daysLate fineAmount } }
}`

func TestBorrowAndReturnOverGraphQL(t *testing.T) {
	conn, clock, anon, as := setup(t)
	member := auth.Principal{ID: dbtest.SeedMember(t, conn, "x@example.com", "member"), Role: auth.RoleMember}
	bookID := dbtest.SeedBook(t, conn, "978-GQ", 1)
	r := as(member)
	vars := map[string]any{"book": strconv.FormatInt(bookID, 10)}

	var p txPayload
	require.NoError(t, json.Unmarshal(query(t, anon, borrowMutation, vars)["borrowBook"], &p))
	assert.False(t, p.Success)
	require.NotNil(t, p.Error)
	assert.Equal(t, "UNAUTHORIZED", p.Error.Code)
	assert.Nil(t, p.Data)

	p = txPayload{}
	require.NoError(t, json.Unmarshal(query(t, r, borrowMutation, vars)["borrowBook"], &p))
	require.True(t, p.Success, p.Message)
	assert.Nil(t, p.Error)
	require.NotNil(t, p.Data)
	assert.Equal(t, "borrowed", p.Data.Status)
	txID := p.Data.ID

	p = txPayload{}
	require.NoError(t, json.Unmarshal(query(t, r, borrowMutation, vars)["borrowBook"], &p))
	assert.False(t, p.Success)
	assert.Equal(t, "BOOK_UNAVAILABLE", p.Error.Code)

	clock.t = clock.t.AddDate(0, 0, 17)
	var fine struct {
		Success bool `json:"success"`
		Data    struct {
			Status      string  `json:"status"`
			DaysLate    int     `json:"daysLate"`
			CurrentFine float64 `json:"currentFine"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(query(t, r,
		`query($tx: ID!) { checkFine(transactionId: $tx) { success data { status daysLate currentFine } } }`,
		map[string]any{"tx": txID})["checkFine"], &fine))
	assert.True(t, fine.Success)
	assert.Equal(t, "overdue", fine.Data.Status)
	assert.Equal(t, 3, fine.Data.DaysLate)
	assert.EqualValues(t, 15000, fine.Data.CurrentFine)

	p = txPayload{}
	require.NoError(t, json.Unmarshal(query(t, r, returnMutation, map[string]any{"tx": txID})["returnBook"], &p))
	require.True(t, p.Success)
	assert.Equal(t, "Book returned late. Fine: Rp 15.000", p.Message)
	assert.Equal(t, "returned", p.Data.Status)
	assert.Equal(t, 3, p.Data.DaysLate)

	p = txPayload{}
	require.NoError(t, json.Unmarshal(query(t, r, returnMutation, map[string]any{"tx": txID})["returnBook"], &p))
	assert.False(t, p.Success)
	assert.Equal(t, "ALREADY_RETURNED", p.Error.Code)
}

func TestMyTransactions(t *testing.T) {
	conn, _, _, as := setup(t)
	x := auth.Principal{ID: dbtest.SeedMember(t, conn, "x@example.com", "member"), Role: auth.RoleMember}
	admin := auth.Principal{ID: dbtest.SeedMember(t, conn, "admin@example.com", "admin"), Role: auth.RoleAdmin}
	b1 := dbtest.SeedBook(t, conn, "978-M1", 1)
	b2 := dbtest.SeedBook(t, conn, "978-M2", 1)

	for _, id := range []int64{b1, b2} {
		query(t, as(x), borrowMutation, map[string]any{"book": strconv.FormatInt(id, 10)})
	}

	const q = `{ myTransactions(limit: 1) { success data { total nextOffset items { bookId } } } }`
	var res struct {
		Success bool `json:"success"`
		Data    struct {
			Total      int `json:"total"`
			NextOffset int `json:"nextOffset"`
			Items      []struct {
				BookID string `json:"bookId"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(query(t, as(x), q, nil)["myTransactions"], &res))
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Data.Total)
	assert.Equal(t, 1, res.Data.NextOffset)
	assert.Len(t, res.Data.Items, 1)

	// admin の myTransactions は自分の貸出だけ
	res.Data.Total = -1
	require.NoError(t, json.Unmarshal(query(t, as(admin), q, nil)["myTransactions"], &res))
	assert.Equal(t, 0, res.Data.Total)
}

func TestSchemaParses(t *testing.T) {
	_, err := NewSchema(circulation.NewService(nil, nil, nil, circulation.Policy{}))
	require.NoError(t, err)
}

func TestInternalErrorIsLoggedWithRequestID(t *testing.T) {
	conn, _, _, as := setup(t)
	member := auth.Principal{ID: dbtest.SeedMember(t, conn, "x@example.com", "member"), Role: auth.RoleMember}
	require.NoError(t, conn.Close())

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	body, err := json.Marshal(map[string]any{
		"query": `{ checkFine(transactionId: "1") { success message error { code } } }`,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "gql-req-1")
	w := httptest.NewRecorder()
	as(member).ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			CheckFine struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
				Error   struct {
					Code string `json:"code"`
				} `json:"error"`
			} `json:"checkFine"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	assert.False(t, resp.Data.CheckFine.Success)
	assert.Equal(t, "SYSTEM_ERROR", resp.Data.CheckFine.Error.Code)
	assert.NotContains(t, resp.Data.CheckFine.Message, "closed")
	assert.Contains(t, buf.String(), "req=gql-req-1 graphql checkFine")
}
