package apperr

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"LIBRA-backend/internal/platform/middleware"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound(CodeBookNotFound, "x"), http.StatusNotFound},
		{New(CodeBookUnavailable, "x"), http.StatusBadRequest},
		{New(CodeAlreadyReturned, "x"), http.StatusBadRequest},
		{Invalid("x"), http.StatusUnprocessableEntity},
		{Invariant("x"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", New(CodeAlreadyBorrowed, "x")), http.StatusBadRequest},
		{fmt.Errorf("driver: connection refused"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ToHTTPStatus(c.err), c.err.Error())
	}
}

func TestFailHidesInternalDetail(t *testing.T) {
	env := Fail(fmt.Errorf("dial tcp 10.0.0.3:3306: connection refused"))
	assert.False(t, env.Success)
	assert.Equal(t, CodeSystem, env.Error.Code)
	assert.NotContains(t, env.Message, "10.0.0.3")

	env = Fail(Invariant("available_stock would be -1 for book 7"))
	assert.Equal(t, CodeSystem, env.Error.Code)
	assert.NotContains(t, env.Error.Details, "book 7")
}

func TestFailKeepsBusinessError(t *testing.T) {
	env := Fail(New(CodeAlreadyBorrowed, "You already borrowed this book"))
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Equal(t, CodeAlreadyBorrowed, env.Error.Code)
	assert.Equal(t, "You already borrowed this book", env.Message)
}

func TestWriteLogsInternalWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/boom", func(c *gin.Context) { Write(c, fmt.Errorf("driver: connection refused")) })
	r.GET("/gone", func(c *gin.Context) { Write(c, NotFound(CodeBookNotFound, "Book not found")) })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-789")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, buf.String(), "req=req-789")
	assert.Contains(t, buf.String(), "connection refused")

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gone", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, buf.String())
}
