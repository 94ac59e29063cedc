package circulation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

type Handler struct{ svc *Service }

// RegisterRoutes: RequireAuth 済みのグループに載せる
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/transactions/borrow", h.Borrow)
	r.GET("/transactions", h.List)
	r.GET("/transactions/:id", h.Get)
	r.POST("/transactions/:id/return", h.Return)
	r.GET("/transactions/:id/fine", h.CheckFine)
}

// RegisterAdminRoutes: RequireRole(admin) のグループに載せる
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/transactions/sweep-overdue", h.SweepOverdue)
}

func principal(c *gin.Context) auth.Principal { return auth.FromContext(c.Request.Context()) }

// Borrow godoc
// @Summary  Borrow a book
// @Tags     transactions
// @Accept   json
// @Produce  json
// @Param    body  body      BorrowRequest  true  "book to borrow"
// @Success  201   {object}  apperr.Envelope
// @Failure  400   {object}  apperr.Envelope
// @Failure  401   {object}  apperr.Envelope
// @Failure  404   {object}  apperr.Envelope
// @Router   /transactions/borrow [post]
func (h *Handler) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.Invalid("book_id is required"))
		return
	}
	res, err := h.svc.Borrow(c.Request.Context(), principal(c), req.BookID, req.Notes)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.Header("Location", "/transactions/"+res.Transaction.ULID)
	c.JSON(http.StatusCreated, apperr.OK(res.Message, res))
}

// Return godoc
// @Summary  Return a borrowed book
// @Tags     transactions
// @Produce  json
// @Param    id   path      string  true  "transaction id or ULID"
// @Success  200  {object}  apperr.Envelope
// @Failure  400  {object}  apperr.Envelope
// @Failure  403  {object}  apperr.Envelope
// @Failure  404  {object}  apperr.Envelope
// @Router   /transactions/{id}/return [post]
func (h *Handler) Return(c *gin.Context) {
	res, err := h.svc.Return(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK(res.Message, res))
}

// CheckFine godoc
// @Summary  Current fine status of a transaction
// @Tags     transactions
// @Produce  json
// @Param    id   path      string  true  "transaction id or ULID"
// @Success  200  {object}  apperr.Envelope
// @Failure  403  {object}  apperr.Envelope
// @Failure  404  {object}  apperr.Envelope
// @Router   /transactions/{id}/fine [get]
func (h *Handler) CheckFine(c *gin.Context) {
	res, err := h.svc.CheckFine(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK(res.Message, res))
}

// Get godoc
// @Summary  Get a transaction
// @Tags     transactions
// @Produce  json
// @Param    id   path      string  true  "transaction id or ULID"
// @Success  200  {object}  apperr.Envelope
// @Failure  403  {object}  apperr.Envelope
// @Failure  404  {object}  apperr.Envelope
// @Router   /transactions/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK("OK", res))
}

// List godoc
// @Summary  List transactions (members see their own)
// @Tags     transactions
// @Produce  json
// @Param    status     query     string  false  "borrowed | returned | overdue | lost"
// @Param    member_id  query     int     false  "admin only"
// @Param    book_id    query     int     false  "book id"
// @Param    open       query     bool    false  "only not yet returned"
// @Param    limit      query     int     false  "page size"
// @Param    offset     query     int     false  "offset"
// @Success  200        {object}  apperr.Envelope
// @Failure  422        {object}  apperr.Envelope
// @Router   /transactions [get]
func (h *Handler) List(c *gin.Context) {
	f := TransactionFilter{Status: Status(c.Query("status"))}
	if v := c.Query("member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			apperr.Write(c, apperr.Invalid("member_id must be a positive number"))
			return
		}
		f.MemberID = &id
	}
	if v := c.Query("book_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			apperr.Write(c, apperr.Invalid("book_id must be a positive number"))
			return
		}
		f.BookID = &id
	}
	if v := c.Query("open"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.OpenOnly = b
		}
	}
	res, err := h.svc.List(c.Request.Context(), principal(c), f, db.ParsePage(c.Query("limit"), c.Query("offset")))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK("OK", res))
}

// SweepOverdue godoc
// @Summary  Mark stored status of past-due open transactions as overdue (admin)
// @Tags     transactions
// @Produce  json
// @Success  200  {object}  apperr.Envelope
// @Router   /admin/transactions/sweep-overdue [post]
func (h *Handler) SweepOverdue(c *gin.Context) {
	n, err := h.svc.SweepOverdue(c.Request.Context())
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK("OK", gin.H{"updated": n}))
}
