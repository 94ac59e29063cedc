package fines

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/me/fines", h.ListMine)
	r.GET("/fines/:id", h.Get)
}

func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/fines", h.List)
	r.POST("/fines/:id/payments", h.RecordPayment)
}

func unpaidOnly(c *gin.Context) bool {
	b, err := strconv.ParseBool(c.Query("unpaid"))
	return err == nil && b
}

// ListMine godoc
// @Summary  List my fines
// @Tags     fines
// @Produce  json
// @Param    unpaid  query     bool  false  "only unpaid"
// @Param    limit   query     int   false  "page size"
// @Param    offset  query     int   false  "offset"
// @Success  200     {object}  apperr.Envelope
// @Router   /me/fines [get]
func (h *Handler) ListMine(c *gin.Context) {
	p := auth.FromContext(c.Request.Context())
	id := p.ID
	res, err := h.svc.List(c.Request.Context(), p, FineFilter{MemberID: &id, UnpaidOnly: unpaidOnly(c)},
		db.ParsePage(c.Query("limit"), c.Query("offset")))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK("OK", res))
}

// List godoc
// @Summary  List fines (admin)
// @Tags     fines
// @Produce  json
// @Param    unpaid     query     bool  false  "only unpaid"
// @Param    member_id  query     int   false  "member id"
// @Param    limit      query     int   false  "page size"
// @Param    offset     query     int   false  "offset"
// @Success  200        {object}  apperr.Envelope
// @Router   /admin/fines [get]
func (h *Handler) List(c *gin.Context) {
	f := FineFilter{UnpaidOnly: unpaidOnly(c)}
	if v := c.Query("member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			apperr.Write(c, apperr.Invalid("member_id must be a positive number"))
			return
		}
		f.MemberID = &id
	}
	res, err := h.svc.List(c.Request.Context(), auth.FromContext(c.Request.Context()), f,
		db.ParsePage(c.Query("limit"), c.Query("offset")))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK("OK", res))
}

// Get godoc
// @Summary  Get a fine
// @Tags     fines
// @Produce  json
// @Param    id   path      string  true  "fine id or ULID"
// @Success  200  {object}  apperr.Envelope
// @Failure  404  {object}  apperr.Envelope
// @Router   /fines/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), auth.FromContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK("OK", res))
}

// RecordPayment godoc
// @Summary  Record a fine payment (admin)
// @Tags     fines
// @Accept   json
// @Produce  json
// @Param    id    path      string          true  "fine id or ULID"
// @Param    body  body      PaymentRequest  true  "payment"
// @Success  200   {object}  apperr.Envelope
// @Failure  400   {object}  apperr.Envelope
// @Failure  422   {object}  apperr.Envelope
// @Router   /admin/fines/{id}/payments [post]
func (h *Handler) RecordPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.Invalid("invalid json or missing required fields"))
		return
	}
	res, msg, err := h.svc.RecordPayment(c.Request.Context(), auth.FromContext(c.Request.Context()), c.Param("id"), req)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK(msg, res))
}
