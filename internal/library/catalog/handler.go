package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apperr"
	"LIBRA-backend/internal/platform/db"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 閲覧系は認証済みなら誰でも。登録は admin グループにだけ載せる
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/books", h.ListBooks)
	r.GET("/books/:id", h.GetBook)
}

func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/books", h.CreateBook)
}

// ListBooks godoc
// @Summary  List books
// @Tags     books
// @Produce  json
// @Param    available  query     bool  false  "only books with available_stock > 0"
// @Param    limit      query     int   false  "page size"
// @Param    offset     query     int   false  "offset"
// @Success  200        {object}  apperr.Envelope
// @Router   /books [get]
func (h *Handler) ListBooks(c *gin.Context) {
	f := BookFilter{}
	if v := c.Query("available"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.AvailableOnly = b
		}
	}
	res, err := h.svc.ListBooks(c.Request.Context(), f, db.ParsePage(c.Query("limit"), c.Query("offset")))
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK("OK", res))
}

// GetBook godoc
// @Summary  Get a book
// @Tags     books
// @Produce  json
// @Param    id   path      int  true  "book id"
// @Success  200  {object}  apperr.Envelope
// @Failure  404  {object}  apperr.Envelope
// @Router   /books/{id} [get]
func (h *Handler) GetBook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Write(c, apperr.Invalid("id must be a positive number"))
		return
	}
	res, err := h.svc.GetBook(c.Request.Context(), id)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, apperr.OK("OK", res))
}

// CreateBook godoc
// @Summary  Add a book to the catalog (admin)
// @Tags     books
// @Accept   json
// @Produce  json
// @Param    body  body      CreateBookRequest  true  "book"
// @Success  201   {object}  apperr.Envelope
// @Failure  422   {object}  apperr.Envelope
// @Router   /admin/books [post]
func (h *Handler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Write(c, apperr.Invalid("invalid json or missing required fields"))
		return
	}
	res, err := h.svc.CreateBook(c.Request.Context(), req)
	if err != nil {
		apperr.Write(c, err)
		return
	}
	c.Header("Location", "/books/"+strconv.FormatInt(res.ID, 10))
	c.JSON(http.StatusCreated, apperr.OK("Book created", res))
}
