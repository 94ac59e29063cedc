package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apperr"
)

type AuthHandler struct{ svc AuthService }

func RegisterRoutes(r gin.IRoutes, svc AuthService) {
	h := &AuthHandler{svc: svc}
	r.POST("/login", h.Login)
	r.POST("/register", h.Register) // 一般会員のみ。admin は CLI から作成
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type MemberResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Login godoc
// @Summary  Issue an access token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body      LoginRequest  true  "credentials"
// @Success  200   {object}  apperr.Envelope
// @Failure  401   {object}  apperr.Envelope
// @Router   /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apperr.Fail(apperr.Invalid("email and password are required")))
		return
	}

	token, m, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrDisabled) {
			c.JSON(http.StatusUnauthorized, apperr.Fail(apperr.Unauthorized("Invalid email or password")))
			return
		}
		log.Printf("[ERROR] login: %v", err)
		c.JSON(http.StatusInternalServerError, apperr.Fail(err))
		return
	}

	c.JSON(http.StatusOK, apperr.OK("Login successful", gin.H{
		"token":  token,
		"member": toMemberResponse(m),
	}))
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register godoc
// @Summary  Register a member account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body      RegisterRequest  true  "account"
// @Success  201   {object}  apperr.Envelope
// @Failure  400   {object}  apperr.Envelope
// @Router   /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, apperr.Fail(apperr.Invalid("email, name and password (min 8) are required")))
		return
	}

	m, err := h.svc.Register(c.Request.Context(), req.Email, req.Name, req.Password, RoleMember)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			c.JSON(http.StatusBadRequest, apperr.Fail(apperr.Conflict("email already registered")))
			return
		}
		log.Printf("[ERROR] register: %v", err)
		c.JSON(http.StatusInternalServerError, apperr.Fail(err))
		return
	}

	c.JSON(http.StatusCreated, apperr.OK("registered", toMemberResponse(m)))
}

func toMemberResponse(m *Member) MemberResponse {
	return MemberResponse{ID: m.ID, Email: m.Email, Name: m.Name, Role: m.Role}
}
