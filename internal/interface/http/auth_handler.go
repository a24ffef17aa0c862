package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homeservices/user-service/internal/application"
	"github.com/homeservices/user-service/internal/interface/middleware"
	"github.com/homeservices/user-service/pkg/apperror"
	"github.com/homeservices/user-service/pkg/response"
	"github.com/homeservices/user-service/pkg/validation"
)

// AuthHandler serves the public credential endpoints.
type AuthHandler struct {
	Svc *application.Service
}

func NewAuthHandler(svc *application.Service) *AuthHandler {
	return &AuthHandler{Svc: svc}
}

// bindJSON decodes the body into dst and writes a validation problem on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, apperror.Validation(validation.ToDetails(err)))
		return false
	}
	return true
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in application.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res, "User registered successfully", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in application.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	meta := application.RequestMeta{IP: middleware.ClientIP(c), UserAgent: c.Request.UserAgent()}
	res, err := h.Svc.Login(c.Request.Context(), in, meta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "Login successful", nil)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var in application.RefreshInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.Svc.Refresh(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "Token refreshed", nil)
}
