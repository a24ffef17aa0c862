package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/homeservices/user-service/internal/application"
	"github.com/homeservices/user-service/internal/interface/middleware"
	"github.com/homeservices/user-service/pkg/apperror"
	"github.com/homeservices/user-service/pkg/response"
	"github.com/homeservices/user-service/pkg/validation"
)

// UserHandler serves the caller's own profile and the admin user views.
// Every route is mounted behind an authentication guard.
type UserHandler struct {
	Svc *application.Service
}

func NewUserHandler(svc *application.Service) *UserHandler {
	return &UserHandler{Svc: svc}
}

// callerID is only empty when a route was mounted without a guard.
func callerID(c *gin.Context) (string, bool) {
	ac := middleware.AuthFrom(c)
	if ac == nil {
		response.Error(c, application.Authorize(nil))
		return "", false
	}
	return ac.ID, true
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	v, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "Profile retrieved", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var in application.UpdateProfileInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.Svc.UpdateProfile(c.Request.Context(), uid, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "Profile updated successfully", nil)
}

func (h *UserHandler) DeleteProfile(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.Svc.DeactivateAccount(c.Request.Context(), uid, application.RequestMeta{
		IP:        middleware.ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	}); err != nil {
		response.Error(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Account deactivated successfully", nil)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	// leave room for the multipart envelope around the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, application.MaxAvatarBytes+64<<10)

	fh, err := c.FormFile("avatar")
	if err != nil {
		msg := "is required"
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = "must be between 1 byte and 5 MiB"
		}
		response.Error(c, apperror.Validation([]apperror.FieldError{{Field: "avatar", Message: msg}}))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, apperror.Validation([]apperror.FieldError{{Field: "avatar", Message: "could not be read"}}))
		return
	}
	defer func() { _ = f.Close() }()

	v, err := h.Svc.UploadAvatar(c.Request.Context(), uid, application.AvatarUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "Avatar updated", nil)
}

// SearchUsers: GET /users/admin/users?q=&size=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	users, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "Users found", gin.H{"count": len(users)})
}

type userIDParam struct {
	ID string `uri:"id" json:"id" binding:"required,uuid"`
}

// LoginActivity: GET /users/admin/users/:id/activity
func (h *UserHandler) LoginActivity(c *gin.Context) {
	var p userIDParam
	if err := c.ShouldBindUri(&p); err != nil {
		response.Error(c, apperror.Validation(validation.ToDetails(err)))
		return
	}
	a, err := h.Svc.GetLoginActivity(c.Request.Context(), p.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, a, "Login activity", nil)
}
