package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homeservices/user-service/pkg/apperror"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
}

// Problem is the rejection body. Field names follow RFC 7807 plus a timestamp.
type Problem struct {
	Type      string                `json:"type"`
	Title     string                `json:"title"`
	Status    int                   `json:"status"`
	Detail    string                `json:"detail"`
	Timestamp time.Time             `json:"timestamp"`
	RequestID string                `json:"request_id,omitempty"`
	Errors    []apperror.FieldError `json:"errors,omitempty"`
}

// Success writes the envelope and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// NewProblem shapes err for the caller. Non-apperror values become a generic 500.
func NewProblem(ctx *gin.Context, err error) Problem {
	ae := apperror.From(err)
	return Problem{
		Type:      ae.Type(),
		Title:     ae.Title,
		Status:    ae.Status,
		Detail:    ae.Detail,
		Timestamp: time.Now().UTC(),
		RequestID: ctx.GetString("request_id"),
		Errors:    ae.Fields,
	}
}

// Error aborts the request with the problem body for err.
func Error(ctx *gin.Context, err error) Problem {
	p := NewProblem(ctx, err)
	ctx.AbortWithStatusJSON(p.Status, p)
	return p
}
