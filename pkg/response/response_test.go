package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/homeservices/user-service/pkg/apperror"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "req-1")
	return c, w
}

func TestErrorWritesProblem(t *testing.T) {
	c, w := newContext()
	Error(c, apperror.New(apperror.KindUserExists, "An account with this email address already exists"))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Fatal("expected request to be aborted")
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Type != apperror.TypeBase+"user-exists" || p.RequestID != "req-1" {
		t.Fatalf("unexpected problem %+v", p)
	}
}

func TestErrorDoesNotLeakUnknownCause(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: password authentication failed for user postgres"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Detail != "An unexpected error occurred" {
		t.Fatalf("expected generic detail, got %q", p.Detail)
	}
}

func TestSuccessWritesEnvelope(t *testing.T) {
	c, w := newContext()
	Success(c, http.StatusCreated, map[string]string{"id": "u1"}, "created", nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var body APIResponse[map[string]string]
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data["id"] != "u1" || body.Message != "created" {
		t.Fatalf("unexpected envelope %+v", body)
	}
}
