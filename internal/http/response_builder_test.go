package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"freshlife/internal/auth"
	"freshlife/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/tasks/1").
		Body(map[string]string{"id": "1"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/tasks/1" {
		t.Errorf("Location = %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["id"] != "1" {
		t.Errorf("body = %v", body)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d with %d bytes", w.Code, w.Body.Len())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		field    string
		hideText bool
	}{
		{"validation", core.NewValidationError("title", "title is required"), http.StatusUnprocessableEntity, CodeValidation, "title", false},
		{"not found", &core.NotFoundError{Kind: "task", ID: "x"}, http.StatusNotFound, CodeNotFound, "", false},
		{"permission", &core.PermissionError{Kind: "task", ID: "x", UserID: "u"}, http.StatusForbidden, CodePermission, "", false},
		{"already completed", &core.AlreadyCompletedError{TaskID: "x"}, http.StatusConflict, CodeAlreadyCompleted, "", false},
		{"persistence", core.NewPersistenceError("query tasks", errors.New("disk on fire")), http.StatusInternalServerError, CodePersistence, "", true},
		{"timeout", core.NewPersistenceError("query tasks", context.DeadlineExceeded), http.StatusGatewayTimeout, CodeTimeout, "", true},
		{"unresolved", auth.ErrUnresolved, http.StatusServiceUnavailable, CodeUnresolved, "", false},
		{"absent", auth.ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated, "", false},
		{"wrapped validation", fmt.Errorf("add: %w", core.NewValidationError("tag", "bad")), http.StatusUnprocessableEntity, CodeValidation, "tag", false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(tt.err).Write(w)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var body struct {
				Error ErrorBody `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.code)
			}
			if body.Error.Field != tt.field {
				t.Errorf("field = %q, want %q", body.Error.Field, tt.field)
			}
			if tt.hideText && body.Error.Message == tt.err.Error() {
				t.Errorf("message leaks cause: %q", body.Error.Message)
			}
			if StatusFor(tt.err) != tt.status {
				t.Errorf("StatusFor() = %d, want %d", StatusFor(tt.err), tt.status)
			}
		})
	}
}

func TestFromError_UnresolvedSetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(auth.ErrUnresolved).Write(w)
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
}
