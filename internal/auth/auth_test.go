package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeaderProvider_Unresolved(t *testing.T) {
	p := NewHeaderProvider()
	s := p.CurrentUser(context.Background())
	if s.State != Unresolved {
		t.Fatalf("State = %v, want unresolved", s.State)
	}
	if _, err := s.UserID(); !errors.Is(err, ErrUnresolved) {
		t.Errorf("UserID() error = %v, want ErrUnresolved", err)
	}
}

func TestHeaderProvider_Middleware(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    Session
	}{
		{
			name: "no headers",
			want: Session{State: Absent},
		},
		{
			name:    "blank id",
			headers: map[string]string{HeaderUserID: "  "},
			want:    Session{State: Absent},
		},
		{
			name: "full identity",
			headers: map[string]string{
				HeaderUserID:     "u1",
				HeaderUserName:   "Ada",
				HeaderUserAvatar: "https://example.com/a.png",
			},
			want: Session{State: Present, User: User{ID: "u1", DisplayName: "Ada", AvatarURL: "https://example.com/a.png"}},
		},
	}

	p := NewHeaderProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Session
			h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = p.CurrentUser(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/tasks/today", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("session = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSession_UserID(t *testing.T) {
	if _, err := (Session{State: Absent}).UserID(); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("absent: err = %v", err)
	}
	id, err := (Session{State: Present, User: User{ID: "u1"}}).UserID()
	if err != nil || id != "u1" {
		t.Errorf("present: %q, %v", id, err)
	}
}

func TestStaticUser(t *testing.T) {
	if s := StaticUser("").CurrentUser(context.Background()); s.State != Absent {
		t.Errorf("empty id: state = %v", s.State)
	}
	s := StaticUser(" admin ").CurrentUser(context.Background())
	if s.State != Present || s.User.ID != "admin" {
		t.Errorf("StaticUser = %+v", s)
	}
}
