// Package auth resolves the acting user. Identity is established upstream
// (an authenticating proxy) and forwarded in request headers.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"freshlife/internal/log"
)

type State int

const (
	// Unresolved means identity has not been established for this context yet.
	Unresolved State = iota
	// Absent means identity was checked and there is no signed-in user.
	Absent
	Present
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Present:
		return "present"
	default:
		return "unresolved"
	}
}

var (
	ErrUnresolved      = errors.New("identity not resolved yet")
	ErrUnauthenticated = errors.New("no signed-in user")
)

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type Session struct {
	State State
	User  User
}

// UserID returns the user id, or an error describing why there is none.
func (s Session) UserID() (string, error) {
	switch s.State {
	case Present:
		return s.User.ID, nil
	case Absent:
		return "", ErrUnauthenticated
	default:
		return "", ErrUnresolved
	}
}

// Provider reports the current user for a context.
type Provider interface {
	CurrentUser(ctx context.Context) Session
}

const (
	HeaderUserID     = "X-User-Id"
	HeaderUserName   = "X-User-Name"
	HeaderUserAvatar = "X-User-Avatar"
)

type ctxKey struct{}

// WithSession returns ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// HeaderProvider reads the identity its Middleware placed on the context.
type HeaderProvider struct {
	logger *log.Logger
}

var _ Provider = (*HeaderProvider)(nil)

func NewHeaderProvider() *HeaderProvider {
	return &HeaderProvider{logger: log.WithComponent(log.ComponentAuth)}
}

// CurrentUser is Unresolved when the middleware never ran for ctx.
func (p *HeaderProvider) CurrentUser(ctx context.Context) Session {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok {
		return Session{State: Unresolved}
	}
	return s
}

// SessionFromRequest builds a session from the forwarded identity headers.
func SessionFromRequest(r *http.Request) Session {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return Session{State: Absent}
	}
	return Session{
		State: Present,
		User: User{
			ID:          id,
			DisplayName: strings.TrimSpace(r.Header.Get(HeaderUserName)),
			AvatarURL:   strings.TrimSpace(r.Header.Get(HeaderUserAvatar)),
		},
	}
}

// Middleware resolves identity once per request.
func (p *HeaderProvider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := SessionFromRequest(r)
		if s.State == Present {
			p.logger.DebugContext(r.Context(), "Identity resolved", log.FieldUserID, s.User.ID)
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// Static always reports the same session. The admin CLI uses it.
type Static Session

func (s Static) CurrentUser(context.Context) Session { return Session(s) }

// StaticUser returns a provider for a fixed user id, or Absent when id is empty.
func StaticUser(id string) Static {
	id = strings.TrimSpace(id)
	if id == "" {
		return Static{State: Absent}
	}
	return Static{State: Present, User: User{ID: id}}
}
