package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
	"github.com/louisbranch/swnsheet/internal/services/sheet/controller"
	"github.com/louisbranch/swnsheet/internal/services/sheet/view"
)

// SessionCookieName identifies a browser's sheet.
const SessionCookieName = "sheet_session"

// BackendFactory returns a fresh backend for a new browser session. Each
// backend must hold its own service session.
type BackendFactory func() (controller.Backend, error)

// Session is one browser's sheet: its controller and the panels bound to it.
type Session struct {
	Controller *controller.Controller
	Attributes *view.AttributesPanel
	Details    *view.DetailsPanel

	lastSeen time.Time
}

func newSession(backend controller.Backend, now time.Time) *Session {
	ctrl := controller.New(backend)
	return &Session{
		Controller: ctrl,
		Attributes: view.NewAttributesPanel(view.AttributeCallbacks{
			OnRoll:            ctrl.RollAttributes,
			OnChangeAttribute: ctrl.ChangeAttribute,
		}),
		Details:  view.NewDetailsPanel(ctrl.SetDetail),
		lastSeen: now,
	}
}

// Sync pushes the controller's record into both panels.
func (s *Session) Sync() controller.State {
	state := s.Controller.Snapshot()
	s.Attributes.Sync(state.Character)
	s.Details.Sync(state.Character)
	return state
}

// Mount performs the first load for a new sheet and syncs the panels.
func (s *Session) Mount(ctx context.Context) {
	_ = s.Controller.Mount(ctx)
	s.Sync()
}

// SessionRegistry maps session cookies to sheets.
type SessionRegistry struct {
	newBackend BackendFactory
	secure     bool
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry builds an empty registry.
func NewSessionRegistry(newBackend BackendFactory, secure bool) (*SessionRegistry, error) {
	if newBackend == nil {
		return nil, errors.New("backend factory is required")
	}
	return &SessionRegistry{
		newBackend: newBackend,
		secure:     secure,
		now:        time.Now,
		sessions:   map[string]*Session{},
	}, nil
}

// Resolve returns the sheet for r, creating one and setting the cookie when
// the browser has none or the id is unknown.
func (r *SessionRegistry) Resolve(w http.ResponseWriter, req *http.Request) (*Session, error) {
	if cookie, err := req.Cookie(SessionCookieName); err == nil {
		if session, ok := r.lookup(cookie.Value); ok {
			return session, nil
		}
	}

	backend, err := r.newBackend()
	if err != nil {
		return nil, fmt.Errorf("new sheet backend: %w", err)
	}
	id := uuid.NewString()
	session := newSession(backend, r.now())

	r.mu.Lock()
	r.sessions[id] = session
	r.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

func (r *SessionRegistry) lookup(id string) (*Session, bool) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if ok {
		session.lastSeen = r.now()
	}
	return session, ok
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than idle and returns how many went.
func (r *SessionRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, session := range r.sessions {
		if session.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// ClientBackendFactory returns a factory of API clients rooted at baseURL.
func ClientBackendFactory(baseURL string, opts ...client.Option) BackendFactory {
	return func() (controller.Backend, error) {
		c, err := client.New(baseURL, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
