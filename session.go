package portal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goliatone/go-auth-portal/client"
)

// SessionState is the three valued answer to "is this browser signed in".
type SessionState string

const (
	// SessionUnknown means the auth service could not be asked.
	SessionUnknown SessionState = "unknown"
	SessionAbsent  SessionState = "absent"
	SessionPresent SessionState = "present"
)

// SessionUser is the part of the user record screens display.
type SessionUser struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Image            string `json:"image,omitempty"`
	EmailVerified    bool   `json:"email_verified"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

// Session is an observed signed in session.
type Session struct {
	User      SessionUser `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// SessionView is what a screen knows about the session.
type SessionView struct {
	State   SessionState `json:"state"`
	Session *Session     `json:"session,omitempty"`
}

func (v SessionView) Present() bool {
	return v.State == SessionPresent && v.Session != nil
}

func (v SessionView) User() *SessionUser {
	if !v.Present() {
		return nil
	}
	return &v.Session.User
}

func unknownView() SessionView { return SessionView{State: SessionUnknown} }
func absentView() SessionView  { return SessionView{State: SessionAbsent} }

func presentView(s *Session) SessionView {
	return SessionView{State: SessionPresent, Session: s}
}

// SessionObserver asks the auth service for the session behind a browser's
// cookies.
type SessionObserver struct {
	client AuthClient
	logger Logger
	now    func() time.Time
}

// SessionObserverOption customizes a SessionObserver.
type SessionObserverOption func(*SessionObserver)

func WithSessionObserverLogger(logger Logger) SessionObserverOption {
	return func(o *SessionObserver) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithSessionObserverClock(now func() time.Time) SessionObserverOption {
	return func(o *SessionObserver) {
		if now != nil {
			o.now = now
		}
	}
}

func NewSessionObserver(c AuthClient, opts ...SessionObserverOption) *SessionObserver {
	o := &SessionObserver{
		client: c,
		logger: defLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Observe returns Unknown on transport failure or a server error, Absent when
// there is no session or it expired, Present otherwise. Other remote
// rejections are treated as signed out.
func (o *SessionObserver) Observe(ctx context.Context, creds client.Credentials) SessionView {
	if len(creds.Cookies) == 0 {
		return absentView()
	}

	resp, err := o.client.GetSession(ctx, creds)
	if err != nil {
		status := client.StatusCode(err)
		if client.IsTransportError(err) || status >= http.StatusInternalServerError {
			o.logger.Warn("session observe failed", "status", status, "error", err)
			return unknownView()
		}
		o.logger.Debug("session rejected", "status", status)
		return absentView()
	}

	if resp == nil || resp.Data == nil {
		return absentView()
	}

	session := sessionFromPayload(resp.Data)
	if session.Expired(o.now()) {
		return absentView()
	}

	return presentView(session)
}

func sessionFromPayload(p *client.SessionPayload) *Session {
	return &Session{
		User: SessionUser{
			ID:               p.User.ID,
			Name:             p.User.Name,
			Email:            p.User.Email,
			Image:            p.User.Image,
			EmailVerified:    p.User.EmailVerified,
			TwoFactorEnabled: p.User.TwoFactorEnabled,
		},
		ExpiresAt: p.Session.ExpiresAt,
	}
}

// SessionContext holds the current session view of one browser and lets
// interested parties refresh it and be told when it changes. It is created per
// request by the session middleware and passed to handlers explicitly.
type SessionContext struct {
	mu          sync.Mutex
	observer    *SessionObserver
	creds       client.Credentials
	view        SessionView
	subscribers map[int]func(SessionView)
	nextID      int
}

func NewSessionContext(observer *SessionObserver, creds client.Credentials, initial SessionView) *SessionContext {
	if initial.State == "" {
		initial = unknownView()
	}
	return &SessionContext{
		observer:    observer,
		creds:       creds,
		view:        initial,
		subscribers: map[int]func(SessionView){},
	}
}

func (s *SessionContext) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Credentials returns the browser credentials the context observes with.
func (s *SessionContext) Credentials() client.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// UpdateCredentials swaps the cookies used for the next refresh, e.g. after a
// sign in relayed new cookies.
func (s *SessionContext) UpdateCredentials(creds client.Credentials) {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
}

// Set replaces the view and notifies subscribers when the state or user
// changed.
func (s *SessionContext) Set(view SessionView) {
	s.mu.Lock()
	changed := viewChanged(s.view, view)
	s.view = view
	subs := make([]func(SessionView), 0, len(s.subscribers))
	if changed {
		for _, fn := range s.subscribers {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(view)
	}
}

// Refresh observes the session again.
func (s *SessionContext) Refresh(ctx context.Context) SessionView {
	if s.observer == nil {
		return s.View()
	}
	view := s.observer.Observe(ctx, s.Credentials())
	s.Set(view)
	return view
}

// Subscribe registers fn for view changes and returns a cancel function.
func (s *SessionContext) Subscribe(fn func(SessionView)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Poll refreshes the view every interval until ctx is done.
func (s *SessionContext) Poll(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Await polls until the view changes or ctx is done and returns the latest
// view either way.
func (s *SessionContext) Await(ctx context.Context, every time.Duration) SessionView {
	changed := make(chan SessionView, 1)
	unsubscribe := s.Subscribe(func(v SessionView) {
		select {
		case changed <- v:
		default:
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Poll(ctx, every)

	select {
	case v := <-changed:
		return v
	case <-ctx.Done():
		return s.View()
	}
}

func viewChanged(a, b SessionView) bool {
	if a.State != b.State {
		return true
	}
	if a.Session == nil || b.Session == nil {
		return a.Session != b.Session
	}
	return a.Session.User != b.Session.User || !a.Session.ExpiresAt.Equal(b.Session.ExpiresAt)
}
