package portal

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

const (
	DefaultSessionCacheCookie = "portal_session_cache"
	DefaultSessionCacheTTL    = 5 * time.Minute
	sessionCacheIssuer        = "go-auth-portal"
)

// SessionCache signs a short lived copy of a present session view into a
// cookie so protected pages can skip the get-session round trip. The token
// is bound to the auth service cookies it was derived from.
type SessionCache struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	now        func() time.Time
}

type sessionCacheClaims struct {
	jwt.RegisteredClaims
	User           SessionUser `json:"usr"`
	SessionExpires int64       `json:"sxp,omitempty"`
	Fingerprint    string      `json:"fp"`
}

// SessionCacheOption customizes a SessionCache.
type SessionCacheOption func(*SessionCache)

func WithSessionCacheClock(now func() time.Time) SessionCacheOption {
	return func(c *SessionCache) {
		if now != nil {
			c.now = now
		}
	}
}

func WithSessionCacheCookie(name string) SessionCacheOption {
	return func(c *SessionCache) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// NewSessionCache returns nil when secret is empty, which disables caching.
func NewSessionCache(secret string, ttl time.Duration, opts ...SessionCacheOption) *SessionCache {
	if secret == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultSessionCacheTTL
	}

	c := &SessionCache{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: DefaultSessionCacheCookie,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *SessionCache) CookieName() string {
	if c == nil {
		return DefaultSessionCacheCookie
	}
	return c.cookieName
}

// Encode signs view. Only present sessions are cached; the token never
// outlives the session itself.
func (c *SessionCache) Encode(view SessionView, fingerprint string) (string, time.Time, error) {
	if c == nil {
		return "", time.Time{}, goerrors.New("session cache disabled", goerrors.CategoryInternal)
	}
	if !view.Present() {
		return "", time.Time{}, goerrors.New("only present sessions can be cached", goerrors.CategoryBadInput)
	}

	now := c.now()
	expires := now.Add(c.ttl)
	if !view.Session.ExpiresAt.IsZero() && view.Session.ExpiresAt.Before(expires) {
		expires = view.Session.ExpiresAt
	}

	claims := sessionCacheClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionCacheIssuer,
			Subject:   view.Session.User.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		User:        view.Session.User,
		Fingerprint: fingerprint,
	}
	if !view.Session.ExpiresAt.IsZero() {
		claims.SessionExpires = view.Session.ExpiresAt.Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to sign session cache")
	}
	return signed, expires, nil
}

// Decode returns the cached view when the token is valid, unexpired and was
// issued for the same auth cookies.
func (c *SessionCache) Decode(raw, fingerprint string) (SessionView, bool) {
	if c == nil || raw == "" {
		return SessionView{}, false
	}

	claims := &sessionCacheClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionCacheIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return SessionView{}, false
	}

	if claims.Fingerprint != fingerprint {
		return SessionView{}, false
	}

	session := &Session{User: claims.User}
	if claims.SessionExpires > 0 {
		session.ExpiresAt = time.Unix(claims.SessionExpires, 0)
	}
	return presentView(session), true
}

// CookieFingerprint hashes the auth cookies a browser sent, so a cache token
// stops matching as soon as the auth service rotates them.
func CookieFingerprint(cookies []*http.Cookie) string {
	if len(cookies) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		if ck != nil {
			pairs = append(pairs, ck.Name+"="+ck.Value)
		}
	}
	sort.Strings(pairs)

	h := sha256.New()
	for _, p := range pairs {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
