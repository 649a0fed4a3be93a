package portal

import (
	"net/http"
	"slices"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-auth-portal/client"
)

const (
	DefaultBrowserIDCookie = "portal_bid"
	DefaultRedirectCookie  = "portal_redirect"
	DefaultSessionLocalKey = "session"
	currentUserLocalKey    = "current_user"
	redirectCookieTTL      = 5 * time.Minute
	browserIDCookieTTL     = 365 * 24 * time.Hour
)

// portalCookies are never forwarded to the auth service.
var portalCookies = []string{
	DefaultBrowserIDCookie,
	DefaultRedirectCookie,
	DefaultSessionCacheCookie,
	"csrf_token",
	"router-app-flash",
}

// CookieSettings applies to every cookie the portal sets.
type CookieSettings struct {
	Secure   bool
	SameSite string
	Path     string
}

func defaultCookieSettings() CookieSettings {
	return CookieSettings{SameSite: "Lax", Path: "/"}
}

// RequestCookies parses the Cookie header.
func RequestCookies(ctx router.Context) []*http.Cookie {
	raw := ctx.Header("Cookie")
	if raw == "" {
		return nil
	}
	cookies, err := http.ParseCookie(raw)
	if err != nil {
		return nil
	}
	return cookies
}

func requestCookie(ctx router.Context, name string) string {
	for _, ck := range RequestCookies(ctx) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Credentials picks the auth service cookies out of a request.
func Credentials(ctx router.Context) client.Credentials {
	var out []*http.Cookie
	for _, ck := range RequestCookies(ctx) {
		if slices.Contains(portalCookies, ck.Name) {
			continue
		}
		out = append(out, ck)
	}
	return client.Credentials{
		Cookies:   out,
		UserAgent: ctx.Header("User-Agent"),
		IP:        ctx.IP(),
	}
}

// BrowserID returns the id of this browser, issuing one when missing.
func BrowserID(ctx router.Context, settings CookieSettings) string {
	if bid := requestCookie(ctx, DefaultBrowserIDCookie); bid != "" {
		return bid
	}
	bid := uuid.NewString()
	ctx.Cookie(&router.Cookie{
		Name:     DefaultBrowserIDCookie,
		Value:    bid,
		Path:     settings.Path,
		Expires:  time.Now().Add(browserIDCookieTTL),
		Secure:   settings.Secure,
		HTTPOnly: true,
		SameSite: settings.SameSite,
	})
	return bid
}

// RelayCookies hands the cookies set by the auth service to the browser.
func RelayCookies(ctx router.Context, cookies []*http.Cookie, now time.Time) {
	for _, ck := range cookies {
		if ck == nil || ck.Name == "" {
			continue
		}
		ctx.Cookie(toRouterCookie(ck, now))
	}
}

func toRouterCookie(ck *http.Cookie, now time.Time) *router.Cookie {
	out := &router.Cookie{
		Name:     ck.Name,
		Value:    ck.Value,
		Path:     ck.Path,
		Expires:  ck.Expires,
		Secure:   ck.Secure,
		HTTPOnly: ck.HttpOnly,
		SameSite: sameSiteName(ck.SameSite),
	}
	if out.Path == "" {
		out.Path = "/"
	}
	switch {
	case ck.MaxAge < 0:
		out.Value = ""
		out.Expires = now.Add(-time.Hour)
	case ck.MaxAge > 0:
		out.Expires = now.Add(time.Duration(ck.MaxAge) * time.Second)
	}
	return out
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return "Lax"
	}
}

// mergeCredentials overlays relayed cookies on the ones the browser sent, so a
// handler can observe the session the auth service just created.
func mergeCredentials(creds client.Credentials, relayed []*http.Cookie) client.Credentials {
	if len(relayed) == 0 {
		return creds
	}
	byName := map[string]*http.Cookie{}
	order := []string{}
	for _, ck := range creds.Cookies {
		if _, ok := byName[ck.Name]; !ok {
			order = append(order, ck.Name)
		}
		byName[ck.Name] = ck
	}
	for _, ck := range relayed {
		if ck == nil {
			continue
		}
		if _, ok := byName[ck.Name]; !ok {
			order = append(order, ck.Name)
		}
		if ck.MaxAge < 0 || ck.Value == "" {
			byName[ck.Name] = nil
			continue
		}
		byName[ck.Name] = &http.Cookie{Name: ck.Name, Value: ck.Value}
	}

	out := client.Credentials{UserAgent: creds.UserAgent, IP: creds.IP}
	for _, name := range order {
		if ck := byName[name]; ck != nil {
			out.Cookies = append(out.Cookies, ck)
		}
	}
	return out
}

// SessionMiddlewareConfig configures SessionMiddleware.
type SessionMiddlewareConfig struct {
	Observer *SessionObserver
	Cache    *SessionCache
	Cookies  CookieSettings
	Logger   Logger
	// LocalKey is where the *SessionContext is stored, "session" by default.
	LocalKey string
}

// SessionMiddleware observes the session of every request and stores a
// *SessionContext in the request locals.
func SessionMiddleware(cfg SessionMiddlewareConfig) router.MiddlewareFunc {
	if cfg.LocalKey == "" {
		cfg.LocalKey = DefaultSessionLocalKey
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
	if cfg.Cookies.Path == "" {
		cfg.Cookies = defaultCookieSettings()
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			creds := Credentials(ctx)
			fingerprint := CookieFingerprint(creds.Cookies)

			view, cached := cfg.Cache.Decode(requestCookie(ctx, cfg.Cache.CookieName()), fingerprint)
			if !cached {
				view = cfg.Observer.Observe(ctx.Context(), creds)
				storeSessionCache(ctx, cfg.Cache, cfg.Cookies, view, fingerprint, cfg.Logger)
			}

			session := NewSessionContext(cfg.Observer, creds, view)
			ctx.Locals(cfg.LocalKey, session)
			if user := view.User(); user != nil {
				ctx.Locals(currentUserLocalKey, *user)
			}

			return next(ctx)
		}
	}
}

func storeSessionCache(ctx router.Context, cache *SessionCache, settings CookieSettings, view SessionView, fingerprint string, logger Logger) {
	if cache == nil {
		return
	}
	if !view.Present() {
		if view.State == SessionAbsent && requestCookie(ctx, cache.CookieName()) != "" {
			ClearSessionCache(ctx, cache, settings)
		}
		return
	}

	token, expires, err := cache.Encode(view, fingerprint)
	if err != nil {
		logger.Warn("session cache encode failed", "error", err)
		return
	}
	ctx.Cookie(&router.Cookie{
		Name:     cache.CookieName(),
		Value:    token,
		Path:     settings.Path,
		Expires:  expires,
		Secure:   settings.Secure,
		HTTPOnly: true,
		SameSite: settings.SameSite,
	})
}

// ClearSessionCache expires the session cache cookie.
func ClearSessionCache(ctx router.Context, cache *SessionCache, settings CookieSettings) {
	if cache == nil {
		return
	}
	deleteCookie(ctx, cache.CookieName(), settings)
}

// GetSessionContext returns the session context stored by SessionMiddleware.
func GetSessionContext(ctx router.Context, key ...string) (*SessionContext, error) {
	localKey := DefaultSessionLocalKey
	if len(key) > 0 && key[0] != "" {
		localKey = key[0]
	}
	session, ok := ctx.Locals(localKey).(*SessionContext)
	if !ok || session == nil {
		return nil, ErrSessionRequired
	}
	return session, nil
}

// SetRedirect remembers the rejected route so sign in can return to it.
func SetRedirect(ctx router.Context, settings CookieSettings) {
	ctx.Cookie(&router.Cookie{
		Name:     DefaultRedirectCookie,
		Value:    ctx.OriginalURL(),
		Path:     settings.Path,
		Expires:  time.Now().Add(redirectCookieTTL),
		Secure:   settings.Secure,
		HTTPOnly: true,
		SameSite: settings.SameSite,
	})
}

func deleteCookie(ctx router.Context, name string, settings CookieSettings) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Path:     settings.Path,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		Secure:   settings.Secure,
		HTTPOnly: true,
		SameSite: settings.SameSite,
	})
}

// RequireSessionConfig configures RequireSession.
type RequireSessionConfig struct {
	SignIn      string
	LoadingView string
	// SessionAPI is long polled by the loading placeholder.
	SessionAPI  string
	Cookies     CookieSettings
	LocalKey    string
}

// RequireSession guards protected screens: an unknown session renders the
// loading placeholder, an absent one redirects to sign in.
func RequireSession(cfg RequireSessionConfig) router.MiddlewareFunc {
	if cfg.SignIn == "" {
		cfg.SignIn = defaultRedirects().SignIn
	}
	if cfg.LoadingView == "" {
		cfg.LoadingView = defaultViews().Loading
	}
	if cfg.SessionAPI == "" {
		cfg.SessionAPI = defaultRoutes().SessionAPI
	}
	if cfg.Cookies.Path == "" {
		cfg.Cookies = defaultCookieSettings()
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			session, err := GetSessionContext(ctx, cfg.LocalKey)
			if err != nil {
				SetRedirect(ctx, cfg.Cookies)
				return ctx.Redirect(cfg.SignIn, http.StatusSeeOther)
			}

			view := session.View()
			switch view.State {
			case SessionPresent:
				return next(ctx)
			case SessionUnknown:
				ctx.SetHeader("Refresh", "3")
				return ctx.Status(http.StatusServiceUnavailable).Render(cfg.LoadingView, router.ViewContext{
					"session":     view,
					"path":        ctx.OriginalURL(),
					"session_api": cfg.SessionAPI,
				})
			default:
				SetRedirect(ctx, cfg.Cookies)
				return ctx.Redirect(cfg.SignIn, http.StatusSeeOther)
			}
		}
	}
}
