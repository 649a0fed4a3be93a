package portal

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"

	"github.com/goliatone/go-auth-portal/middleware/csrf"
)

// RouteRegistrar is the part of router.Router the controller mounts on.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// RegisterAuthRoutes mounts every screen of the portal.
func RegisterAuthRoutes(app RouteRegistrar, opts ...AuthControllerOption) *AuthController {
	c := NewAuthController(opts...)

	app.Get(c.Routes.Home, c.screen(c.Routes.Home, c.HomeShow)).SetName("home")

	app.Get(c.Routes.SignIn, c.screen(c.Routes.SignIn, c.SignInShow)).SetName("sign-in.get")
	app.Post(c.Routes.SignIn, c.public(c.SignInPost)).SetName("sign-in.post")
	app.Post(c.Routes.SocialSignIn, c.public(c.SocialSignInPost)).SetName("sign-in-social.post")
	app.Post(c.Routes.SignOut, c.public(c.SignOutPost)).SetName("sign-out.post")

	app.Get(c.Routes.SignUp, c.screen(c.Routes.SignUp, c.SignUpShow)).SetName("sign-up.get")
	app.Post(c.Routes.SignUp, c.public(c.SignUpPost)).SetName("sign-up.post")

	app.Get(c.Routes.ForgotPassword, c.screen(c.Routes.ForgotPassword, c.ForgotPasswordShow)).SetName("forgot-password.get")
	app.Post(c.Routes.ForgotPassword, c.public(c.ForgotPasswordPost)).SetName("forgot-password.post")

	app.Get(c.Routes.ResetPassword, c.screen(c.Routes.ResetPassword, c.ResetPasswordShow)).SetName("reset-password.get")
	app.Post(c.Routes.ResetPassword, c.public(c.ResetPasswordPost)).SetName("reset-password.post")

	app.Get(c.Routes.TwoFactor, c.screen(c.Routes.TwoFactor, c.TwoFactorShow)).SetName("two-factor.get")
	app.Post(c.Routes.TwoFactor, c.public(c.TwoFactorPost)).SetName("two-factor.post")
	app.Post(c.Routes.TwoFactor+"/backup", c.public(c.TwoFactorBackupPost)).SetName("two-factor-backup.post")

	app.Get(c.Routes.Profile, c.screen(c.Routes.Profile, c.ProfileShow)).SetName("profile.get")
	app.Post(c.Routes.Profile+"/2fa/toggle", c.protected(c.TwoFactorTogglePost)).SetName("profile-2fa-toggle.post")
	app.Post(c.Routes.Profile+"/2fa/enable", c.protected(c.TwoFactorEnablePost)).SetName("profile-2fa-enable.post")
	app.Post(c.Routes.Profile+"/2fa/verify", c.protected(c.TwoFactorVerifyPost)).SetName("profile-2fa-verify.post")
	app.Post(c.Routes.Profile+"/2fa/disable", c.protected(c.TwoFactorDisablePost)).SetName("profile-2fa-disable.post")
	app.Post(c.Routes.Profile+"/2fa/cancel", c.protected(c.TwoFactorCancelPost)).SetName("profile-2fa-cancel.post")
	app.Post(c.Routes.Profile+"/2fa/backup-codes/used", c.protected(c.BackupCodeUsedPost)).SetName("profile-2fa-backup-used.post")

	app.Get(c.Routes.Dashboard, c.screen(c.Routes.Dashboard, c.DashboardShow)).SetName("dashboard.get")
	app.Get(c.Routes.Settings, c.screen(c.Routes.Settings, c.SettingsShow)).SetName("settings.get")

	app.Get(c.Routes.SessionAPI, c.public(c.SessionShow)).SetName("session.get")
	app.Get(c.Routes.CSRFToken, c.CSRFTokenShow).SetName("csrf-token.get")

	app.Get("/*", c.public(c.NotFound)).SetName("not-found")

	return c
}

// screen guards a read-only page according to the route table.
func (a *AuthController) screen(path string, h router.HandlerFunc) router.HandlerFunc {
	if a.Routes.Protected(path) {
		return a.protected(h)
	}
	return a.public(h)
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	Flows        *Flows
	TwoFactor    *TwoFactorFlow
	Observer     *SessionObserver
	Cache        *SessionCache
	Cookies      CookieSettings
	ErrorHandler router.ErrorHandler
	// SessionPoll and SessionWait bound the long poll behind the session
	// endpoint.
	SessionPoll  time.Duration
	SessionWait  time.Duration
	now          func() time.Time
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithFlows(flows *Flows) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Flows = flows
		return c
	}
}

func WithTwoFactorFlow(t *TwoFactorFlow) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.TwoFactor = t
		return c
	}
}

func WithSessionObserver(o *SessionObserver) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Observer = o
		return c
	}
}

// WithSessionPolling sets how often a waiting session request asks the auth
// service again and how long it waits for a change in total.
func WithSessionPolling(every, wait time.Duration) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if every > 0 {
			c.SessionPoll = every
		}
		if wait > 0 {
			c.SessionWait = wait
		}
		return c
	}
}

func WithSessionCache(cache *SessionCache) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Cache = cache
		return c
	}
}

func WithCookieSettings(s CookieSettings) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if s.Path == "" {
			s.Path = "/"
		}
		if s.SameSite == "" {
			s.SameSite = "Lax"
		}
		c.Cookies = s
		return c
	}
}

func WithRoutes(r *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if r != nil {
			c.Routes = r
		}
		return c
	}
}

func WithViews(v *AuthControllerViews) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if v != nil {
			c.Views = v
		}
		return c
	}
}

func WithErrorHandler(h router.ErrorHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if h != nil {
			c.ErrorHandler = h
		}
		return c
	}
}

func WithDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerClock(now func() time.Time) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if now != nil {
			c.now = now
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes:       defaultRoutes(),
		Views:        defaultViews(),
		Cookies:      defaultCookieSettings(),
		SessionPoll:  2 * time.Second,
		SessionWait:  25 * time.Second,
		now:          time.Now,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Flows == nil {
		panic("Missing Flows in auth controller...")
	}

	if c.TwoFactor == nil {
		c.TwoFactor = NewTwoFactorFlow(c.Flows, nil, WithTwoFactorLogger(c.Logger))
	}

	if c.Observer == nil {
		c.Observer = NewSessionObserver(c.Flows.client, WithSessionObserverLogger(c.Logger))
	}

	return c
}

func (a *AuthController) sessionMiddleware() router.MiddlewareFunc {
	return SessionMiddleware(SessionMiddlewareConfig{
		Observer: a.Observer,
		Cache:    a.Cache,
		Cookies:  a.Cookies,
		Logger:   a.Logger,
	})
}

func (a *AuthController) public(h router.HandlerFunc) router.HandlerFunc {
	return a.sessionMiddleware()(h)
}

func (a *AuthController) protected(h router.HandlerFunc) router.HandlerFunc {
	guard := RequireSession(RequireSessionConfig{
		SignIn:      a.Routes.SignIn,
		LoadingView: a.Views.Loading,
		SessionAPI:  a.Routes.SessionAPI,
		Cookies:     a.Cookies,
	})
	return a.sessionMiddleware()(guard(h))
}

func (a *AuthController) HomeShow(ctx router.Context) error {
	return ctx.Render(a.Views.Home, a.viewData(ctx, nil, nil))
}

func (a *AuthController) SignInShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignIn, a.viewData(ctx, NewFormState(nil), nil))
}

func (a *AuthController) SignInPost(ctx router.Context) error {
	payload := new(SignInPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.SignIn, err)
	}

	next := requestCookie(ctx, DefaultRedirectCookie)
	out := a.Flows.SignIn(ctx.Context(), a.submission(ctx), *payload, next)
	if next != "" && out.Redirect == next {
		deleteCookie(ctx, DefaultRedirectCookie, a.Cookies)
	}

	return a.respond(ctx, a.Views.SignIn, out, nil)
}

func (a *AuthController) SocialSignInPost(ctx router.Context) error {
	payload := new(SocialSignInPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.SignIn, err)
	}
	out := a.Flows.SocialSignIn(ctx.Context(), a.submission(ctx), *payload)
	return a.respond(ctx, a.Views.SignIn, out, nil)
}

func (a *AuthController) SignOutPost(ctx router.Context) error {
	out := a.Flows.SignOut(ctx.Context(), a.submission(ctx))
	return a.respond(ctx, a.Views.Home, out, nil)
}

func (a *AuthController) SignUpShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignUp, a.viewData(ctx, NewFormState(nil), router.ViewContext{
		"requirements": PasswordRequirements(""),
	}))
}

func (a *AuthController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.SignUp, err)
	}
	out := a.Flows.SignUp(ctx.Context(), a.submission(ctx), *payload)
	return a.respond(ctx, a.Views.SignUp, out, router.ViewContext{
		"requirements": PasswordRequirements(payload.Password),
	})
}

func (a *AuthController) ForgotPasswordShow(ctx router.Context) error {
	return ctx.Render(a.Views.ForgotPassword, a.viewData(ctx, NewFormState(nil), nil))
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.ForgotPassword, err)
	}
	out := a.Flows.ForgotPassword(ctx.Context(), a.submission(ctx), *payload)
	return a.respond(ctx, a.Views.ForgotPassword, out, nil)
}

func (a *AuthController) ResetPasswordShow(ctx router.Context) error {
	token := ctx.Query("token", "")
	form := NewFormState(map[string]any{"token": token})
	return ctx.Render(a.Views.ResetPassword, a.viewData(ctx, form, router.ViewContext{
		"token":        token,
		"requirements": PasswordRequirements(""),
	}))
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.ResetPassword, err)
	}
	if strings.TrimSpace(payload.Token) == "" {
		payload.Token = ctx.Query("token", "")
	}

	out := a.Flows.ResetPassword(ctx.Context(), a.submission(ctx), *payload)
	return a.respond(ctx, a.Views.ResetPassword, out, router.ViewContext{
		"token":        payload.Token,
		"requirements": PasswordRequirements(payload.Password),
	})
}

func (a *AuthController) TwoFactorShow(ctx router.Context) error {
	return ctx.Render(a.Views.TwoFactor, a.viewData(ctx, NewFormState(nil), router.ViewContext{
		"challenge_state": TwoFactorAwaitingLoginCode,
	}))
}

func (a *AuthController) TwoFactorPost(ctx router.Context) error {
	payload := new(TwoFactorCodePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.TwoFactor, err)
	}
	out := a.TwoFactor.VerifyLogin(ctx.Context(), a.submission(ctx), *payload)
	return a.respond(ctx, a.Views.TwoFactor, out, challengeData(out))
}

func (a *AuthController) TwoFactorBackupPost(ctx router.Context) error {
	payload := new(BackupCodePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.TwoFactor, err)
	}
	out := a.TwoFactor.VerifyBackupCode(ctx.Context(), a.submission(ctx), *payload)
	data := challengeData(out)
	data["backup"] = true
	return a.respond(ctx, a.Views.TwoFactor, out, data)
}

func challengeData(out Outcome) router.ViewContext {
	state := TwoFactorAwaitingLoginCode
	if out.Redirect != "" {
		state = TwoFactorVerified
	}
	return router.ViewContext{"challenge_state": state}
}

func (a *AuthController) ProfileShow(ctx router.Context) error {
	user, session, err := a.sessionUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	e, err := a.TwoFactor.Load(ctx.Context(), user)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.Profile, a.profileData(ctx, session, NewFormState(nil), e))
}

func (a *AuthController) TwoFactorTogglePost(ctx router.Context) error {
	return a.profileTransition(ctx, a.TwoFactor.Toggle)
}

func (a *AuthController) TwoFactorCancelPost(ctx router.Context) error {
	return a.profileTransition(ctx, a.TwoFactor.Cancel)
}

func (a *AuthController) profileTransition(ctx router.Context, step func(context.Context, SessionUser) (*TwoFactorEnrollment, error)) error {
	user, session, err := a.sessionUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	form := NewFormState(nil)
	status := http.StatusOK

	e, err := step(ctx.Context(), user)
	if err != nil {
		if e == nil {
			return a.ErrorHandler(ctx, err)
		}
		form.Fail(MessageTwoFactorFailed)
		status = StatusFor(err)
	}

	return ctx.Status(status).Render(a.Views.Profile, a.profileData(ctx, session, form, e))
}

func (a *AuthController) TwoFactorEnablePost(ctx router.Context) error {
	return a.profilePassword(ctx, a.TwoFactor.Enable)
}

func (a *AuthController) TwoFactorDisablePost(ctx router.Context) error {
	return a.profilePassword(ctx, a.TwoFactor.Disable)
}

func (a *AuthController) profilePassword(ctx router.Context, step func(context.Context, Submission, SessionUser, TwoFactorPasswordPayload) TwoFactorOutcome) error {
	user, session, err := a.sessionUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(TwoFactorPasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.Profile, err)
	}

	sub := a.submissionFor(ctx, session)
	out := step(ctx.Context(), sub, user, *payload)
	return a.respondProfile(ctx, session, sub, out)
}

func (a *AuthController) TwoFactorVerifyPost(ctx router.Context) error {
	user, session, err := a.sessionUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(TwoFactorCodePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.Profile, err)
	}

	sub := a.submissionFor(ctx, session)
	out := a.TwoFactor.Verify(ctx.Context(), sub, user, *payload)
	return a.respondProfile(ctx, session, sub, out)
}

// BackupCodeUsedPayload names a displayed backup code to strike out.
type BackupCodeUsedPayload struct {
	Code string `form:"code" json:"code"`
}

func (a *AuthController) BackupCodeUsedPost(ctx router.Context) error {
	user, session, err := a.sessionUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(BackupCodeUsedPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.bindError(ctx, a.Views.Profile, err)
	}

	form := NewFormState(nil)
	status := http.StatusOK

	e, err := a.TwoFactor.MarkBackupCodeUsed(ctx.Context(), user, payload.Code)
	if err != nil {
		if e == nil {
			return a.ErrorHandler(ctx, err)
		}
		form.Fail(UserMessage(err, MessageTwoFactorFailed))
		status = StatusFor(err)
	}

	return ctx.Status(status).Render(a.Views.Profile, a.profileData(ctx, session, form, e))
}

// respondProfile re-renders the profile after a two factor submit. When the
// auth service changed the session the view is observed again so the page
// reflects the new two factor flag.
func (a *AuthController) respondProfile(ctx router.Context, session *SessionContext, sub Submission, out TwoFactorOutcome) error {
	RelayCookies(ctx, out.Cookies, a.now())
	if out.SessionChanged {
		ClearSessionCache(ctx, a.Cache, a.Cookies)
		session.UpdateCredentials(mergeCredentials(sub.Creds, out.Cookies))
		session.Refresh(ctx.Context())
	}

	data := a.profileData(ctx, session, out.Form, out.Enrollment)

	switch {
	case out.Form.Error != "":
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  out.Form.Error,
			"system_message": "Two factor update failed",
		}).Status(out.Status).Render(a.Views.Profile, data)
	case out.Toast != "":
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": out.Toast,
		}).Status(out.Status).Render(a.Views.Profile, data)
	default:
		return ctx.Status(out.Status).Render(a.Views.Profile, data)
	}
}

func (a *AuthController) profileData(ctx router.Context, session *SessionContext, form *FormState, e *TwoFactorEnrollment) router.ViewContext {
	availability := a.TwoFactor.Availability(ctx.Context(), session.Credentials())

	qr := ""
	if e != nil && e.TOTPURI != "" {
		if data, err := TOTPQRCode(e.TOTPURI, defaultQRSize); err == nil {
			qr = data
		} else {
			a.Logger.Warn("qr render failed", "error", err)
		}
	}

	state, intent := "", ""
	if e != nil {
		state, intent = string(e.State), string(e.Intent)
	}

	return a.viewData(ctx, form, router.ViewContext{
		"enrollment":         e,
		"two_factor_state":   state,
		"two_factor_intent":  intent,
		"qr_code":            qr,
		"two_factor_allowed": availability.Available,
		"accounts":           availability.Accounts,
	})
}

func (a *AuthController) DashboardShow(ctx router.Context) error {
	return ctx.Render(a.Views.Dashboard, a.viewData(ctx, nil, nil))
}

func (a *AuthController) SettingsShow(ctx router.Context) error {
	return ctx.Render(a.Views.Settings, a.viewData(ctx, nil, nil))
}

// SessionShow answers page side polling with the current session view.
func (a *AuthController) SessionShow(ctx router.Context) error {
	session, err := GetSessionContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusOK, absentView())
	}

	view := session.View()
	switch {
	case ctx.Query("wait", "") != "":
		waitCtx, cancel := context.WithTimeout(ctx.Context(), a.SessionWait)
		view = session.Await(waitCtx, a.SessionPoll)
		cancel()
	case ctx.Query("refresh", "") != "":
		view = session.Refresh(ctx.Context())
	}

	ctx.SetHeader("Cache-Control", "no-store")
	return ctx.JSON(http.StatusOK, view)
}

// CSRFTokenShow hands scripts the token the CSRF middleware issued for this
// browser.
func (a *AuthController) CSRFTokenShow(ctx router.Context) error {
	ctx.SetHeader("Cache-Control", "no-store")

	tok, err := csrf.TokenFromContext(ctx, csrf.DefaultContextKey)
	if err != nil {
		a.Logger.Warn("csrf token requested without the csrf middleware", "error", err)
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{
			"error":     MessageUnknownError,
			"text_code": csrf.TextCodeTokenMissing,
		})
	}
	return ctx.JSON(http.StatusOK, tok)
}

func (a *AuthController) NotFound(ctx router.Context) error {
	return ctx.Status(http.StatusNotFound).Render(a.Views.NotFound, a.viewData(ctx, nil, router.ViewContext{
		"path": ctx.Path(),
	}))
}

// respond turns a flow outcome into a redirect or a re-rendered form.
func (a *AuthController) respond(ctx router.Context, view string, out Outcome, extra router.ViewContext) error {
	RelayCookies(ctx, out.Cookies, a.now())
	if out.SessionChanged {
		ClearSessionCache(ctx, a.Cache, a.Cookies)
	}

	if out.Redirect != "" {
		status := out.Status
		if status < 300 || status > 399 {
			status = http.StatusSeeOther
		}
		if out.Toast != "" {
			return flash.WithSuccess(ctx, router.ViewContext{
				"system_message": out.Toast,
			}).Redirect(out.Redirect, status)
		}
		return ctx.Redirect(out.Redirect, status)
	}

	data := a.viewData(ctx, out.Form, extra)

	switch {
	case out.Form.Error != "":
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  out.Form.Error,
			"system_message": "Request failed",
		}).Status(out.Status).Render(view, data)
	case out.Toast != "":
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": out.Toast,
		}).Status(out.Status).Render(view, data)
	default:
		return ctx.Status(out.Status).Render(view, data)
	}
}

func (a *AuthController) bindError(ctx router.Context, view string, err error) error {
	a.Logger.Error("parse payload", "error", err)

	form := NewFormState(nil)
	form.Invalid(map[string]string{"form": "Failed to parse form"})

	return flash.WithError(ctx, router.ViewContext{
		"error_message":  err.Error(),
		"system_message": "Error parsing body",
	}).Status(http.StatusBadRequest).Render(view, a.viewData(ctx, form, nil))
}

func (a *AuthController) viewData(ctx router.Context, form *FormState, extra router.ViewContext) router.ViewContext {
	data := router.ViewContext{}
	for k, v := range TemplateHelpersWithRouter(ctx) {
		data[k] = v
	}

	if session, err := GetSessionContext(ctx); err == nil {
		view := session.View()
		data["session"] = view
		data["session_state"] = string(view.State)
		if user := view.User(); user != nil {
			data[TemplateUserKey] = *user
		}
	}

	if form != nil {
		for k, v := range form.ViewContext() {
			data[k] = v
		}
	}

	data["routes"] = a.Routes
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func (a *AuthController) sessionUser(ctx router.Context) (SessionUser, *SessionContext, error) {
	session, err := GetSessionContext(ctx)
	if err != nil {
		return SessionUser{}, nil, err
	}
	user := session.View().User()
	if user == nil {
		return SessionUser{}, nil, ErrSessionRequired
	}
	return *user, session, nil
}

func (a *AuthController) submission(ctx router.Context) Submission {
	session, _ := GetSessionContext(ctx)
	return a.submissionFor(ctx, session)
}

func (a *AuthController) submissionFor(ctx router.Context, session *SessionContext) Submission {
	creds := Credentials(ctx)
	if session != nil {
		creds = session.Credentials()
	}
	return Submission{
		BrowserID: BrowserID(ctx, a.Cookies),
		Creds:     creds,
	}
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Status(StatusFor(err)).Render("errors/500", router.ViewContext{
		"message": UserMessage(err, MessageUnknownError),
		"error":   err,
	})
}
