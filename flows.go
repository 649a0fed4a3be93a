package portal

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-print"

	"github.com/goliatone/go-auth-portal/client"
)

// Screen names a form for submission tracking and activity records.
type Screen string

const (
	ScreenSignIn          Screen = "sign-in"
	ScreenSignUp          Screen = "sign-up"
	ScreenSocialSignIn    Screen = "social-sign-in"
	ScreenForgotPassword  Screen = "forgot-password"
	ScreenResetPassword   Screen = "reset-password"
	ScreenSignOut         Screen = "sign-out"
	ScreenTwoFactor       Screen = "two-factor"
	ScreenTwoFactorBackup Screen = "two-factor-backup"
	ScreenTwoFactorSetup  Screen = "two-factor-setup"
)

// SocialSignInProviders are the providers offered on the sign-in screen.
var SocialSignInProviders = []string{"github", "google"}

// Submission identifies who is submitting: the browser (for superseding) and
// the credentials forwarded to the auth service.
type Submission struct {
	BrowserID string
	Creds     client.Credentials
}

// Outcome tells the HTTP layer how to answer a settled submit.
type Outcome struct {
	Form     *FormState
	Status   int
	Redirect string
	// External is set when Redirect leaves the portal (OAuth providers).
	External bool
	Toast    string
	// Cookies set by the auth service, to relay to the browser.
	Cookies []*http.Cookie
	// SessionChanged asks the HTTP layer to drop any cached session view.
	SessionChanged bool
	Err            error
}

// Redirects are the in-portal targets flows send the browser to.
type Redirects struct {
	Home      string
	SignIn    string
	Dashboard string
	TwoFactor string
	Reset     string
}

func defaultRedirects() Redirects {
	return Redirects{
		Home:      "/",
		SignIn:    "/signin",
		Dashboard: "/dashboard",
		TwoFactor: "/2fa",
		Reset:     "/reset-password",
	}
}

// Flows runs the submit side of every auth screen: validate, call the auth
// service, and turn the result into an Outcome.
type Flows struct {
	client    AuthClient
	tracker   *SubmissionTracker
	publicURL string
	redirects Redirects
	logger    Logger
	provider  LoggerProvider
	activity  ActivitySink
	debug     bool
	now       func() time.Time
}

// FlowsOption customizes Flows.
type FlowsOption func(*Flows)

func WithFlowsLogger(logger Logger) FlowsOption {
	return func(f *Flows) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFlowsLoggerProvider names the flows logger through provider. An explicit
// WithFlowsLogger wins.
func WithFlowsLoggerProvider(provider LoggerProvider) FlowsOption {
	return func(f *Flows) {
		f.provider = provider
	}
}

func WithFlowsActivitySink(sink ActivitySink) FlowsOption {
	return func(f *Flows) {
		f.activity = normalizeActivitySink(sink)
	}
}

func WithFlowsTracker(tracker *SubmissionTracker) FlowsOption {
	return func(f *Flows) {
		if tracker != nil {
			f.tracker = tracker
		}
	}
}

// WithPublicURL sets the portal origin used to build callback URLs.
func WithPublicURL(u string) FlowsOption {
	return func(f *Flows) {
		f.publicURL = strings.TrimRight(u, "/")
	}
}

func WithRedirects(r Redirects) FlowsOption {
	return func(f *Flows) {
		def := defaultRedirects()
		if r.Home == "" {
			r.Home = def.Home
		}
		if r.SignIn == "" {
			r.SignIn = def.SignIn
		}
		if r.Dashboard == "" {
			r.Dashboard = def.Dashboard
		}
		if r.TwoFactor == "" {
			r.TwoFactor = def.TwoFactor
		}
		if r.Reset == "" {
			r.Reset = def.Reset
		}
		f.redirects = r
	}
}

// WithFlowsDebug logs redacted payloads.
func WithFlowsDebug(debug bool) FlowsOption {
	return func(f *Flows) {
		f.debug = debug
	}
}

func WithFlowsClock(now func() time.Time) FlowsOption {
	return func(f *Flows) {
		if now != nil {
			f.now = now
		}
	}
}

func NewFlows(c AuthClient, opts ...FlowsOption) *Flows {
	f := &Flows{
		client:    c,
		tracker:   NewSubmissionTracker(),
		redirects: defaultRedirects(),
		activity:  noopActivitySink{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.logger = resolveLogger("flows", f.logger, f.provider)
	return f
}

func (f *Flows) Tracker() *SubmissionTracker {
	return f.tracker
}

func (f *Flows) Redirects() Redirects {
	return f.redirects
}

// SignIn authenticates with email and password. When the account has two
// factor enabled the browser is sent to the code challenge instead.
func (f *Flows) SignIn(ctx context.Context, sub Submission, payload SignInPayload, next string) Outcome {
	payload = payload.Normalize()
	form := NewFormState(map[string]any{
		"email":       payload.Email,
		"remember_me": payload.RememberMe,
	})

	if out, ok := f.validate(form, payload); !ok {
		return out
	}
	f.debugPayload("sign in", payload.Redacted())

	result := run(ctx, f, sub, ScreenSignIn, form, func(ctx context.Context) (*client.Response[client.SignInResult], error) {
		return f.client.SignInEmail(ctx, sub.Creds, client.SignInEmailRequest{
			Email:       payload.Email,
			Password:    payload.Password,
			CallbackURL: f.absolute(f.redirects.Dashboard),
			RememberMe:  payload.RememberMe,
		})
	})

	var out Outcome
	result.Match(
		func() { out = pendingOutcome(form) },
		func(resp *client.Response[client.SignInResult]) {
			if resp.Data.TwoFactorRedirect {
				form.Succeed("")
				out = Outcome{
					Form:           form,
					Status:         http.StatusSeeOther,
					Redirect:       f.redirects.TwoFactor,
					Cookies:        resp.Cookies,
					SessionChanged: true,
				}
				f.record(ctx, ActivityEvent{
					Type:     ActivityEventSignIn,
					Email:    payload.Email,
					Screen:   string(ScreenSignIn),
					Outcome:  OutcomeSuccess,
					Metadata: map[string]any{"two_factor": true},
				})
				return
			}

			form.Succeed("Signed in")
			out = Outcome{
				Form:           form,
				Status:         http.StatusSeeOther,
				Redirect:       f.localRedirect(next, f.redirects.Dashboard),
				Toast:          "Signed in. Redirecting to your dashboard.",
				Cookies:        resp.Cookies,
				SessionChanged: true,
			}
			f.record(ctx, ActivityEvent{
				Type:    ActivityEventSignIn,
				UserID:  userID(resp.Data.User),
				Email:   payload.Email,
				Screen:  string(ScreenSignIn),
				Outcome: OutcomeSuccess,
			})
		},
		func(err error) {
			out = f.failure(ctx, form, ScreenSignIn, ActivityEventSignIn, payload.Email, err, MessageSignInFailed)
		},
	)
	return out
}

// SignUp registers an account and signs it in.
func (f *Flows) SignUp(ctx context.Context, sub Submission, payload SignUpPayload) Outcome {
	payload = payload.Normalize()
	form := NewFormState(map[string]any{
		"name":  payload.Name,
		"email": payload.Email,
	})

	if out, ok := f.validate(form, payload); !ok {
		return out
	}
	f.debugPayload("sign up", payload.Redacted())

	result := run(ctx, f, sub, ScreenSignUp, form, func(ctx context.Context) (*client.Response[client.SignUpResult], error) {
		return f.client.SignUpEmail(ctx, sub.Creds, client.SignUpEmailRequest{
			Name:        payload.Name,
			Email:       payload.Email,
			Password:    payload.Password,
			CallbackURL: f.absolute(f.redirects.Dashboard),
		})
	})

	var out Outcome
	result.Match(
		func() { out = pendingOutcome(form) },
		func(resp *client.Response[client.SignUpResult]) {
			form.Succeed("Account created")
			out = Outcome{
				Form:           form,
				Status:         http.StatusSeeOther,
				Redirect:       f.redirects.Dashboard,
				Toast:          "Account created. Redirecting to your dashboard.",
				Cookies:        resp.Cookies,
				SessionChanged: true,
			}
			f.record(ctx, ActivityEvent{
				Type:    ActivityEventSignUp,
				UserID:  userID(resp.Data.User),
				Email:   payload.Email,
				Screen:  string(ScreenSignUp),
				Outcome: OutcomeSuccess,
			})
		},
		func(err error) {
			out = f.failure(ctx, form, ScreenSignUp, ActivityEventSignUp, payload.Email, err, MessageSignUpFailed)
		},
	)
	return out
}

// SocialSignIn asks the auth service for the provider authorization URL.
func (f *Flows) SocialSignIn(ctx context.Context, sub Submission, payload SocialSignInPayload) Outcome {
	form := NewFormState(map[string]any{"provider": payload.Provider})

	if err := payload.Validate(); err != nil {
		form.Fail(ErrUnsupportedProvider.Message)
		return Outcome{Form: form, Status: http.StatusBadRequest, Err: ErrUnsupportedProvider}
	}

	result := run(ctx, f, sub, ScreenSocialSignIn, form, func(ctx context.Context) (*client.Response[client.SocialSignInResult], error) {
		return f.client.SignInSocial(ctx, sub.Creds, client.SocialSignInRequest{
			Provider:    payload.Provider,
			CallbackURL: f.absolute(f.redirects.Dashboard),
		})
	})

	var out Outcome
	result.Match(
		func() { out = pendingOutcome(form) },
		func(resp *client.Response[client.SocialSignInResult]) {
			if resp.Data.URL == "" {
				out = f.failure(ctx, form, ScreenSocialSignIn, ActivityEventSocialSignIn, "", nil, MessageSocialFailed)
				return
			}
			form.Succeed("")
			out = Outcome{
				Form:     form,
				Status:   http.StatusSeeOther,
				Redirect: resp.Data.URL,
				External: true,
				Cookies:  resp.Cookies,
			}
			f.record(ctx, ActivityEvent{
				Type:     ActivityEventSocialSignIn,
				Screen:   string(ScreenSocialSignIn),
				Outcome:  OutcomeSuccess,
				Metadata: map[string]any{"provider": payload.Provider},
			})
		},
		func(err error) {
			out = f.failure(ctx, form, ScreenSocialSignIn, ActivityEventSocialSignIn, "", err, MessageSocialFailed)
		},
	)
	return out
}

// ForgotPassword requests a reset link. On success the screen switches to
// its submitted state showing the address the link went to.
func (f *Flows) ForgotPassword(ctx context.Context, sub Submission, payload ForgotPasswordPayload) Outcome {
	payload = payload.Normalize()
	form := NewFormState(map[string]any{"email": payload.Email})

	if out, ok := f.validate(form, payload); !ok {
		return out
	}

	result := run(ctx, f, sub, ScreenForgotPassword, form, func(ctx context.Context) (*client.Response[client.StatusResult], error) {
		return f.client.ForgetPassword(ctx, sub.Creds, client.ForgetPasswordRequest{
			Email:      payload.Email,
			RedirectTo: f.absolute(f.redirects.Reset),
		})
	})

	var out Outcome
	result.Match(
		func() { out = pendingOutcome(form) },
		func(*client.Response[client.StatusResult]) {
			form.Succeed("Check your email for the password reset link.")
			out = Outcome{
				Form:   form,
				Status: http.StatusOK,
				Toast:  "Reset link sent!",
			}
			f.record(ctx, ActivityEvent{
				Type:    ActivityEventPasswordForgot,
				Email:   payload.Email,
				Screen:  string(ScreenForgotPassword),
				Outcome: OutcomeSuccess,
			})
		},
		func(err error) {
			out = f.failure(ctx, form, ScreenForgotPassword, ActivityEventPasswordForgot, payload.Email, err, MessageResetLinkFailed)
		},
	)
	return out
}

// ResetPassword sets a new password with the token from the reset link. A
// missing token fails before anything is sent.
func (f *Flows) ResetPassword(ctx context.Context, sub Submission, payload ResetPasswordPayload) Outcome {
	payload = payload.Normalize()
	form := NewFormState(map[string]any{"token": payload.Token})

	if payload.Token == "" {
		form.Fail(MessageResetTokenMissing)
		return Outcome{Form: form, Status: http.StatusBadRequest, Err: ErrResetTokenNotFound}
	}

	if out, ok := f.validate(form, payload); !ok {
		return out
	}
	f.debugPayload("reset password", payload.Redacted())

	result := run(ctx, f, sub, ScreenResetPassword, form, func(ctx context.Context) (*client.Response[client.StatusResult], error) {
		return f.client.ResetPassword(ctx, sub.Creds, client.ResetPasswordRequest{
			NewPassword: payload.Password,
			Token:       payload.Token,
		})
	})

	var out Outcome
	result.Match(
		func() { out = pendingOutcome(form) },
		func(*client.Response[client.StatusResult]) {
			form.Succeed("Your password has been updated.")
			out = Outcome{
				Form:     form,
				Status:   http.StatusSeeOther,
				Redirect: f.redirects.SignIn,
				Toast:    "Password reset successful! Your password has been updated.",
			}
			f.record(ctx, ActivityEvent{
				Type:    ActivityEventPasswordReset,
				Screen:  string(ScreenResetPassword),
				Outcome: OutcomeSuccess,
			})
		},
		func(err error) {
			out = f.failure(ctx, form, ScreenResetPassword, ActivityEventPasswordReset, "", err, MessageUnknownError)
		},
	)
	return out
}

// SignOut ends the session and returns to the landing page. The browser is
// sent home even if the auth service call failed.
func (f *Flows) SignOut(ctx context.Context, sub Submission) Outcome {
	form := NewFormState(nil)

	result := run(ctx, f, sub, ScreenSignOut, form, func(ctx context.Context) (*client.Response[client.SignOutResult], error) {
		return f.client.SignOut(ctx, sub.Creds)
	})

	out := Outcome{
		Form:           form,
		Status:         http.StatusSeeOther,
		Redirect:       f.redirects.Home,
		SessionChanged: true,
	}

	result.Match(
		func() {},
		func(resp *client.Response[client.SignOutResult]) {
			form.Succeed("Signed out")
			out.Cookies = resp.Cookies
			f.record(ctx, ActivityEvent{
				Type:    ActivityEventSignOut,
				Screen:  string(ScreenSignOut),
				Outcome: OutcomeSuccess,
			})
		},
		func(err error) {
			f.logger.Error("sign out failed", "error", err)
			if IsSuperseded(err) {
				return
			}
			form.Fail(UserMessage(err, MessageUnknownError))
			out.Err = err
		},
	)
	return out
}

type validatable interface {
	Validate() error
}

func (f *Flows) validate(form *FormState, payload validatable) (Outcome, bool) {
	if err := payload.Validate(); err != nil {
		form.Invalid(FormatValidationErrorToMap(err))
		return Outcome{Form: form, Status: http.StatusUnprocessableEntity, Err: err}, false
	}
	return Outcome{}, true
}

// run executes one submit attempt. The result of an attempt that was
// superseded while in flight is replaced by ErrSuperseded, and a failed attempt
// whose request context ended stays pending.
func run[T any](ctx context.Context, f *Flows, sub Submission, screen Screen, form *FormState, call func(context.Context) (*client.Response[T], error)) Result[*client.Response[T]] {
	ticket := f.tracker.Begin(sub.BrowserID, string(screen))
	form.Begin(ticket)

	resp, err := call(ctx)
	result := Settle(resp, err)
	if result.IsOK() && resp == nil {
		result = Err[*client.Response[T]](client.ErrEmptyResponse)
	}

	if !f.tracker.IsCurrent(ticket) {
		f.logger.Info("discarding superseded submit", "screen", screen, "generation", ticket.Generation)
		return Err[*client.Response[T]](ErrSuperseded)
	}
	if !result.IsOK() && ctx.Err() != nil {
		// The browser went away before the auth service answered. Nothing
		// settled, so nothing is reported or recorded.
		f.logger.Debug("submit abandoned", "screen", screen, "error", ctx.Err())
		return Pending[*client.Response[T]]()
	}
	return result
}

func (f *Flows) failure(ctx context.Context, form *FormState, screen Screen, eventType ActivityEventType, email string, err error, fallback string) Outcome {
	if IsSuperseded(err) {
		form.Reset()
		f.record(ctx, ActivityEvent{
			Type:    eventType,
			Email:   email,
			Screen:  string(screen),
			Outcome: OutcomeSuperseded,
		})
		return Outcome{Form: form, Status: http.StatusConflict, Err: err}
	}

	message := fallback
	if err != nil {
		message = UserMessage(err, fallback)
		f.logger.Error("submit failed", "screen", screen, "error", err)
	}
	form.Fail(message)

	f.record(ctx, ActivityEvent{
		Type:    eventType,
		Email:   email,
		Screen:  string(screen),
		Outcome: OutcomeFailure,
		Message: message,
	})

	status := http.StatusBadGateway
	if err != nil {
		status = StatusFor(err)
	}
	return Outcome{Form: form, Status: status, Err: err}
}

func pendingOutcome(form *FormState) Outcome {
	return Outcome{Form: form, Status: http.StatusAccepted}
}

func (f *Flows) record(ctx context.Context, event ActivityEvent) {
	recordActivity(ctx, f.activity, f.logger, f.now, event)
}

func (f *Flows) debugPayload(label string, payload any) {
	if !f.debug {
		return
	}
	f.logger.Debug(label + " payload:\n" + print.MaybePrettyJSON(payload))
}

func (f *Flows) absolute(path string) string {
	if f.publicURL == "" {
		return path
	}
	return f.publicURL + path
}

// localRedirect only honors same-origin paths so a remembered route cannot
// send the browser off site.
func (f *Flows) localRedirect(target, fallback string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

func userID(u *client.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
