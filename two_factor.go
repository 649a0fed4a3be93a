package portal

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-auth-portal/client"
)

// SocialProviders are identity providers whose accounts have no portal
// password, so two factor cannot be managed for them.
var SocialProviders = []string{"github", "google", "facebook", "twitter"}

// TwoFactorEnrollment is the per user record of the sub-flow.
type TwoFactorEnrollment struct {
	UserID      string          `json:"user_id"`
	State       TwoFactorState  `json:"state"`
	Intent      TwoFactorIntent `json:"intent,omitempty"`
	TOTPURI     string          `json:"totp_uri,omitempty"`
	BackupCodes []string        `json:"backup_codes,omitempty"`
	Error       string          `json:"error,omitempty"`
	// Revision grows on every save; a response computed from an older
	// revision is stale.
	Revision  uint64    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTwoFactorEnrollment starts from the stable state the auth service reports.
func NewTwoFactorEnrollment(userID string, enabled bool) *TwoFactorEnrollment {
	state := TwoFactorDisabled
	if enabled {
		state = TwoFactorEnabled
	}
	return &TwoFactorEnrollment{UserID: userID, State: state}
}

// ConsumeBackupCode removes code from the displayed list. It is display
// bookkeeping only; the auth service tracks real usage.
func (e *TwoFactorEnrollment) ConsumeBackupCode(code string) error {
	code = strings.TrimSpace(code)
	idx := slices.Index(e.BackupCodes, code)
	if idx < 0 {
		return ErrBackupCodeNotFound
	}
	e.BackupCodes = slices.Delete(e.BackupCodes, idx, idx+1)
	return nil
}

// Stable reports whether the record is at rest (enabled or disabled).
func (e *TwoFactorEnrollment) Stable() bool {
	return e.State == TwoFactorEnabled || e.State == TwoFactorDisabled
}

// CanSubmitCode reports whether the verify control is active.
func (e *TwoFactorEnrollment) CanSubmitCode(code string) bool {
	return (e.State == TwoFactorEnrolling || e.State == TwoFactorAwaitingCode) && CanSubmitCode(code)
}

// TwoFactorChallenge is the login time code entry.
type TwoFactorChallenge struct {
	Code        string `json:"code"`
	TrustDevice bool   `json:"trust_device"`
}

// CanSubmit is true only for exactly six digits.
func (c TwoFactorChallenge) CanSubmit() bool {
	return CanSubmitCode(c.Code)
}

// TwoFactorOutcome is an Outcome that also carries the enrollment to render.
type TwoFactorOutcome struct {
	Outcome
	Enrollment *TwoFactorEnrollment
}

// TwoFactorFlow drives enrollment on the profile screen and the sign in code
// challenge.
type TwoFactorFlow struct {
	flows   *Flows
	store   EnrollmentStore
	machine *TwoFactorMachine
	logger  Logger
}

// TwoFactorOption customizes a TwoFactorFlow.
type TwoFactorOption func(*TwoFactorFlow)

func WithTwoFactorLogger(logger Logger) TwoFactorOption {
	return func(t *TwoFactorFlow) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func NewTwoFactorFlow(flows *Flows, store EnrollmentStore, opts ...TwoFactorOption) *TwoFactorFlow {
	if store == nil {
		store = NewMemoryEnrollmentStore(DefaultEnrollmentTTL)
	}
	t := &TwoFactorFlow{
		flows:   flows,
		store:   store,
		machine: NewTwoFactorMachine(),
		logger:  flows.logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	t.machine.AfterTransition(func(tc TransitionContext) {
		t.logger.Debug("two factor transition", "user_id", tc.UserID, "from", tc.From, "to", tc.To)
	})
	return t
}

// Load returns the user's record, falling back to the stable state reported
// by the session when nothing is stored.
func (t *TwoFactorFlow) Load(ctx context.Context, user SessionUser) (*TwoFactorEnrollment, error) {
	e, err := t.store.Get(ctx, user.ID)
	if err == nil {
		return e, nil
	}
	if !HasTextCode(err, TextCodeEnrollmentNotFound) {
		return nil, err
	}
	return NewTwoFactorEnrollment(user.ID, user.TwoFactorEnabled), nil
}

// Toggle asks for the password before enabling or disabling.
func (t *TwoFactorFlow) Toggle(ctx context.Context, user SessionUser) (*TwoFactorEnrollment, error) {
	e, err := t.Load(ctx, user)
	if err != nil {
		return nil, err
	}

	intent := IntentEnable
	if e.State == TwoFactorEnabled {
		intent = IntentDisable
	}

	if err := t.machine.Transition(e, TwoFactorAwaitingPassword); err != nil {
		return e, err
	}
	e.Intent = intent
	e.Error = ""

	return e, t.save(ctx, e)
}

// Cancel abandons a pending confirmation or an unfinished enrollment.
func (t *TwoFactorFlow) Cancel(ctx context.Context, user SessionUser) (*TwoFactorEnrollment, error) {
	e, err := t.Load(ctx, user)
	if err != nil {
		return nil, err
	}

	target := TwoFactorDisabled
	if e.State == TwoFactorAwaitingPassword && e.Intent == IntentDisable {
		target = TwoFactorEnabled
	}

	if err := t.machine.Transition(e, target); err != nil {
		return e, err
	}
	e.Intent = ""
	e.TOTPURI = ""
	e.BackupCodes = nil
	e.Error = ""

	return e, t.save(ctx, e)
}

// Enable confirms the password with the auth service, which answers with the
// TOTP seed URI and the backup codes.
func (t *TwoFactorFlow) Enable(ctx context.Context, sub Submission, user SessionUser, payload TwoFactorPasswordPayload) TwoFactorOutcome {
	return t.confirmPassword(ctx, sub, user, payload, IntentEnable)
}

// Disable confirms the password and turns two factor off.
func (t *TwoFactorFlow) Disable(ctx context.Context, sub Submission, user SessionUser, payload TwoFactorPasswordPayload) TwoFactorOutcome {
	return t.confirmPassword(ctx, sub, user, payload, IntentDisable)
}

func (t *TwoFactorFlow) confirmPassword(ctx context.Context, sub Submission, user SessionUser, payload TwoFactorPasswordPayload, intent TwoFactorIntent) TwoFactorOutcome {
	form := NewFormState(nil)

	e, err := t.Load(ctx, user)
	if err != nil {
		return t.internal(form, e, err)
	}

	if e.State != TwoFactorAwaitingPassword || e.Intent != intent {
		form.Fail(MessageTwoFactorFailed)
		return TwoFactorOutcome{
			Outcome: Outcome{
				Form:   form,
				Status: http.StatusConflict,
				Err: ErrInvalidTransition.Clone().WithMetadata(map[string]any{
					"from":   e.State,
					"intent": intent,
				}),
			},
			Enrollment: e,
		}
	}

	if err := payload.Validate(); err != nil {
		form.Invalid(FormatValidationErrorToMap(err))
		return TwoFactorOutcome{
			Outcome:    Outcome{Form: form, Status: http.StatusUnprocessableEntity, Err: err},
			Enrollment: e,
		}
	}

	if intent == IntentEnable {
		return t.enable(ctx, sub, e, form, payload)
	}
	return t.disable(ctx, sub, e, form, payload)
}

func (t *TwoFactorFlow) enable(ctx context.Context, sub Submission, e *TwoFactorEnrollment, form *FormState, payload TwoFactorPasswordPayload) TwoFactorOutcome {
	snapshot := *e
	result := run(ctx, t.flows, sub, ScreenTwoFactorSetup, form, func(ctx context.Context) (*client.Response[client.EnableTwoFactorResult], error) {
		return t.flows.client.EnableTwoFactor(ctx, sub.Creds, client.PasswordRequest{Password: payload.Password})
	})
	result = settleCurrent(ctx, t, snapshot, result)

	var out TwoFactorOutcome
	result.Match(
		func() { out = TwoFactorOutcome{Outcome: pendingOutcome(form), Enrollment: e} },
		func(resp *client.Response[client.EnableTwoFactorResult]) {
			if resp.Data.TOTPURI == "" || len(resp.Data.BackupCodes) == 0 {
				out = t.failed(ctx, form, e, client.ErrEmptyResponse, ActivityEventTwoFactorEnabled)
				return
			}
			if err := t.machine.Transition(e, TwoFactorEnrolling); err != nil {
				out = t.internal(form, e, err)
				return
			}
			e.TOTPURI = resp.Data.TOTPURI
			e.BackupCodes = slices.Clone(resp.Data.BackupCodes)
			e.Error = ""
			if err := t.save(ctx, e); err != nil {
				out = t.internal(form, e, err)
				return
			}

			form.Succeed("Scan the QR code and store your backup codes.")
			out = TwoFactorOutcome{
				Outcome: Outcome{
					Form:    form,
					Status:  http.StatusOK,
					Toast:   "Two factor enrollment started",
					Cookies: resp.Cookies,
				},
				Enrollment: e,
			}
		},
		func(err error) {
			out = t.failed(ctx, form, e, err, ActivityEventTwoFactorEnabled)
		},
	)
	return out
}

func (t *TwoFactorFlow) disable(ctx context.Context, sub Submission, e *TwoFactorEnrollment, form *FormState, payload TwoFactorPasswordPayload) TwoFactorOutcome {
	result := run(ctx, t.flows, sub, ScreenTwoFactorSetup, form, func(ctx context.Context) (*client.Response[client.StatusResult], error) {
		return t.flows.client.DisableTwoFactor(ctx, sub.Creds, client.PasswordRequest{Password: payload.Password})
	})

	var out TwoFactorOutcome
	result.Match(
		func() { out = TwoFactorOutcome{Outcome: pendingOutcome(form), Enrollment: e} },
		func(resp *client.Response[client.StatusResult]) {
			if err := t.machine.Transition(e, TwoFactorDisabled); err != nil {
				out = t.internal(form, e, err)
				return
			}
			e.Intent = ""
			e.TOTPURI = ""
			e.BackupCodes = nil
			e.Error = ""
			if err := t.store.Delete(ctx, e.UserID); err != nil {
				t.logger.Warn("enrollment delete failed", "user_id", e.UserID, "error", err)
			}

			form.Succeed("Two factor authentication disabled.")
			out = TwoFactorOutcome{
				Outcome: Outcome{
					Form:           form,
					Status:         http.StatusOK,
					Toast:          "Two factor authentication disabled.",
					Cookies:        resp.Cookies,
					SessionChanged: true,
				},
				Enrollment: e,
			}
			t.flows.record(ctx, ActivityEvent{
				Type:    ActivityEventTwoFactorDisabled,
				UserID:  e.UserID,
				Screen:  string(ScreenTwoFactorSetup),
				Outcome: OutcomeSuccess,
			})
		},
		func(err error) {
			out = t.failed(ctx, form, e, err, ActivityEventTwoFactorDisabled)
		},
	)
	return out
}

// Verify checks the first code from the authenticator app. A rejected code
// leaves the record awaiting a code with the remote message attached.
func (t *TwoFactorFlow) Verify(ctx context.Context, sub Submission, user SessionUser, payload TwoFactorCodePayload) TwoFactorOutcome {
	payload = payload.Normalize()
	form := NewFormState(nil)

	e, err := t.Load(ctx, user)
	if err != nil {
		return t.internal(form, e, err)
	}
	snapshot := *e

	if err := t.machine.Transition(e, TwoFactorAwaitingCode); err != nil {
		form.Fail(MessageTwoFactorFailed)
		return TwoFactorOutcome{Outcome: Outcome{Form: form, Status: http.StatusConflict, Err: err}, Enrollment: e}
	}

	if err := payload.Validate(); err != nil {
		form.Invalid(FormatValidationErrorToMap(err))
		if saveErr := t.save(ctx, e); saveErr != nil {
			return t.internal(form, e, saveErr)
		}
		return TwoFactorOutcome{
			Outcome:    Outcome{Form: form, Status: http.StatusUnprocessableEntity, Err: err},
			Enrollment: e,
		}
	}

	result := run(ctx, t.flows, sub, ScreenTwoFactorSetup, form, func(ctx context.Context) (*client.Response[client.VerifyResult], error) {
		return t.flows.client.VerifyTOTP(ctx, sub.Creds, client.VerifyCodeRequest{
			Code:        payload.Code,
			TrustDevice: payload.TrustDevice,
		})
	})
	settled := settleCurrent(ctx, t, snapshot, result)
	if result.IsOK() && !settled.IsOK() {
		// The code was accepted remotely but the record moved on. Drop it so
		// the next load follows what the auth service reports.
		if err := t.store.Delete(ctx, e.UserID); err != nil {
			t.logger.Warn("enrollment delete failed", "user_id", e.UserID, "error", err)
		}
	}
	result = settled

	var out TwoFactorOutcome
	result.Match(
		func() { out = TwoFactorOutcome{Outcome: pendingOutcome(form), Enrollment: e} },
		func(resp *client.Response[client.VerifyResult]) {
			if err := t.machine.Transition(e, TwoFactorEnabled); err != nil {
				out = t.internal(form, e, err)
				return
			}
			e.Intent = ""
			e.TOTPURI = ""
			e.Error = ""
			if err := t.save(ctx, e); err != nil {
				out = t.internal(form, e, err)
				return
			}

			form.Succeed("Two factor authentication enabled.")
			out = TwoFactorOutcome{
				Outcome: Outcome{
					Form:           form,
					Status:         http.StatusOK,
					Toast:          "Two factor authentication enabled.",
					Cookies:        resp.Cookies,
					SessionChanged: true,
				},
				Enrollment: e,
			}
			t.flows.record(ctx, ActivityEvent{
				Type:    ActivityEventTwoFactorEnabled,
				UserID:  e.UserID,
				Screen:  string(ScreenTwoFactorSetup),
				Outcome: OutcomeSuccess,
			})
		},
		func(err error) {
			out = t.failed(ctx, form, e, err, ActivityEventTwoFactorEnabled)
		},
	)
	return out
}

// MarkBackupCodeUsed drops one code from the displayed list.
func (t *TwoFactorFlow) MarkBackupCodeUsed(ctx context.Context, user SessionUser, code string) (*TwoFactorEnrollment, error) {
	e, err := t.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := e.ConsumeBackupCode(code); err != nil {
		return e, err
	}
	return e, t.save(ctx, e)
}

// VerifyLogin answers the sign in challenge with a TOTP code.
func (t *TwoFactorFlow) VerifyLogin(ctx context.Context, sub Submission, payload TwoFactorCodePayload) Outcome {
	payload = payload.Normalize()
	challenge := TwoFactorChallenge{Code: payload.Code, TrustDevice: payload.TrustDevice}
	form := NewFormState(map[string]any{"trust_device": challenge.TrustDevice})

	if out, ok := t.flows.validate(form, payload); !ok {
		return out
	}

	result := run(ctx, t.flows, sub, ScreenTwoFactor, form, func(ctx context.Context) (*client.Response[client.VerifyResult], error) {
		return t.flows.client.VerifyTOTP(ctx, sub.Creds, client.VerifyCodeRequest{
			Code:        challenge.Code,
			TrustDevice: challenge.TrustDevice,
		})
	})
	return t.settleLogin(ctx, form, result, ScreenTwoFactor)
}

// VerifyBackupCode answers the sign in challenge with a backup code.
func (t *TwoFactorFlow) VerifyBackupCode(ctx context.Context, sub Submission, payload BackupCodePayload) Outcome {
	payload = payload.Normalize()
	form := NewFormState(map[string]any{"trust_device": payload.TrustDevice})

	if out, ok := t.flows.validate(form, payload); !ok {
		return out
	}

	result := run(ctx, t.flows, sub, ScreenTwoFactorBackup, form, func(ctx context.Context) (*client.Response[client.VerifyResult], error) {
		return t.flows.client.VerifyBackupCode(ctx, sub.Creds, client.VerifyCodeRequest{
			Code:        payload.Code,
			TrustDevice: payload.TrustDevice,
		})
	})
	return t.settleLogin(ctx, form, result, ScreenTwoFactorBackup)
}

func (t *TwoFactorFlow) settleLogin(ctx context.Context, form *FormState, result Result[*client.Response[client.VerifyResult]], screen Screen) Outcome {
	var out Outcome
	result.Match(
		func() { out = pendingOutcome(form) },
		func(resp *client.Response[client.VerifyResult]) {
			form.Succeed("Verified")
			out = Outcome{
				Form:           form,
				Status:         http.StatusSeeOther,
				Redirect:       t.flows.redirects.Dashboard,
				Toast:          "Signed in. Redirecting to your dashboard.",
				Cookies:        resp.Cookies,
				SessionChanged: true,
			}
			t.flows.record(ctx, ActivityEvent{
				Type:    ActivityEventTwoFactorChallenge,
				UserID:  userID(resp.Data.User),
				Screen:  string(screen),
				Outcome: OutcomeSuccess,
			})
		},
		func(err error) {
			out = t.flows.failure(ctx, form, screen, ActivityEventTwoFactorChallenge, "", err, MessageTwoFactorInvalid)
		},
	)
	return out
}

// TwoFactorAvailability says whether the profile screen shows 2FA controls.
type TwoFactorAvailability struct {
	Available bool
	Accounts  []client.Account
	// Unknown is set when the linked accounts could not be listed.
	Unknown bool
}

// Availability hides two factor for accounts that only sign in through
// social providers.
func (t *TwoFactorFlow) Availability(ctx context.Context, creds client.Credentials) TwoFactorAvailability {
	resp, err := t.flows.client.ListAccounts(ctx, creds)
	if err != nil {
		t.logger.Warn("list accounts failed", "error", err)
		return TwoFactorAvailability{Available: true, Unknown: true}
	}
	return TwoFactorAvailability{
		Available: !SocialOnly(resp.Data),
		Accounts:  resp.Data,
	}
}

// SocialOnly reports whether every linked account is a social provider.
func SocialOnly(accounts []client.Account) bool {
	if len(accounts) == 0 {
		return false
	}
	for _, acc := range accounts {
		if !slices.Contains(SocialProviders, strings.ToLower(acc.ProviderID)) {
			return false
		}
	}
	return true
}

func (t *TwoFactorFlow) failed(ctx context.Context, form *FormState, e *TwoFactorEnrollment, err error, eventType ActivityEventType) TwoFactorOutcome {
	out := t.flows.failure(ctx, form, ScreenTwoFactorSetup, eventType, "", err, MessageTwoFactorFailed)
	if IsSuperseded(err) {
		if current, getErr := t.store.Get(ctx, e.UserID); getErr == nil {
			e = current
		}
		return TwoFactorOutcome{Outcome: out, Enrollment: e}
	}

	e.Error = form.Error
	if saveErr := t.save(ctx, e); saveErr != nil {
		t.logger.Warn("enrollment save failed", "user_id", e.UserID, "error", saveErr)
	}
	return TwoFactorOutcome{Outcome: out, Enrollment: e}
}

// settleCurrent supersedes a settled result when the stored record changed
// while the remote call was in flight, e.g. the user cancelled from another
// request. Enrollment records are per user, so this also covers other tabs.
func settleCurrent[T any](ctx context.Context, t *TwoFactorFlow, snapshot TwoFactorEnrollment, result Result[T]) Result[T] {
	if result.Status == ResultPending || IsSuperseded(result.Err) {
		return result
	}
	if !t.stale(ctx, snapshot) {
		return result
	}
	t.logger.Info("discarding two factor response for a changed enrollment", "user_id", snapshot.UserID, "state", snapshot.State)
	return Err[T](ErrSuperseded)
}

func (t *TwoFactorFlow) stale(ctx context.Context, snapshot TwoFactorEnrollment) bool {
	current, err := t.store.Get(ctx, snapshot.UserID)
	if err != nil {
		if HasTextCode(err, TextCodeEnrollmentNotFound) {
			return snapshot.Revision > 0
		}
		t.logger.Warn("enrollment reload failed", "user_id", snapshot.UserID, "error", err)
		return true
	}
	return current.Revision != snapshot.Revision
}

func (t *TwoFactorFlow) internal(form *FormState, e *TwoFactorEnrollment, err error) TwoFactorOutcome {
	t.logger.Error("two factor flow error", "error", err)
	form.Fail(MessageUnknownError)
	return TwoFactorOutcome{
		Outcome: Outcome{
			Form:   form,
			Status: http.StatusInternalServerError,
			Err:    goerrors.Wrap(err, goerrors.CategoryInternal, "two factor flow"),
		},
		Enrollment: e,
	}
}

func (t *TwoFactorFlow) save(ctx context.Context, e *TwoFactorEnrollment) error {
	e.Revision++
	e.UpdatedAt = t.flows.now()
	return t.store.Save(ctx, e)
}
