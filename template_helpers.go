package portal

import (
	"maps"

	"github.com/goliatone/go-router"

	"github.com/goliatone/go-auth-portal/middleware/csrf"
)

var TemplateUserKey = currentUserLocalKey

// TemplateHelpers returns the functions and constants views rely on. Register
// them as globals on the view engine.
//
// In templates:
//
//	{% if is_authenticated(current_user) %}
//	{% for req in password_requirements(record.password) %}
//	{{ csrf_field|safe }}
func TemplateHelpers() map[string]any {
	helpers := map[string]any{
		"is_authenticated":      isAuthenticated,
		"password_requirements": PasswordRequirements,
		"can_submit_code":       canSubmitCode,
		"qr_code":               qrCodeHelper,
		"social_providers":      SocialSignInProviders,
		"two_factor_states": map[string]string{
			"disabled":            string(TwoFactorDisabled),
			"awaiting_password":   string(TwoFactorAwaitingPassword),
			"enrolling":           string(TwoFactorEnrolling),
			"awaiting_code":       string(TwoFactorAwaitingCode),
			"enabled":             string(TwoFactorEnabled),
			"awaiting_login_code": string(TwoFactorAwaitingLoginCode),
			"verified":            string(TwoFactorVerified),
		},
	}

	maps.Copy(helpers, csrf.TemplateHelpers("", csrf.DefaultFormFieldName, csrf.DefaultHeaderName))

	return helpers
}

// TemplateHelpersWithRouter adds the request's user and CSRF token.
func TemplateHelpersWithRouter(ctx router.Context) map[string]any {
	helpers := TemplateHelpers()

	if user, ok := GetTemplateUser(ctx); ok {
		helpers[TemplateUserKey] = user
	}

	maps.Copy(helpers, csrf.TemplateHelpersFromContext(ctx, csrf.DefaultContextKey))

	return helpers
}

// GetTemplateUser returns the signed in user stored by SessionMiddleware.
func GetTemplateUser(ctx router.Context) (SessionUser, bool) {
	user, ok := ctx.Locals(TemplateUserKey).(SessionUser)
	return user, ok
}

func isAuthenticated(user any) bool {
	switch u := user.(type) {
	case SessionUser:
		return u.ID != ""
	case *SessionUser:
		return u != nil && u.ID != ""
	case SessionView:
		return u.Present()
	case *SessionContext:
		return u != nil && u.View().Present()
	default:
		return false
	}
}

// canSubmitCode gates verify buttons. Templates may pass a missing value.
func canSubmitCode(code any) bool {
	s, _ := code.(string)
	return CanSubmitCode(s)
}

func qrCodeHelper(uri string) string {
	data, err := TOTPQRCode(uri, defaultQRSize)
	if err != nil {
		return ""
	}
	return data
}
