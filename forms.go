package portal

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
)

const (
	MinSignInPasswordLength = 6
	MinPasswordLength       = 8
	MinNameLength           = 2
	TwoFactorCodeLength     = 6
)

var (
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`[0-9]`)
	codeRe  = regexp.MustCompile(`^[0-9]{6}$`)
)

const (
	msgRequired       = "This field is required."
	msgEmail          = "Please enter a valid email address."
	msgName           = "Name must be at least 2 characters."
	msgSignInPassword = "Password must be at least 6 characters."
	msgPasswordLength = "Password must be at least 8 characters."
	msgPasswordUpper  = "Password must contain at least one uppercase letter."
	msgPasswordLower  = "Password must contain at least one lowercase letter."
	msgPasswordDigit  = "Password must contain at least one number."
	msgPasswordsMatch = "Passwords don't match"
	msgPasswordNeeded = "Enter your current password."
	msgCodeFormat     = "Enter the 6 digit code from your authenticator app."
)

// SignInPayload is the sign-in form.
type SignInPayload struct {
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

func (r SignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error(msgEmail),
			is.EmailFormat.Error(msgEmail),
		),
		validation.Field(&r.Password,
			validation.Required.Error(msgSignInPassword),
			validation.RuneLength(MinSignInPasswordLength, 0).Error(msgSignInPassword),
		),
	)
}

// Redacted returns a copy safe to log.
func (r SignInPayload) Redacted() SignInPayload {
	r.Password = redact(r.Password)
	return r
}

// Normalize trims the fields users tend to paste with whitespace. Passwords
// are sent as typed.
func (r SignInPayload) Normalize() SignInPayload {
	r.Email = strings.TrimSpace(r.Email)
	return r
}

// SignUpPayload is the registration form.
type SignUpPayload struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (r SignUpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error(msgName),
			validation.RuneLength(MinNameLength, 0).Error(msgName),
		),
		validation.Field(&r.Email,
			validation.Required.Error(msgEmail),
			is.EmailFormat.Error(msgEmail),
		),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.ConfirmPassword,
			validation.Required.Error(msgPasswordsMatch),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (r SignUpPayload) Redacted() SignUpPayload {
	r.Password = redact(r.Password)
	r.ConfirmPassword = redact(r.ConfirmPassword)
	return r
}

func (r SignUpPayload) Normalize() SignUpPayload {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

type ForgotPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

func (r ForgotPasswordPayload) Normalize() ForgotPasswordPayload {
	r.Email = strings.TrimSpace(r.Email)
	return r
}

func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error(msgEmail),
			is.EmailFormat.Error(msgEmail),
		),
	)
}

// ResetPasswordPayload is the new password form. Token is not validated here:
// a missing token is a precondition failure reported as a banner, not as a
// field error.
type ResetPasswordPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	Token           string `form:"token" json:"token"`
}

func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.ConfirmPassword,
			validation.Required.Error(msgPasswordsMatch),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (r ResetPasswordPayload) Redacted() ResetPasswordPayload {
	r.Password = redact(r.Password)
	r.ConfirmPassword = redact(r.ConfirmPassword)
	r.Token = redact(r.Token)
	return r
}

func (r ResetPasswordPayload) Normalize() ResetPasswordPayload {
	r.Token = strings.TrimSpace(r.Token)
	return r
}

type SocialSignInPayload struct {
	Provider string `form:"provider" json:"provider"`
}

func (r SocialSignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Provider,
			validation.Required.Error(msgRequired),
			validation.In(toAny(SocialSignInProviders)...).Error("Unsupported provider."),
		),
	)
}

// TwoFactorPasswordPayload confirms the current password before enabling or
// disabling two factor.
type TwoFactorPasswordPayload struct {
	Password string `form:"password" json:"password"`
}

func (r TwoFactorPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required.Error(msgPasswordNeeded)),
	)
}

// TwoFactorCodePayload is a TOTP or backup code submission.
type TwoFactorCodePayload struct {
	Code        string `form:"code" json:"code"`
	TrustDevice bool   `form:"trust_device" json:"trust_device"`
}

func (r TwoFactorCodePayload) Normalize() TwoFactorCodePayload {
	r.Code = normalizeCode(r.Code)
	return r
}

func (r TwoFactorCodePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code,
			validation.Required.Error(msgCodeFormat),
			validation.Match(codeRe).Error(msgCodeFormat),
		),
	)
}

// BackupCodePayload carries a backup code. Backup codes are issued by the
// auth service and do not follow the 6 digit TOTP shape.
type BackupCodePayload struct {
	Code        string `form:"code" json:"code"`
	TrustDevice bool   `form:"trust_device" json:"trust_device"`
}

func (r BackupCodePayload) Normalize() BackupCodePayload {
	r.Code = strings.TrimSpace(r.Code)
	return r
}

func (r BackupCodePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required.Error(msgRequired)),
	)
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(msgPasswordLength),
		validation.RuneLength(MinPasswordLength, 0).Error(msgPasswordLength),
		validation.Match(upperRe).Error(msgPasswordUpper),
		validation.Match(lowerRe).Error(msgPasswordLower),
		validation.Match(digitRe).Error(msgPasswordDigit),
	}
}

// ValidateStringEquals builds a rule that fails when the value differs from str.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(msgPasswordsMatch)
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens validation errors to field -> message
// for the templates. Errors that are not field errors land under "form".
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	richErr := goerrors.FromOzzoValidation(err, "invalid form")
	for field, msg := range richErr.ValidationMap() {
		out[field] = msg
	}

	if len(out) == 0 {
		out["form"] = err.Error()
	}
	return out
}

// PasswordRequirement is one line of the live password checklist.
type PasswordRequirement struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Met   bool   `json:"met"`
}

// PasswordRequirements evaluates the complexity checklist shown next to
// password inputs.
func PasswordRequirements(password string) []PasswordRequirement {
	return []PasswordRequirement{
		{ID: "length", Label: "At least 8 characters", Met: len([]rune(password)) >= MinPasswordLength},
		{ID: "uppercase", Label: "At least one uppercase letter", Met: upperRe.MatchString(password)},
		{ID: "lowercase", Label: "At least one lowercase letter", Met: lowerRe.MatchString(password)},
		{ID: "number", Label: "At least one number", Met: digitRe.MatchString(password)},
	}
}

// CanSubmitCode reports whether a verification code is complete. It accepts
// exactly what TwoFactorCodePayload accepts after Normalize.
func CanSubmitCode(code string) bool {
	return codeRe.MatchString(normalizeCode(code))
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
