package portal

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-auth-portal/client"
)

const (
	TextCodeResetTokenNotFound  = "RESET_TOKEN_NOT_FOUND"
	TextCodeSessionRequired     = "SESSION_REQUIRED"
	TextCodeInvalidTransition   = "INVALID_TWO_FACTOR_TRANSITION"
	TextCodeSuperseded          = "SUBMISSION_SUPERSEDED"
	TextCodeEnrollmentNotFound  = "ENROLLMENT_NOT_FOUND"
	TextCodeBackupCodeNotFound  = "BACKUP_CODE_NOT_FOUND"
	TextCodeUnsupportedProvider = "UNSUPPORTED_SOCIAL_PROVIDER"
	TextCodeInvalidForm         = "INVALID_FORM"
)

// User facing messages.
const (
	MessageNetworkError      = "Could not connect to the server."
	MessageUnknownError      = "An unknown error occurred."
	MessageSignInFailed      = "Incorrect credentials"
	MessageSignUpFailed      = "Could not create your account."
	MessageSocialFailed      = "Could not sign in with the selected provider."
	MessageResetLinkFailed   = "Could not send the reset link."
	MessageTwoFactorInvalid  = "Invalid or expired code. Please try again."
	MessageTwoFactorFailed   = "Please try again."
	MessageResetTokenMissing = "Token not found"
	MessageSuperseded        = "A newer submission replaced this one."
)

// ErrResetTokenNotFound short-circuits a reset attempt that has no token.
var ErrResetTokenNotFound = goerrors.New(MessageResetTokenMissing, goerrors.CategoryBadInput).
	WithTextCode(TextCodeResetTokenNotFound).
	WithCode(goerrors.CodeBadRequest)

// ErrSessionRequired is returned by operations that need a signed in browser.
var ErrSessionRequired = goerrors.New("session required", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidTransition is returned when the two factor flow is asked to move
// to a state the current state does not lead to.
var ErrInvalidTransition = goerrors.New("invalid two factor state transition", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrSuperseded marks a submit whose result arrived after a newer submit of
// the same form started.
var ErrSuperseded = goerrors.New(MessageSuperseded, goerrors.CategoryConflict).
	WithTextCode(TextCodeSuperseded).
	WithCode(goerrors.CodeConflict)

var ErrEnrollmentNotFound = goerrors.New("two factor enrollment not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeEnrollmentNotFound).
	WithCode(goerrors.CodeNotFound)

var ErrBackupCodeNotFound = goerrors.New("backup code not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeBackupCodeNotFound).
	WithCode(goerrors.CodeNotFound)

var ErrUnsupportedProvider = goerrors.New("unsupported social provider", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnsupportedProvider).
	WithCode(goerrors.CodeBadRequest)

// HasTextCode reports whether err is a rich error with the given text code.
func HasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsSuperseded reports whether a submit result was discarded.
func IsSuperseded(err error) bool {
	return HasTextCode(err, TextCodeSuperseded)
}

// UserMessage picks the text shown to the user for a failed submit: the
// network message for transport failures, the remote message when the auth
// service sent one, the message of our own precondition errors, and the
// screen fallback otherwise.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	if client.IsTransportError(err) {
		return MessageNetworkError
	}

	if msg := client.RemoteMessage(err); msg != "" {
		return msg
	}

	for _, code := range localTextCodes {
		if HasTextCode(err, code) {
			var richErr *goerrors.Error
			errors.As(err, &richErr)
			return richErr.Message
		}
	}

	if fallback == "" {
		return MessageUnknownError
	}
	return fallback
}

var localTextCodes = []string{
	TextCodeResetTokenNotFound,
	TextCodeSuperseded,
	TextCodeUnsupportedProvider,
}

// StatusFor maps an error to the HTTP status the portal answers with when it
// re-renders a form.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if client.IsTransportError(err) {
		return http.StatusBadGateway
	}

	var richErr *goerrors.Error
	if errors.As(err, &richErr) && richErr.Code >= http.StatusBadRequest && richErr.Code < 600 {
		return richErr.Code
	}

	return http.StatusInternalServerError
}
