package client

import (
	"net/http"
	"time"
)

// Credentials carries what the portal forwards from the browser request to
// the auth service. The session token itself stays opaque: it travels inside
// the forwarded cookies.
type Credentials struct {
	Cookies   []*http.Cookie
	UserAgent string
	IP        string
}

// Response wraps a decoded payload with the cookies the auth service set.
type Response[T any] struct {
	Data       T
	Cookies    []*http.Cookie
	StatusCode int
}

// User mirrors the user record returned by the auth service.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	EmailVerified    bool       `json:"emailVerified"`
	Image            string     `json:"image,omitempty"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// Session is the server side session record.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// SessionPayload is the body of get-session. A signed out browser gets a
// JSON null, decoded as a nil *SessionPayload.
type SessionPayload struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}

// Account is a linked identity provider entry.
type Account struct {
	ID         string     `json:"id"`
	ProviderID string     `json:"providerId"`
	AccountID  string     `json:"accountId"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

type SignInEmailRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackURL,omitempty"`
	RememberMe  bool   `json:"rememberMe"`
}

// SignInResult is either a completed sign in or a two factor redirect signal.
type SignInResult struct {
	Redirect          bool   `json:"redirect"`
	Token             string `json:"token,omitempty"`
	URL               string `json:"url,omitempty"`
	User              *User  `json:"user,omitempty"`
	TwoFactorRedirect bool   `json:"twoFactorRedirect,omitempty"`
}

type SocialSignInRequest struct {
	Provider    string `json:"provider"`
	CallbackURL string `json:"callbackURL,omitempty"`
}

type SocialSignInResult struct {
	URL      string `json:"url"`
	Redirect bool   `json:"redirect"`
}

type SignUpEmailRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackURL,omitempty"`
}

type SignUpResult struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

type SignOutResult struct {
	Success bool `json:"success"`
}

type ForgetPasswordRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
	Token       string `json:"token"`
}

// StatusResult is the generic `{status: bool}` acknowledgement.
type StatusResult struct {
	Status bool `json:"status"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

// EnableTwoFactorResult carries the TOTP seed URI and the issued backup codes.
type EnableTwoFactorResult struct {
	TOTPURI     string   `json:"totpURI"`
	BackupCodes []string `json:"backupCodes"`
}

type VerifyCodeRequest struct {
	Code        string `json:"code"`
	TrustDevice bool   `json:"trustDevice"`
}

type VerifyResult struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}
