package client

import (
	"context"
	"net/http"
)

// SignInEmail authenticates with email and password. When the account has two
// factor enabled the result only carries TwoFactorRedirect and the service sets
// a short lived two factor cookie instead of the session cookie.
func (c *Client) SignInEmail(ctx context.Context, creds Credentials, req SignInEmailRequest) (*Response[SignInResult], error) {
	return do[SignInResult](ctx, c, http.MethodPost, "/sign-in/email", creds, req)
}

// SignInSocial starts an OAuth flow. The caller redirects the browser to URL.
func (c *Client) SignInSocial(ctx context.Context, creds Credentials, req SocialSignInRequest) (*Response[SocialSignInResult], error) {
	return do[SocialSignInResult](ctx, c, http.MethodPost, "/sign-in/social", creds, req)
}

func (c *Client) SignUpEmail(ctx context.Context, creds Credentials, req SignUpEmailRequest) (*Response[SignUpResult], error) {
	return do[SignUpResult](ctx, c, http.MethodPost, "/sign-up/email", creds, req)
}

func (c *Client) SignOut(ctx context.Context, creds Credentials) (*Response[SignOutResult], error) {
	return do[SignOutResult](ctx, c, http.MethodPost, "/sign-out", creds, struct{}{})
}

// ForgetPassword asks the service to email a reset link pointing at RedirectTo.
func (c *Client) ForgetPassword(ctx context.Context, creds Credentials, req ForgetPasswordRequest) (*Response[StatusResult], error) {
	return do[StatusResult](ctx, c, http.MethodPost, "/forget-password", creds, req)
}

// ResetPassword consumes a reset token. Tokens are single use.
func (c *Client) ResetPassword(ctx context.Context, creds Credentials, req ResetPasswordRequest) (*Response[StatusResult], error) {
	return do[StatusResult](ctx, c, http.MethodPost, "/reset-password", creds, req)
}

func (c *Client) EnableTwoFactor(ctx context.Context, creds Credentials, req PasswordRequest) (*Response[EnableTwoFactorResult], error) {
	return do[EnableTwoFactorResult](ctx, c, http.MethodPost, "/two-factor/enable", creds, req)
}

func (c *Client) DisableTwoFactor(ctx context.Context, creds Credentials, req PasswordRequest) (*Response[StatusResult], error) {
	return do[StatusResult](ctx, c, http.MethodPost, "/two-factor/disable", creds, req)
}

// VerifyTOTP confirms an enrollment or completes a sign in challenge,
// depending on which cookie the browser holds.
func (c *Client) VerifyTOTP(ctx context.Context, creds Credentials, req VerifyCodeRequest) (*Response[VerifyResult], error) {
	return do[VerifyResult](ctx, c, http.MethodPost, "/two-factor/verify-totp", creds, req)
}

func (c *Client) VerifyBackupCode(ctx context.Context, creds Credentials, req VerifyCodeRequest) (*Response[VerifyResult], error) {
	return do[VerifyResult](ctx, c, http.MethodPost, "/two-factor/verify-backup-code", creds, req)
}

func (c *Client) ListAccounts(ctx context.Context, creds Credentials) (*Response[[]Account], error) {
	return do[[]Account](ctx, c, http.MethodGet, "/list-accounts", creds, nil)
}

// GetSession returns the current session; Data is nil when signed out.
func (c *Client) GetSession(ctx context.Context, creds Credentials) (*Response[*SessionPayload], error) {
	return do[*SessionPayload](ctx, c, http.MethodGet, "/get-session", creds, nil)
}
