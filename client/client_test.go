package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Origin: "http://portal.test"})
	require.NoError(t, err)
	return c
}

func TestNewRequiresAbsoluteBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{BaseURL: "auth.local"})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))

	c, err := New(Config{BaseURL: "https://auth.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/api/auth", c.BaseURL())
}

func TestSignInEmailForwardsCookiesAndRelaysSetCookie(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/sign-in/email", r.URL.Path)
		assert.Equal(t, "http://portal.test", r.Header.Get("Origin"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		cookie, err := r.Cookie("better-auth.session_token")
		require.NoError(t, err)
		assert.Equal(t, "old", cookie.Value)

		var body SignInEmailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body.Email)
		assert.True(t, body.RememberMe)

		http.SetCookie(w, &http.Cookie{Name: "better-auth.session_token", Value: "fresh", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"redirect":false,"token":"tok","user":{"id":"u1","email":"ada@example.com","name":"Ada"}}`))
	})

	resp, err := c.SignInEmail(context.Background(), Credentials{
		Cookies: []*http.Cookie{{Name: "better-auth.session_token", Value: "old"}},
	}, SignInEmailRequest{Email: "ada@example.com", Password: "secret1", RememberMe: true})
	require.NoError(t, err)

	require.NotNil(t, resp.Data.User)
	assert.Equal(t, "u1", resp.Data.User.ID)
	assert.False(t, resp.Data.TwoFactorRedirect)
	require.Len(t, resp.Cookies, 1)
	assert.Equal(t, "fresh", resp.Cookies[0].Value)
}

func TestSignInEmailTwoFactorRedirect(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"twoFactorRedirect":true}`))
	})

	resp, err := c.SignInEmail(context.Background(), Credentials{}, SignInEmailRequest{Email: "a@b.co", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, resp.Data.TwoFactorRedirect)
	assert.Nil(t, resp.Data.User)
}

func TestRemoteErrorCarriesMessageAndCategory(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category goerrors.Category
		message  string
		textCode string
	}{
		{
			name:     "unauthorized with message",
			status:   http.StatusUnauthorized,
			body:     `{"code":"INVALID_EMAIL_OR_PASSWORD","message":"Invalid credentials"}`,
			category: goerrors.CategoryAuth,
			message:  "Invalid credentials",
			textCode: "INVALID_EMAIL_OR_PASSWORD",
		},
		{
			name:     "bad request without payload",
			status:   http.StatusBadRequest,
			body:     ``,
			category: goerrors.CategoryBadInput,
			message:  "",
			textCode: TextCodeRemoteFailed,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"message":"Too many requests"}`,
			category: goerrors.CategoryRateLimit,
			message:  "Too many requests",
			textCode: TextCodeRemoteFailed,
		},
		{
			name:     "server error uses error field",
			status:   http.StatusInternalServerError,
			body:     `{"error":"boom"}`,
			category: goerrors.CategoryOperation,
			message:  "boom",
			textCode: TextCodeRemoteFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.SignOut(context.Background(), Credentials{})
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, tt.category, richErr.Category)
			assert.Equal(t, tt.status, richErr.Code)
			assert.Equal(t, tt.textCode, richErr.TextCode)
			assert.Equal(t, tt.message, RemoteMessage(err))
			assert.Equal(t, tt.status, StatusCode(err))
			assert.False(t, IsTransportError(err))
		})
	}
}

func TestTransportErrorIsDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.GetSession(context.Background(), Credentials{})
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.Empty(t, RemoteMessage(err))
	assert.Zero(t, StatusCode(err))
}

func TestDecodeErrorOnMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totpURI":`))
	})

	_, err := c.EnableTwoFactor(context.Background(), Credentials{}, PasswordRequest{Password: "pw"})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, TextCodeBadResponse, richErr.TextCode)
	assert.False(t, IsTransportError(err))
}

func TestGetSessionNullMeansSignedOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/auth/get-session", r.URL.Path)
		_, _ = w.Write([]byte(`null`))
	})

	resp, err := c.GetSession(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Nil(t, resp.Data)
}

func TestGetSessionPresent(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SessionPayload{
			Session: Session{ID: "s1", UserID: "u1", ExpiresAt: expires},
			User:    User{ID: "u1", Email: "ada@example.com", TwoFactorEnabled: true},
		})
	})

	resp, err := c.GetSession(context.Background(), Credentials{})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.User.TwoFactorEnabled)
	assert.True(t, expires.Equal(resp.Data.Session.ExpiresAt))
}

func TestListAccountsAndTwoFactorEndpoints(t *testing.T) {
	seen := map[string]string{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen[r.URL.Path] = r.Method
		switch r.URL.Path {
		case "/api/auth/list-accounts":
			_, _ = w.Write([]byte(`[{"id":"a1","providerId":"github","accountId":"42"}]`))
		case "/api/auth/two-factor/enable":
			_, _ = w.Write([]byte(`{"totpURI":"otpauth://totp/x?secret=ABC","backupCodes":["a","b"]}`))
		case "/api/auth/two-factor/verify-totp", "/api/auth/two-factor/verify-backup-code":
			var body VerifyCodeRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "123456", body.Code)
			_, _ = w.Write([]byte(`{"token":"t"}`))
		default:
			_, _ = w.Write([]byte(`{"status":true}`))
		}
	})

	ctx := context.Background()
	accounts, err := c.ListAccounts(ctx, Credentials{})
	require.NoError(t, err)
	require.Len(t, accounts.Data, 1)
	assert.Equal(t, "github", accounts.Data[0].ProviderID)

	enabled, err := c.EnableTwoFactor(ctx, Credentials{}, PasswordRequest{Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, enabled.Data.BackupCodes)

	_, err = c.VerifyTOTP(ctx, Credentials{}, VerifyCodeRequest{Code: "123456"})
	require.NoError(t, err)
	_, err = c.VerifyBackupCode(ctx, Credentials{}, VerifyCodeRequest{Code: "123456"})
	require.NoError(t, err)

	disabled, err := c.DisableTwoFactor(ctx, Credentials{}, PasswordRequest{Password: "pw"})
	require.NoError(t, err)
	assert.True(t, disabled.Data.Status)

	_, err = c.ForgetPassword(ctx, Credentials{}, ForgetPasswordRequest{Email: "a@b.co"})
	require.NoError(t, err)
	_, err = c.ResetPassword(ctx, Credentials{}, ResetPasswordRequest{NewPassword: "Abcdefg1", Token: "tk"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, seen["/api/auth/list-accounts"])
	assert.Equal(t, http.MethodPost, seen["/api/auth/two-factor/disable"])
	assert.Equal(t, http.MethodPost, seen["/api/auth/forget-password"])
	assert.Equal(t, http.MethodPost, seen["/api/auth/reset-password"])
}

func TestRedirectsAreNotFollowed(t *testing.T) {
	hits := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Location", "/elsewhere")
		w.WriteHeader(http.StatusFound)
	})

	resp, err := c.SignInSocial(context.Background(), Credentials{}, SocialSignInRequest{Provider: "github"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, 1, hits)
}
