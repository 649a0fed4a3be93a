package portal

import (
	"context"
	"net/http"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-auth-portal/client"
)

// MockAuthClient implements AuthClient
type MockAuthClient struct {
	mock.Mock
}

var _ AuthClient = (*MockAuthClient)(nil)

func response[T any](args mock.Arguments) (*client.Response[T], error) {
	resp, _ := args.Get(0).(*client.Response[T])
	return resp, args.Error(1)
}

func (m *MockAuthClient) SignInEmail(ctx context.Context, creds client.Credentials, req client.SignInEmailRequest) (*client.Response[client.SignInResult], error) {
	return response[client.SignInResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) SignInSocial(ctx context.Context, creds client.Credentials, req client.SocialSignInRequest) (*client.Response[client.SocialSignInResult], error) {
	return response[client.SocialSignInResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) SignUpEmail(ctx context.Context, creds client.Credentials, req client.SignUpEmailRequest) (*client.Response[client.SignUpResult], error) {
	return response[client.SignUpResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) SignOut(ctx context.Context, creds client.Credentials) (*client.Response[client.SignOutResult], error) {
	return response[client.SignOutResult](m.Called(ctx, creds))
}

func (m *MockAuthClient) ForgetPassword(ctx context.Context, creds client.Credentials, req client.ForgetPasswordRequest) (*client.Response[client.StatusResult], error) {
	return response[client.StatusResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) ResetPassword(ctx context.Context, creds client.Credentials, req client.ResetPasswordRequest) (*client.Response[client.StatusResult], error) {
	return response[client.StatusResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) EnableTwoFactor(ctx context.Context, creds client.Credentials, req client.PasswordRequest) (*client.Response[client.EnableTwoFactorResult], error) {
	return response[client.EnableTwoFactorResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) DisableTwoFactor(ctx context.Context, creds client.Credentials, req client.PasswordRequest) (*client.Response[client.StatusResult], error) {
	return response[client.StatusResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) VerifyTOTP(ctx context.Context, creds client.Credentials, req client.VerifyCodeRequest) (*client.Response[client.VerifyResult], error) {
	return response[client.VerifyResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) VerifyBackupCode(ctx context.Context, creds client.Credentials, req client.VerifyCodeRequest) (*client.Response[client.VerifyResult], error) {
	return response[client.VerifyResult](m.Called(ctx, creds, req))
}

func (m *MockAuthClient) ListAccounts(ctx context.Context, creds client.Credentials) (*client.Response[[]client.Account], error) {
	return response[[]client.Account](m.Called(ctx, creds))
}

func (m *MockAuthClient) GetSession(ctx context.Context, creds client.Credentials) (*client.Response[*client.SessionPayload], error) {
	return response[*client.SessionPayload](m.Called(ctx, creds))
}

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }

func (l *captureLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, c := range l.calls {
		if c.level == level {
			out = append(out, c.message)
		}
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	events []ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) last() ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return ActivityEvent{}
	}
	return s.events[len(s.events)-1]
}

func testSubmission() Submission {
	return Submission{
		BrowserID: "browser-1",
		Creds: client.Credentials{
			Cookies: []*http.Cookie{{Name: "better-auth.session_token", Value: "tok"}},
		},
	}
}

func testFlows(c AuthClient, opts ...FlowsOption) *Flows {
	base := []FlowsOption{
		WithFlowsLogger(&captureLogger{}),
		WithPublicURL("http://portal.test"),
	}
	return NewFlows(c, append(base, opts...)...)
}
