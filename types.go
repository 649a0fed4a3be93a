package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-auth-portal/client"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LoggerProvider hands out named loggers, one per component.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// LoggerProviderFunc adapts a function to LoggerProvider.
type LoggerProviderFunc func(name string) Logger

func (f LoggerProviderFunc) GetLogger(name string) Logger {
	if f == nil {
		return defLogger{}
	}
	if lgr := f(name); lgr != nil {
		return lgr
	}
	return defLogger{}
}

// AuthClient is the contract the portal needs from the remote auth service.
// *client.Client implements it.
type AuthClient interface {
	SignInEmail(ctx context.Context, creds client.Credentials, req client.SignInEmailRequest) (*client.Response[client.SignInResult], error)
	SignInSocial(ctx context.Context, creds client.Credentials, req client.SocialSignInRequest) (*client.Response[client.SocialSignInResult], error)
	SignUpEmail(ctx context.Context, creds client.Credentials, req client.SignUpEmailRequest) (*client.Response[client.SignUpResult], error)
	SignOut(ctx context.Context, creds client.Credentials) (*client.Response[client.SignOutResult], error)
	ForgetPassword(ctx context.Context, creds client.Credentials, req client.ForgetPasswordRequest) (*client.Response[client.StatusResult], error)
	ResetPassword(ctx context.Context, creds client.Credentials, req client.ResetPasswordRequest) (*client.Response[client.StatusResult], error)
	EnableTwoFactor(ctx context.Context, creds client.Credentials, req client.PasswordRequest) (*client.Response[client.EnableTwoFactorResult], error)
	DisableTwoFactor(ctx context.Context, creds client.Credentials, req client.PasswordRequest) (*client.Response[client.StatusResult], error)
	VerifyTOTP(ctx context.Context, creds client.Credentials, req client.VerifyCodeRequest) (*client.Response[client.VerifyResult], error)
	VerifyBackupCode(ctx context.Context, creds client.Credentials, req client.VerifyCodeRequest) (*client.Response[client.VerifyResult], error)
	ListAccounts(ctx context.Context, creds client.Credentials) (*client.Response[[]client.Account], error)
	GetSession(ctx context.Context, creds client.Credentials) (*client.Response[*client.SessionPayload], error)
}

var _ AuthClient = (*client.Client)(nil)

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] PORTAL " + line(msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] PORTAL " + line(msg, args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] PORTAL " + line(msg, args))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] PORTAL " + line(msg, args))
}

func line(msg string, args []any) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(msg, "\n"))
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func resolveLogger(name string, logger Logger, provider LoggerProvider) Logger {
	if logger != nil {
		return logger
	}
	if provider != nil {
		return provider.GetLogger(name)
	}
	return defLogger{}
}
