package portal

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-auth-portal/middleware/csrf"
)

func TestTemplateHelpers(t *testing.T) {
	helpers := TemplateHelpers()

	for _, key := range []string{
		"is_authenticated",
		"password_requirements",
		"can_submit_code",
		"qr_code",
		"social_providers",
		"two_factor_states",
		"csrf_token",
		"csrf_field",
		"csrf_meta",
		"csrf_header_name",
	} {
		assert.Contains(t, helpers, key)
	}

	states, ok := helpers["two_factor_states"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, string(TwoFactorAwaitingCode), states["awaiting_code"])
	assert.Equal(t, string(TwoFactorEnabled), states["enabled"])
	assert.Empty(t, helpers["csrf_token"])
}

func TestIsAuthenticated(t *testing.T) {
	user := SessionUser{ID: "user-1"}

	tests := []struct {
		name string
		in   any
		want bool
	}{
		{name: "user", in: user, want: true},
		{name: "user pointer", in: &user, want: true},
		{name: "nil user pointer", in: (*SessionUser)(nil), want: false},
		{name: "anonymous user", in: SessionUser{}, want: false},
		{name: "present view", in: presentView(&Session{User: user}), want: true},
		{name: "unknown view", in: unknownView(), want: false},
		{name: "session context", in: NewSessionContext(nil, testSubmission().Creds, presentView(&Session{User: user})), want: true},
		{name: "nil session context", in: (*SessionContext)(nil), want: false},
		{name: "string", in: "user-1", want: false},
		{name: "nil", in: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAuthenticated(tt.in))
		})
	}
}

func TestGetTemplateUser(t *testing.T) {
	ctx := router.NewMockContext()

	_, ok := GetTemplateUser(ctx)
	assert.False(t, ok)

	ctx.LocalsMock[TemplateUserKey] = SessionUser{ID: "user-1", Email: "jane@example.com"}
	user, ok := GetTemplateUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", user.Email)
}

func TestTemplateHelpersWithRouter(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock[TemplateUserKey] = SessionUser{ID: "user-1"}
	ctx.LocalsMock[csrf.DefaultContextKey] = "token-123"
	ctx.On("Locals", mock.Anything).Return(nil).Maybe()

	helpers := TemplateHelpersWithRouter(ctx)

	assert.Equal(t, SessionUser{ID: "user-1"}, helpers[TemplateUserKey])
	assert.Equal(t, "token-123", helpers["csrf_token"])
	assert.Contains(t, helpers["csrf_field"], `value="token-123"`)
	assert.True(t, isAuthenticated(helpers[TemplateUserKey]))
}

func TestCanSubmitCodeHelperAcceptsAnyValue(t *testing.T) {
	assert.False(t, canSubmitCode(nil))
	assert.False(t, canSubmitCode(123456))
	assert.False(t, canSubmitCode("12345"))
	assert.True(t, canSubmitCode("123456"))
}
