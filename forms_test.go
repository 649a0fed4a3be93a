package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignInPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload SignInPayload
		fields  []string
	}{
		{name: "valid", payload: SignInPayload{Email: "jane@example.com", Password: "secret"}},
		{name: "empty", payload: SignInPayload{}, fields: []string{"email", "password"}},
		{name: "bad email", payload: SignInPayload{Email: "jane", Password: "secret"}, fields: []string{"email"}},
		{name: "short password", payload: SignInPayload{Email: "jane@example.com", Password: "12345"}, fields: []string{"password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := FormatValidationErrorToMap(tt.payload.Validate())
			assert.Len(t, errs, len(tt.fields))
			for _, field := range tt.fields {
				assert.Contains(t, errs, field)
			}
		})
	}
}

func TestSignUpPasswordRules(t *testing.T) {
	base := SignUpPayload{Name: "Jane", Email: "jane@example.com"}

	tests := []struct {
		password string
		message  string
	}{
		{password: "Ab1", message: msgPasswordLength},
		{password: "abcdefg1", message: msgPasswordUpper},
		{password: "ABCDEFG1", message: msgPasswordLower},
		{password: "Abcdefgh", message: msgPasswordDigit},
		{password: "Abcdefg1"},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			p := base
			p.Password = tt.password
			p.ConfirmPassword = tt.password

			errs := FormatValidationErrorToMap(p.Validate())
			if tt.message == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.message, errs["password"])
		})
	}
}

func TestSignUpPasswordsMustMatch(t *testing.T) {
	p := SignUpPayload{
		Name:            "Jane",
		Email:           "jane@example.com",
		Password:        "Abcdefg1",
		ConfirmPassword: "Abcdefg2",
	}

	errs := FormatValidationErrorToMap(p.Validate())
	assert.Equal(t, map[string]string{"confirm_password": msgPasswordsMatch}, errs)
}

func TestResetPasswordPayloadIgnoresToken(t *testing.T) {
	p := ResetPasswordPayload{Password: "Abcdefg1", ConfirmPassword: "Abcdefg1"}
	assert.NoError(t, p.Validate())
}

func TestTwoFactorCodePayloadValidate(t *testing.T) {
	assert.NoError(t, TwoFactorCodePayload{Code: "123456"}.Validate())
	assert.Error(t, TwoFactorCodePayload{Code: "12345"}.Validate())
	assert.Error(t, TwoFactorCodePayload{Code: "12345a"}.Validate())
	assert.Error(t, TwoFactorCodePayload{Code: "1234567"}.Validate())

	assert.NoError(t, BackupCodePayload{Code: "abcd-efgh"}.Validate())
	assert.Error(t, BackupCodePayload{}.Validate())
}

func TestSocialSignInPayloadValidate(t *testing.T) {
	for _, provider := range SocialSignInProviders {
		assert.NoError(t, SocialSignInPayload{Provider: provider}.Validate(), provider)
	}
	assert.Error(t, SocialSignInPayload{Provider: "facebook"}.Validate())
	assert.Error(t, SocialSignInPayload{}.Validate())
}

func TestPasswordRequirements(t *testing.T) {
	met := func(password string) map[string]bool {
		out := map[string]bool{}
		for _, req := range PasswordRequirements(password) {
			out[req.ID] = req.Met
		}
		return out
	}

	assert.Equal(t, map[string]bool{
		"length": false, "uppercase": false, "lowercase": false, "number": false,
	}, met(""))

	assert.Equal(t, map[string]bool{
		"length": false, "uppercase": true, "lowercase": true, "number": true,
	}, met("Ab1"))

	assert.Equal(t, map[string]bool{
		"length": true, "uppercase": true, "lowercase": true, "number": true,
	}, met("Abcdefg1"))
}

func TestCanSubmitCode(t *testing.T) {
	assert.True(t, CanSubmitCode("123456"))
	assert.True(t, CanSubmitCode(" 123456 "))
	assert.False(t, CanSubmitCode("12345"))
	assert.False(t, CanSubmitCode("abcdef"))
	assert.False(t, CanSubmitCode(""))
}

func TestCanSubmitCodeAgreesWithValidation(t *testing.T) {
	for _, code := range []string{"123456", " 123456", "123456\n", "12345", " 1234567", "12 456"} {
		payload := TwoFactorCodePayload{Code: code}.Normalize()
		assert.Equal(t, CanSubmitCode(code), payload.Validate() == nil, "code %q", code)
	}
}

func TestNormalizeTrimsIdentifiers(t *testing.T) {
	signIn := SignInPayload{Email: " jane@example.com ", Password: " secret123 "}.Normalize()
	assert.Equal(t, "jane@example.com", signIn.Email)
	assert.Equal(t, " secret123 ", signIn.Password)
	assert.NoError(t, signIn.Validate())

	signUp := SignUpPayload{Name: " Jane ", Email: "jane@example.com\t"}.Normalize()
	assert.Equal(t, "Jane", signUp.Name)
	assert.Equal(t, "jane@example.com", signUp.Email)

	assert.Equal(t, "jane@example.com", ForgotPasswordPayload{Email: " jane@example.com"}.Normalize().Email)
	assert.Equal(t, "tok", ResetPasswordPayload{Token: " tok "}.Normalize().Token)
	assert.Equal(t, "aaaa-1111", BackupCodePayload{Code: "aaaa-1111 "}.Normalize().Code)
}

func TestRedactedPayloads(t *testing.T) {
	in := SignUpPayload{Name: "Jane", Password: "Secret123", ConfirmPassword: "Secret123"}
	out := in.Redacted()

	assert.Equal(t, "Jane", out.Name)
	assert.NotEqual(t, in.Password, out.Password)
	assert.NotEqual(t, in.ConfirmPassword, out.ConfirmPassword)
	assert.Equal(t, "Secret123", in.Password)

	assert.Empty(t, SignInPayload{}.Redacted().Password)
}

func TestFormatValidationErrorToMapNil(t *testing.T) {
	assert.Empty(t, FormatValidationErrorToMap(nil))
}
