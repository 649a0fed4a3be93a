package csrf

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromContext(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock[DefaultContextKey] = "token123"
	ctx.LocalsMock[DefaultContextKey+"_header"] = "X-Portal-CSRF"

	tok, err := TokenFromContext(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Token{Value: "token123", FieldName: DefaultFormFieldName, HeaderName: "X-Portal-CSRF"}, tok)

	helpers := tok.Helpers()
	assert.Equal(t, "token123", helpers["csrf_token"])
	assert.Equal(t, "X-Portal-CSRF", helpers["csrf_header_name"])
	assert.Contains(t, helpers["csrf_field"], `name="_token" value="token123"`)
}

func TestTokenFromContextCustomKey(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock["portal_csrf"] = "abc"
	ctx.LocalsMock["portal_csrf_field"] = "csrf"

	tok, err := TokenFromContext(ctx, "portal_csrf")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Value)
	assert.Equal(t, "csrf", tok.FieldName)
	assert.Equal(t, DefaultHeaderName, tok.HeaderName)
}

func TestTokenFromContextMissing(t *testing.T) {
	ctx := router.NewMockContext()

	tok, err := TokenFromContext(ctx, "")
	assert.ErrorIs(t, err, ErrTokenMissing)
	assert.Empty(t, tok.Value)
	assert.Equal(t, "", TemplateHelpersFromContext(ctx, "")["csrf_token"])
}
