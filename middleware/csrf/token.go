package csrf

import "github.com/goliatone/go-router"

// Token is the token issued for the current request together with the names
// a submit carries it under.
type Token struct {
	Value      string `json:"token"`
	FieldName  string `json:"field_name"`
	HeaderName string `json:"header_name"`
}

// TokenFromContext reads what the middleware stored under contextKey. It
// returns ErrTokenMissing when the middleware did not run for the request.
func TokenFromContext(ctx router.Context, contextKey string) (Token, error) {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}

	tok := Token{
		FieldName:  DefaultFormFieldName,
		HeaderName: DefaultHeaderName,
	}
	tok.Value, _ = ctx.Locals(contextKey).(string)

	if v, ok := ctx.Locals(contextKey + "_field").(string); ok && v != "" {
		tok.FieldName = v
	}
	if v, ok := ctx.Locals(contextKey + "_header").(string); ok && v != "" {
		tok.HeaderName = v
	}

	if tok.Value == "" {
		return tok, ErrTokenMissing
	}
	return tok, nil
}

// Helpers returns the template helpers for the token.
func (t Token) Helpers() map[string]any {
	return TemplateHelpers(t.Value, t.FieldName, t.HeaderName)
}
