package csrf

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

const (
	TextCodeTokenMissing  = "CSRF_TOKEN_MISSING"
	TextCodeTokenMismatch = "CSRF_TOKEN_MISMATCH"
	TextCodeTokenExpired  = "CSRF_TOKEN_EXPIRED"
)

var (
	ErrTokenMissing = goerrors.New("CSRF token missing", goerrors.CategoryBadInput).
			WithTextCode(TextCodeTokenMissing).
			WithCode(goerrors.CodeBadRequest)
	ErrTokenMismatch = goerrors.New("CSRF token mismatch", goerrors.CategoryAuthz).
				WithTextCode(TextCodeTokenMismatch).
				WithCode(goerrors.CodeForbidden)
	ErrTokenExpired = goerrors.New("CSRF token expired", goerrors.CategoryAuthz).
			WithTextCode(TextCodeTokenExpired).
			WithCode(goerrors.CodeForbidden)
)

const (
	DefaultTokenLength        = 32
	DefaultTemplateHelpersKey = "template_helpers"
	DefaultContextKey         = "csrf_token"
	DefaultFormFieldName      = "_token"
	DefaultHeaderName         = "X-CSRF-Token"
	minSecureKeyLength        = 32
)

// Config defines the configuration for CSRF middleware
type Config struct {
	Skip func(router.Context) bool

	TokenLength   int
	ContextKey    string
	FormFieldName string
	HeaderName    string

	// SessionKey binds tokens to a browser. Tokens issued for one key are
	// rejected for any other.
	SessionKey func(router.Context) string

	// Storage switches to stored tokens. When nil tokens are stateless and
	// signed with SecureKey.
	Storage Storage

	ErrorHandler   router.ErrorHandler
	SuccessHandler router.HandlerFunc

	SafeMethods []string
	Expiration  time.Duration
	SecureKey   []byte

	DisableTemplateHelpers bool
	TemplateHelpersKey     string

	now func() time.Time
}

// Storage keeps issued tokens for stored mode.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New creates a new CSRF middleware
func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefault(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			sessionKey := cfg.SessionKey(ctx)
			token, err := issueToken(ctx, cfg, sessionKey)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)
			ctx.Locals(cfg.ContextKey+"_field", cfg.FormFieldName)
			ctx.Locals(cfg.ContextKey+"_header", cfg.HeaderName)
			if !cfg.DisableTemplateHelpers {
				ctx.LocalsMerge(cfg.TemplateHelpersKey, TemplateHelpers(token, cfg.FormFieldName, cfg.HeaderName))
			}

			if slices.Contains(cfg.SafeMethods, strings.ToUpper(ctx.Method())) {
				return cfg.SuccessHandler(ctx)
			}

			if err := verifyToken(ctx, cfg, sessionKey, token); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func issueToken(ctx router.Context, cfg Config, sessionKey string) (string, error) {
	if cfg.Storage == nil {
		return signToken(cfg, sessionKey)
	}

	stdCtx := ctx.Context()
	if token, err := cfg.Storage.Get(stdCtx, sessionKey); err == nil && token != "" {
		return token, nil
	}

	token, err := randomHex(cfg.TokenLength)
	if err != nil {
		return "", err
	}
	if err := cfg.Storage.Set(stdCtx, sessionKey, token, cfg.Expiration); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryExternal, "csrf storage unavailable")
	}
	return token, nil
}

func verifyToken(ctx router.Context, cfg Config, sessionKey, expected string) error {
	received := extractToken(ctx, cfg)
	if received == "" {
		return ErrTokenMissing
	}

	if cfg.Storage != nil {
		if expected == "" || subtle.ConstantTimeCompare([]byte(received), []byte(expected)) != 1 {
			return ErrTokenMismatch
		}
		return nil
	}

	return verifySignedToken(cfg, sessionKey, received)
}

func randomHex(length int) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "csrf token generation")
	}
	return hex.EncodeToString(b), nil
}

// signToken produces base64("issued:nonce:session:hmac").
func signToken(cfg Config, sessionKey string) (string, error) {
	nonce, err := randomHex(cfg.TokenLength)
	if err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%d:%s:%s", cfg.now().UTC().Unix(), nonce, hex.EncodeToString([]byte(sessionKey)))
	token := payload + ":" + hex.EncodeToString(sign(cfg.SecureKey, payload))
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

func verifySignedToken(cfg Config, sessionKey, token string) error {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrTokenMismatch
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 4 {
		return ErrTokenMismatch
	}

	signature, err := hex.DecodeString(parts[3])
	if err != nil {
		return ErrTokenMismatch
	}
	if !hmac.Equal(signature, sign(cfg.SecureKey, strings.Join(parts[:3], ":"))) {
		return ErrTokenMismatch
	}

	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(hex.EncodeToString([]byte(sessionKey)))) != 1 {
		return ErrTokenMismatch
	}

	issued, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrTokenMismatch
	}
	if cfg.Expiration > 0 && cfg.now().UTC().After(time.Unix(issued, 0).Add(cfg.Expiration)) {
		return ErrTokenExpired
	}

	return nil
}

func sign(key []byte, payload string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func extractToken(ctx router.Context, cfg Config) string {
	if token := ctx.FormValue(cfg.FormFieldName); token != "" {
		return token
	}
	return ctx.GetString(cfg.HeaderName, "")
}

// IPSessionKey is the fallback binding when no browser id is known.
func IPSessionKey(ctx router.Context) string {
	return "csrf_ip_" + ctx.IP()
}

func configDefault(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}
	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS", "TRACE"}
	}
	if cfg.Expiration == 0 {
		cfg.Expiration = 24 * time.Hour
	}
	if cfg.SessionKey == nil {
		cfg.SessionKey = IPSessionKey
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}
	if cfg.TemplateHelpersKey == "" {
		cfg.TemplateHelpersKey = DefaultTemplateHelpersKey
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	cfg.SecureKey = initializeSecureKey(cfg.SecureKey, cfg.Storage)
	return cfg
}

func defaultErrorHandler(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code > 0 {
		return ctx.Status(richErr.Code).SendString(richErr.Message)
	}
	return ctx.Status(router.StatusInternalServerError).SendString("CSRF validation error")
}

func initializeSecureKey(current []byte, storage Storage) []byte {
	if storage != nil {
		return current
	}
	if len(current) > 0 {
		if len(current) < minSecureKeyLength {
			panic(fmt.Errorf("csrf: secure key must be at least %d bytes, got %d", minSecureKeyLength, len(current)))
		}
		return current
	}
	key := make([]byte, minSecureKeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		panic(fmt.Errorf("csrf: unable to initialize secure key: %w", err))
	}
	return key
}

// TemplateHelpers returns the values forms use to embed the token.
func TemplateHelpers(token, fieldName, headerName string) map[string]any {
	return map[string]any{
		"csrf_token":       token,
		"csrf_field":       `<input type="hidden" name="` + fieldName + `" value="` + token + `">`,
		"csrf_meta":        `<meta name="csrf-token" content="` + token + `">`,
		"csrf_header_name": headerName,
	}
}

// TemplateHelpersFromContext rebuilds the helpers from request locals. The
// token is empty when the middleware did not run.
func TemplateHelpersFromContext(ctx router.Context, tokenKey string) map[string]any {
	tok, _ := TokenFromContext(ctx, tokenKey)
	return tok.Helpers()
}
