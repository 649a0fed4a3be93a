package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeUnreachable  = "AUTH_SERVICE_UNREACHABLE"
	TextCodeBadResponse  = "AUTH_SERVICE_BAD_RESPONSE"
	TextCodeRemoteFailed = "AUTH_SERVICE_REJECTED"

	metaRemoteMessage = "remote_message"
	metaEndpoint      = "endpoint"
)

// ErrEmptyResponse is returned by callers that expected a payload and got none.
var ErrEmptyResponse = goerrors.New("empty response from the authentication service", goerrors.CategoryOperation).
	WithTextCode(TextCodeBadResponse).
	WithCode(http.StatusBadGateway)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// IsTransportError reports whether the auth service could not be reached at all.
func IsTransportError(err error) bool {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeUnreachable
}

// RemoteMessage returns the message the auth service put in its failure
// payload, or an empty string when there was none.
func RemoteMessage(err error) string {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) || richErr.Metadata == nil {
		return ""
	}
	msg, _ := richErr.Metadata[metaRemoteMessage].(string)
	return msg
}

// StatusCode returns the HTTP status of a remote rejection, 0 otherwise.
func StatusCode(err error) int {
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) || richErr.TextCode == TextCodeUnreachable {
		return 0
	}
	return richErr.Code
}

func transportError(err error, endpoint string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "could not connect to the authentication service").
		WithTextCode(TextCodeUnreachable).
		WithCode(http.StatusBadGateway).
		WithMetadata(map[string]any{
			metaEndpoint: endpoint,
		})
}

func decodeError(err error, endpoint string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "unexpected response from the authentication service").
		WithTextCode(TextCodeBadResponse).
		WithCode(http.StatusBadGateway).
		WithMetadata(map[string]any{
			metaEndpoint: endpoint,
		})
}

func remoteError(status int, body []byte, endpoint string) *goerrors.Error {
	payload := errorPayload{}
	_ = json.Unmarshal(body, &payload)

	remoteMsg := strings.TrimSpace(payload.Message)
	if remoteMsg == "" {
		remoteMsg = strings.TrimSpace(payload.Error)
	}

	message := remoteMsg
	if message == "" {
		message = http.StatusText(status)
	}

	textCode := payload.Code
	if textCode == "" {
		textCode = TextCodeRemoteFailed
	}

	return goerrors.New(message, categoryForStatus(status)).
		WithTextCode(textCode).
		WithCode(status).
		WithMetadata(map[string]any{
			metaRemoteMessage: remoteMsg,
			metaEndpoint:      endpoint,
		})
}

func categoryForStatus(status int) goerrors.Category {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return goerrors.CategoryBadInput
	case http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case http.StatusForbidden:
		return goerrors.CategoryAuthz
	case http.StatusNotFound:
		return goerrors.CategoryNotFound
	case http.StatusConflict:
		return goerrors.CategoryConflict
	case http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	default:
		return goerrors.CategoryOperation
	}
}

// NewRemoteError builds the error returned when the auth service rejects a
// call with status and an optional code and message.
func NewRemoteError(status int, code, message string) *goerrors.Error {
	body, _ := json.Marshal(errorPayload{Code: code, Message: message})
	return remoteError(status, body, "")
}

// NewTransportError builds the error returned when the auth service cannot
// be reached.
func NewTransportError(err error) *goerrors.Error {
	return transportError(err, "")
}
