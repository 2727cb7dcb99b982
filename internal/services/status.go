package services

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/desertthunder/spotifetch/internal/shared"
)

// Status groups used to classify Spotify responses.
var (
	OKStatuses        = []int{http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent}
	UserErrorStatuses = []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden}
	ServerErrorStatus = []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable}
)

// RateLimitStatus is returned when the caller exceeds Spotify's rate limit.
const RateLimitStatus = http.StatusTooManyRequests

// StatusKind classifies a non-success HTTP status.
type StatusKind int

const (
	KindUnexpected StatusKind = iota // Non-success code outside every known group
	KindUser                         // 400, 401, 403: caused by the request or credentials
	KindRateLimit                    // 429
	KindServer                       // 500, 502, 503
)

func (k StatusKind) String() string {
	switch k {
	case KindUser:
		return "user error"
	case KindRateLimit:
		return "rate limited"
	case KindServer:
		return "server error"
	default:
		return "unexpected status"
	}
}

// StatusError reports a non-success response from a Spotify endpoint.
type StatusError struct {
	StatusCode int
	Kind       StatusKind
	URL        string
	Body       string // Leading bytes of the response body, if any
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("spotify API %s: status %d", e.Kind, e.StatusCode)
	if e.URL != "" {
		msg += " from " + e.URL
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap lets callers match every status failure with [shared.ErrAPIRequest].
func (e *StatusError) Unwrap() error {
	return shared.ErrAPIRequest
}

func (e *StatusError) UserError() bool   { return e.Kind == KindUser }
func (e *StatusError) RateLimited() bool { return e.Kind == KindRateLimit }
func (e *StatusError) ServerError() bool { return e.Kind == KindServer }

// AuthError reports a failed client-credentials grant.
//
// StatusCode is 0 when the token endpoint could not be reached.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	msg := "failed to authenticate with Spotify: " + e.Message
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status code %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both [shared.ErrAuthFailed] and the underlying cause.
func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{shared.ErrAuthFailed}
	}
	return []error{shared.ErrAuthFailed, e.Err}
}

// ClassifyStatus returns the group a non-success code belongs to.
func ClassifyStatus(code int) StatusKind {
	switch {
	case slices.Contains(UserErrorStatuses, code):
		return KindUser
	case code == RateLimitStatus:
		return KindRateLimit
	case slices.Contains(ServerErrorStatus, code):
		return KindServer
	default:
		return KindUnexpected
	}
}

// CheckStatus returns nil for success codes and a [*StatusError] for everything else.
func CheckStatus(code int) error {
	if slices.Contains(OKStatuses, code) {
		return nil
	}
	return &StatusError{StatusCode: code, Kind: ClassifyStatus(code)}
}

// AsStatusError unwraps err to a [*StatusError] when it carries one.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
