// internal/remote/errors.go
//
// Error taxonomy for calls to the game server.
//   - Kind: the classification the UI branches on (NETWORK_ERROR, TIMEOUT_ERROR,
//     WORD_NOT_FOUND, INVALID_LENGTH, INVALID_FORMAT, UNKNOWN_ERROR). Server
//     ErrorResponse bodies keep whatever kind the server sent.
//   - Error: kind + HTTP status (0 when no response arrived) + human message.
//
// Classification happens once, at the HTTP boundary. Callers use KindOf and
// never inspect transport errors themselves.

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/robalobadob/wordle/apps/go-client/internal/game"
)

// Kind classifies a failed call.
type Kind string

const (
	KindNetwork       Kind = "NETWORK_ERROR"
	KindTimeout       Kind = "TIMEOUT_ERROR"
	KindWordNotFound  Kind = "WORD_NOT_FOUND"
	KindInvalidLength Kind = "INVALID_LENGTH"
	KindInvalidFormat Kind = "INVALID_FORMAT"
	KindUnknown       Kind = "UNKNOWN_ERROR"
)

// Error is a classified failure from the game server or the path to it.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed if simply sent again.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindTimeout
}

// ErrorResponse is the body the server sends with 4xx/5xx statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// KindOf returns the classification of err, or "" for nil. Local guess
// validation errors map onto the same kinds the server would have used.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	switch {
	case errors.Is(err, game.ErrGuessLength):
		return KindInvalidLength
	case errors.Is(err, game.ErrGuessFormat):
		return KindInvalidFormat
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindUnknown
}

// IsRetryable is Retryable for any error.
func IsRetryable(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return false
}

// ClassifyMessage maps the free-text refusal messages of the multiplayer
// endpoints ("Invalid word", "Guess must be exactly 5 letters") onto kinds.
func ClassifyMessage(msg string) Kind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "invalid word"), strings.Contains(m, "not in our dictionary"),
		strings.Contains(m, "not in word list"):
		return KindWordNotFound
	case strings.Contains(m, "5 letters"):
		return KindInvalidLength
	case strings.Contains(m, "only letters"):
		return KindInvalidFormat
	}
	return KindUnknown
}

// Refusal classifies a success=false reply that arrived with a 2xx status.
func Refusal(msg string) *Error { return refusal(0, msg) }

// refusal builds the error for a success=false reply.
func refusal(status int, msg string) *Error {
	return &Error{Kind: ClassifyMessage(msg), Status: status, Message: msg}
}

// classifyTransport turns an error from http.Client.Do (or the limiter) into
// an *Error.
func classifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Status: http.StatusRequestTimeout,
			Message: "Request timed out. Please try again.", Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Status: http.StatusRequestTimeout,
			Message: "Request timed out. Please try again.", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnknown, Message: "request canceled", Err: err}
	}
	var op *net.OpError
	if errors.As(err, &op) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{Kind: KindNetwork,
			Message: "Unable to connect to the server. Please check your connection and try again.", Err: err}
	}
	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}

// classifyStatus builds the error for a non-2xx response.
func classifyStatus(status int, body []byte) *Error {
	var er ErrorResponse
	if json.Unmarshal(body, &er) == nil {
		switch {
		case er.Error != "" && er.Message != "":
			return &Error{Kind: Kind(er.Error), Status: status, Message: er.Message}
		case er.Message != "":
			return &Error{Kind: KindUnknown, Status: status, Message: er.Message}
		case er.Error != "":
			return &Error{Kind: KindUnknown, Status: status, Message: er.Error}
		}
	}
	msg := http.StatusText(status)
	if msg == "" {
		msg = "An unexpected error occurred"
	}
	return &Error{Kind: KindUnknown, Status: status, Message: msg}
}
