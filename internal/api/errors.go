package api

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindRateLimited
	KindTransient
	KindMalformed
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindMalformed:
		return "malformed"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the failure type of every remote call. Kind decides how callers react.
type Error struct {
	Kind       Kind
	Op         string
	Status     int
	RetryAfter time.Duration
	Err        error
}

var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrRateLimited     = &Error{Kind: KindRateLimited}
	ErrTransient       = &Error{Kind: KindTransient}
	ErrMalformed       = &Error{Kind: KindMalformed}
	ErrNotFound        = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg += " (status " + strconv.Itoa(e.Status) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRateLimited) works on wrapped errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Retryable reports whether a call failing with err may be retried once after a credential refresh.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUnauthenticated, KindTransient:
		return true
	default:
		return false
	}
}

// Classify turns a non-2xx response into an *Error. It returns nil for 2xx.
func Classify(op string, resp *Response) error {
	if resp.Status >= 200 && resp.Status < 300 {
		return nil
	}

	e := &Error{Op: op, Status: resp.Status, Err: fmt.Errorf("%s", truncate(resp.Body, 200))}
	switch {
	case resp.Status == 401, resp.Status == 403:
		e.Kind = KindUnauthenticated
	case resp.Status == 400 && bytes.Contains(resp.Body, []byte("BAD_CLAIMS")):
		e.Kind = KindUnauthenticated
	case resp.Status == 404:
		e.Kind = KindNotFound
	case resp.Status == 429:
		e.Kind = KindRateLimited
		e.RetryAfter = resp.RetryAfter
	case resp.Status >= 500:
		e.Kind = KindTransient
	default:
		e.Kind = KindMalformed
	}
	return e
}

// UserMessage renders err the way it is shown to the player.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return "Something went wrong. Please try again."
	}
	switch apiErr.Kind {
	case KindUnauthenticated:
		return "Could not reach the game. Please start VALORANT and log in."
	case KindRateLimited:
		if apiErr.RetryAfter > 0 {
			return "Too many requests. Please wait and retry " + humanize.Time(time.Now().Add(apiErr.RetryAfter)) + "."
		}
		return "Too many requests. Please wait a moment before retrying."
	case KindNotFound:
		return "Not currently in a match."
	default:
		return "Something went wrong. Please try again."
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
