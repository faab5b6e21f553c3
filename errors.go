package captcha

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every error returned by this package wraps exactly one of
// these sentinels, so callers can match narrowly with errors.Is or broadly
// with errors.As against *Error.
var (
	ErrSubmission            = errors.New("submission rejected")
	ErrTransport             = errors.New("transport failure")
	ErrMalformedResponse     = errors.New("malformed response")
	ErrUnknownSolutionFormat = errors.New("unknown solution format")
	ErrUnsupportedType       = errors.New("unsupported captcha type")
	ErrMissingImageSource    = errors.New("missing image source")
	ErrTaskFailed            = errors.New("task failed")
	ErrPollTimeout           = errors.New("timed out waiting for solution")
	ErrBalance               = errors.New("balance query failed")
	ErrBadCredential         = errors.New("malformed credential")
	ErrAllBackendsFailed     = errors.New("all services failed")
	ErrNoValidServices       = errors.New("no valid services configured")
)

// Error is the root error type of the package. Backend names the service
// the failure came from and is empty for solver-level errors.
type Error struct {
	Backend string
	Kind    error
	Msg     string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("captcha: ")
	if e.Backend != "" {
		b.WriteString(e.Backend)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// backendErr builds an *Error with an optional formatted message.
func backendErr(backend string, kind, cause error, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Backend: backend, Kind: kind, Msg: msg, Cause: cause}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
