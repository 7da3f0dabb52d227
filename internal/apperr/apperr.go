// Package apperr defines the failure taxonomy shared by the chat pipeline.
//
// Every error that leaves the pipeline is an *Error carrying a Kind. Remote
// failures additionally carry a SubKind and validation failures a Rule, so
// transports can map them without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindRemoteService Kind = "remote_service"
	KindInternal      Kind = "internal"
	// KindThrottled is the server's own per-client rate limit, as opposed
	// to a remote_service/rate_limited reply from the language model.
	KindThrottled Kind = "throttled"
)

type SubKind string

const (
	SubKindNone                SubKind = ""
	SubKindUnauthorized        SubKind = "unauthorized"
	SubKindRateLimited         SubKind = "rate_limited"
	SubKindUpstreamUnavailable SubKind = "upstream_unavailable"
	SubKindTimeout             SubKind = "timeout"
	SubKindGeneric             SubKind = "generic"
)

// Validation rule names.
const (
	RuleType          = "type"
	RuleLength        = "length"
	RuleUnsafeContent = "unsafe_content"
	RuleContext       = "context"
)

type Error struct {
	Kind    Kind
	SubKind SubKind
	Rule    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.SubKind != SubKindNone:
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.SubKind, e.Message)
	case e.Rule != "":
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Rule, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(rule, message string) *Error {
	return &Error{Kind: KindValidation, Rule: rule, Message: message}
}

func Remote(sub SubKind, message string, err error) *Error {
	if sub == SubKindNone {
		sub = SubKindGeneric
	}
	return &Error{Kind: KindRemoteService, SubKind: sub, Message: message, Err: err}
}

func Throttled(message string) *Error {
	return &Error{Kind: KindThrottled, SubKind: SubKindRateLimited, Message: message}
}

// Internal hides err behind a generic message. err stays reachable through
// Unwrap for logging.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "an unexpected error occurred", Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

func SubKindOf(err error) SubKind {
	if e, ok := As(err); ok {
		return e.SubKind
	}
	return SubKindNone
}
