// Package captcha is a unified client for remote captcha-solving services
// (2captcha, anti-captcha, deathbycaptcha). Challenges are submitted to the
// configured services in order; the first one to produce a solution wins.
package captcha

import (
	"context"
	"fmt"
)

// Kind identifies the captcha challenge type.
type Kind int

const (
	KindImage Kind = iota
	KindRecaptchaV2
	KindRecaptchaV3
	KindHCaptcha
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindRecaptchaV2:
		return "recaptcha_v2"
	case KindRecaptchaV3:
		return "recaptcha_v3"
	case KindHCaptcha:
		return "hcaptcha"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a captcha type name as used in configs and on the
// command line ("image", "recaptcha_v2", "recaptcha_v3", "hcaptcha").
func ParseKind(s string) (Kind, error) {
	switch s {
	case "image":
		return KindImage, nil
	case "recaptcha_v2":
		return KindRecaptchaV2, nil
	case "recaptcha_v3":
		return KindRecaptchaV3, nil
	case "hcaptcha":
		return KindHCaptcha, nil
	}
	return 0, &Error{Kind: ErrUnsupportedType, Msg: s}
}

// JobHandle is an opaque service-issued identifier for a submitted solving
// task. A handle is only meaningful to the backend that issued it and only
// for the poll sequence following the submit.
type JobHandle string

// PollState is the progress of a submitted task.
type PollState int

const (
	StatePending PollState = iota
	StateReady
)

// PollStatus is the outcome of a single poll attempt. Hard failures are
// reported as errors from Poll, not encoded here.
type PollStatus struct {
	State    PollState
	Solution string
}

// Backend abstracts one captcha-solving service. Implementations are
// immutable after construction and safe for concurrent use.
type Backend interface {
	// Name returns the stable service identity, e.g. "2captcha".
	Name() string

	// Submit sends the challenge and returns a handle for polling.
	Submit(ctx context.Context, req Request) (JobHandle, error)

	// Poll checks a submitted task exactly once, without waiting.
	Poll(ctx context.Context, handle JobHandle) (PollStatus, error)

	// Balance returns the account balance in the account currency.
	Balance(ctx context.Context) (float64, error)
}
