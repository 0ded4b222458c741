package domain

import (
	"errors"
	"fmt"
)

// Error categories. Concrete errors wrap or match one of these so callers can
// classify with errors.Is.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrClientInput      = errors.New("invalid client input")
	ErrUpstreamAuth     = errors.New("upstream authentication failed")
	ErrUpstreamFetch    = errors.New("upstream request failed")
	ErrVibeParse        = errors.New("vibe analysis returned unparsable data")
	ErrPromptGeneration = errors.New("could not generate the image prompt")
	ErrImageGeneration  = errors.New("image generation failed")
)

// InputError is a client mistake whose message is safe to echo back.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrClientInput }

// NewInputError builds an InputError.
func NewInputError(msg string) error {
	return &InputError{Message: msg}
}

// UpstreamError describes a failed call to a third-party service. StatusCode is
// the HTTP status the service answered with, or 0 when no response arrived.
type UpstreamError struct {
	Service    string
	StatusCode int
	Kind       error
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Service + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == e.Kind }
