package signer

import (
	"errors"
	"fmt"
)

// Kind classifies a SigningError.
type Kind string

const (
	KindNoKeyHolder        Kind = "NoKeyHolder"
	KindUserRejected       Kind = "UserRejected"
	KindMalformedSignature Kind = "MalformedSignature"
)

// Sentinels. Key holders wrap ErrUserRejected or ErrNoKeyHolder to tell the
// signer how a failure should be classified.
var (
	ErrNoKeyHolder        = errors.New("no key holder available")
	ErrUserRejected       = errors.New("signature request rejected by key holder")
	ErrMalformedSignature = errors.New("malformed signature")
)

// SigningError is returned by Signer.Sign for every failure.
type SigningError struct {
	Kind Kind
	Err  error
}

func (e *SigningError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("signing failed (%s)", e.Kind)
	}
	return fmt.Sprintf("signing failed (%s): %v", e.Kind, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *SigningError) Is(target error) bool {
	switch e.Kind {
	case KindNoKeyHolder:
		return target == ErrNoKeyHolder
	case KindUserRejected:
		return target == ErrUserRejected
	case KindMalformedSignature:
		return target == ErrMalformedSignature
	}
	return false
}

// classify maps a key holder failure onto the signing error taxonomy.
// Anything that is neither a rejection nor a malformed reply means the
// signing capability is not usable.
func classify(err error) *SigningError {
	var serr *SigningError
	if errors.As(err, &serr) {
		return serr
	}
	switch {
	case errors.Is(err, ErrUserRejected):
		return &SigningError{Kind: KindUserRejected, Err: err}
	case errors.Is(err, ErrMalformedSignature):
		return &SigningError{Kind: KindMalformedSignature, Err: err}
	default:
		return &SigningError{Kind: KindNoKeyHolder, Err: err}
	}
}
