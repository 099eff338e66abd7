package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken covers every token failure other than expiry: bad
	// signature, unexpected algorithm, malformed payload or missing subject.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrBadCredentials is returned by Login for an unknown user or a wrong password.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrUnauthorized is the root of every Gate rejection.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInactiveUser marks a valid token whose user is disabled.
	ErrInactiveUser = fmt.Errorf("%w: inactive user", ErrUnauthorized)
)
