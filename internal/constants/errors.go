package constants

import "errors"

// Token storage errors.
var (
	ErrMalformedToken   = errors.New("stored token is malformed")
	ErrNATSConnRequired = errors.New("NATS connection is required")
	ErrNoTokenSource    = errors.New("no token source configured")
)
