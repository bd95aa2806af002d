package core

import "errors"

// Expected failure modes. Everything wrapping one of these maps to a
// 400-class response at the HTTP layer; provider-level failures never
// surface at all, they only advance the resolution chain.
var (
	// ErrInvalidInput marks a malformed video URL or identifier (client fault).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoStreamAvailable marks an exhausted resolution chain: no provider
	// yielded an acceptable audio stream.
	ErrNoStreamAvailable = errors.New("no audio stream available")

	// ErrUpstreamMetadata marks a failure of the optional metadata provider.
	ErrUpstreamMetadata = errors.New("upstream metadata unavailable")
)
