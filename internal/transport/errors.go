package transport

import "errors"

var (
	// ErrConnectivity marks control-channel failures where the server never
	// produced a response: dial failures, resets, and the start timeout.
	ErrConnectivity = errors.New("interview server unreachable")

	// ErrServerRejected marks non-success responses that did come back from
	// the server. Distinguishable from connectivity failures in logs.
	ErrServerRejected = errors.New("interview server rejected request")

	// ErrStreamClosed is returned when writing to a streaming channel that
	// has already been closed, locally or by the peer.
	ErrStreamClosed = errors.New("streaming channel closed")
)
