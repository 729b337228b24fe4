package domain

import "errors"

// ErrDecode is returned when the transport encoding of a mesh payload is malformed.
var ErrDecode = errors.New("decode error")

// ErrMalformedMesh is returned when a binary mesh is truncated or its header is corrupt.
var ErrMalformedMesh = errors.New("malformed mesh")

// ErrDegenerateGeometry is returned when the mesh bounds or settings cannot produce a toolpath.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// ErrEngineBusy is returned when a conversion is requested while another run is in flight.
var ErrEngineBusy = errors.New("engine busy")

// ErrCancelled is returned when the host aborts a run before it finishes.
var ErrCancelled = errors.New("cancelled")

// ErrInvalidSettings is returned when print settings are out of range.
var ErrInvalidSettings = errors.New("invalid settings")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrProfileNotFound is returned when a named print profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// Kind returns the sentinel that classifies err, or nil if err is not a known kind.
func Kind(err error) error {
	for _, kind := range []error{
		ErrCancelled,
		ErrEngineBusy,
		ErrDecode,
		ErrMalformedMesh,
		ErrDegenerateGeometry,
		ErrInvalidSettings,
		ErrRunNotFound,
		ErrProfileNotFound,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
