package phy

import "github.com/tinylora/lorawan-mac/lwerr"

var (
	errInvalidMIC  error = lwerr.InvalidMIC
	errUnsupported error = lwerr.UnsupportedMajorVersion
)

// ErrInvalidPayload is returned by Parse when the frame is too short or
// otherwise malformed.
var ErrInvalidPayload error = lwerr.InvalidPayload

// ErrInvalidMessageType is returned by Parse for an MType this stack
// does not know how to dispatch (RFU variants, unassigned codes).
var ErrInvalidMessageType error = lwerr.InvalidMessageType

// ErrUnsupportedMajorVersion is returned by Parse when Major != R1.
var ErrUnsupportedMajorVersion = errUnsupported

// ErrInvalidMIC is returned when a MIC fails validation.
var ErrInvalidMIC = errInvalidMIC
