package maccmd

import "github.com/tinylora/lorawan-mac/lwerr"

// ErrPayloadLength is returned by the ParseXxxPayload helpers when
// handed a buffer of the wrong length for that command.
var ErrPayloadLength error = lwerr.InvalidPayload
