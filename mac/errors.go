package mac

import "github.com/tinylora/lorawan-mac/lwerr"

// ErrReplay is returned by AcceptDownlinkFCnt when the reassembled FCnt
// is not strictly greater than the last accepted downlink FCnt.
var ErrReplay error = lwerr.ReplayedFrameCounter

// ErrSessionExpired is returned once a frame counter would overflow
// past its 32-bit range: per §9's Open Questions resolution, this
// mandates a fresh join rather than any wraparound behavior.
var ErrSessionExpired error = lwerr.SessionExpired

// ErrDutyCycleExceeded is the error a send fails with when the duty-cycle
// check (DutyCycleTracker.Allow, which itself returns a bool) reports
// that transmitting would push the rolling airtime ratio past the budget
// the network last configured via DutyCycleReq.
var ErrDutyCycleExceeded error = lwerr.DutyCycleExceeded

var errCodingRate error = lwerr.InvalidPayload
