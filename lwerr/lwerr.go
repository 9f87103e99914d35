// Package lwerr defines the shared error-kind taxonomy used across the
// stack, per the error handling design: errors are kinds, not ad-hoc
// types, so they can be compared and switched on without allocation.
package lwerr

// Kind identifies a category of failure. It implements the error
// interface directly so call sites can return a Kind value with no
// wrapping allocation on the hot path.
type Kind int

const (
	// Parse/format errors.
	InvalidPayload Kind = iota
	InvalidMessageType
	UnsupportedMajorVersion
	InvalidMIC
	InvalidKey
	BufferTooShort
	PayloadSizeExceeded
	InvalidDataRate
	InvalidDevAddr

	// State-machine misuse.
	SendDataWhileWaitingForRx
	SendDataWhileNoSession
	RadioEventWhileIdle
	JoinWhileJoining
	UnexpectedEvent

	// Region/parameter errors.
	InvalidBandwidthForFrequency
	InvalidOutputPower
	InvalidChannelList
	NoValidChannelFound
	DataRateNotSupported

	// Radio/transport passthrough.
	RadioError

	// Session lifecycle.
	SessionExpired
	ReplayedFrameCounter

	// Duty-cycle enforcement.
	DutyCycleExceeded
)

var names = [...]string{
	InvalidPayload:                "invalid payload",
	InvalidMessageType:            "invalid message type",
	UnsupportedMajorVersion:       "unsupported major version",
	InvalidMIC:                    "invalid MIC",
	InvalidKey:                    "invalid key",
	BufferTooShort:                "buffer too short",
	PayloadSizeExceeded:           "payload size exceeded",
	InvalidDataRate:               "invalid data rate",
	InvalidDevAddr:                "invalid DevAddr",
	SendDataWhileWaitingForRx:     "send data requested while waiting for RX",
	SendDataWhileNoSession:        "send data requested without a session",
	RadioEventWhileIdle:           "radio event received while idle",
	JoinWhileJoining:              "join requested while already joining",
	UnexpectedEvent:               "unexpected event for current state",
	InvalidBandwidthForFrequency:  "invalid bandwidth for frequency",
	InvalidOutputPower:            "invalid output power",
	InvalidChannelList:            "invalid channel list",
	NoValidChannelFound:           "no valid channel found",
	DataRateNotSupported:          "data rate not supported by enabled channels",
	RadioError:                    "radio error",
	SessionExpired:                "session expired",
	ReplayedFrameCounter:          "replayed or stale frame counter",
	DutyCycleExceeded:             "transmission would exceed the duty-cycle budget",
}

// Error implements the error interface.
func (k Kind) Error() string {
	if int(k) < 0 || int(k) >= len(names) || names[k] == "" {
		return "lwerr: unknown error kind"
	}
	return names[k]
}

// Wrapped pairs a Kind with the inner radio/transport error it
// passes through, per the "Radio/Transport" propagation policy.
type Wrapped struct {
	Kind Kind
	Err  error
}

func (w *Wrapped) Error() string {
	if w.Err == nil {
		return w.Kind.Error()
	}
	return w.Kind.Error() + ": " + w.Err.Error()
}

func (w *Wrapped) Unwrap() error { return w.Err }

// WrapRadio wraps an external radio-driver error as a RadioError kind.
func WrapRadio(err error) error {
	if err == nil {
		return nil
	}
	return &Wrapped{Kind: RadioError, Err: err}
}
