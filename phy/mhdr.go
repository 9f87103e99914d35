package phy

// MType is the message type carried in the high 3 bits of MHDR.
type MType byte

// Supported message types.
const (
	MTypeJoinRequest MType = iota
	MTypeJoinAccept
	MTypeUnconfirmedDataUp
	MTypeUnconfirmedDataDown
	MTypeConfirmedDataUp
	MTypeConfirmedDataDown
	MTypeRFU
	MTypeProprietary
)

func (m MType) String() string {
	switch m {
	case MTypeJoinRequest:
		return "JoinRequest"
	case MTypeJoinAccept:
		return "JoinAccept"
	case MTypeUnconfirmedDataUp:
		return "UnconfirmedDataUp"
	case MTypeUnconfirmedDataDown:
		return "UnconfirmedDataDown"
	case MTypeConfirmedDataUp:
		return "ConfirmedDataUp"
	case MTypeConfirmedDataDown:
		return "ConfirmedDataDown"
	case MTypeProprietary:
		return "Proprietary"
	default:
		return "RFU"
	}
}

// IsUplink reports whether the MType is sent device-to-server.
func (m MType) IsUplink() bool {
	switch m {
	case MTypeJoinRequest, MTypeUnconfirmedDataUp, MTypeConfirmedDataUp:
		return true
	default:
		return false
	}
}

// Major is the major protocol version carried in the low 2 bits of MHDR.
type Major byte

// MajorR1 is the only major version this stack supports.
const MajorR1 Major = 0

// MHDR is the 1-byte MAC header present on every PHYPayload.
type MHDR struct {
	MType MType
	Major Major
}

// Marshal encodes the MHDR to its single wire byte.
func (h MHDR) Marshal() byte {
	return byte(h.Major) | (byte(h.MType) << 5)
}

// ParseMHDR decodes the MHDR from its single wire byte.
func ParseMHDR(b byte) MHDR {
	return MHDR{
		Major: Major(b & 0x03),
		MType: MType((b & 0xE0) >> 5),
	}
}
