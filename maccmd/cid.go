// Package maccmd implements the MAC command wire codec of §4.3: the
// fixed-length-per-(CID,direction) Req/Ans payloads exchanged between
// device and network server, piggybacked in FOpts or carried in
// FRMPayload with FPort 0.
package maccmd

// CID identifies a MAC command. Req and Ans share the same CID value;
// direction disambiguates which payload shape applies.
type CID byte

// Command identifiers from the table in §4.3.
const (
	LinkCheck     CID = 0x02
	LinkADR       CID = 0x03
	DutyCycle     CID = 0x04
	RXParamSetup  CID = 0x05
	DevStatus     CID = 0x06
	NewChannel    CID = 0x07
	RXTimingSetup CID = 0x08
	TXParamSetup  CID = 0x09
	DLChannel     CID = 0x0A
	DeviceTime    CID = 0x0D
)

func (c CID) String() string {
	switch c {
	case LinkCheck:
		return "LinkCheck"
	case LinkADR:
		return "LinkADR"
	case DutyCycle:
		return "DutyCycle"
	case RXParamSetup:
		return "RXParamSetup"
	case DevStatus:
		return "DevStatus"
	case NewChannel:
		return "NewChannel"
	case RXTimingSetup:
		return "RXTimingSetup"
	case TXParamSetup:
		return "TXParamSetup"
	case DLChannel:
		return "DLChannel"
	case DeviceTime:
		return "DeviceTime"
	default:
		return "Unknown"
	}
}

// reqPayloadLen gives the length, in bytes, of a downlink-carried
// command payload for the given CID (excluding the CID byte itself).
// Most commands here are *Req (server-initiated); LinkCheck and
// DeviceTime are the two exceptions where the downlink-carried payload
// is actually the *Ans (device-initiated Req carries no payload and
// travels uplink instead — see ansPayloadLen). Commands with a 0-byte
// downlink payload are omitted.
var reqPayloadLen = map[CID]int{
	LinkCheck:     2, // LinkCheckAns: Margin, GwCnt
	LinkADR:       4,
	DutyCycle:     1,
	RXParamSetup:  4,
	NewChannel:    5,
	RXTimingSetup: 1,
	TXParamSetup:  1,
	DLChannel:     4,
	DeviceTime:    5, // DeviceTimeAns: Seconds, FracSecond
}

// ansPayloadLen gives the length of an uplink-carried command payload
// for the given CID. Most are *Ans (device-initiated response);
// LinkCheck and DeviceTime are device-initiated *Req with no payload
// and so are omitted here (0-length), matching their uplink wire form.
var ansPayloadLen = map[CID]int{
	LinkADR:      1,
	RXParamSetup: 1,
	DevStatus:    2,
	NewChannel:   1,
	DLChannel:    1,
}
