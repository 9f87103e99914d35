package phy

import "errors"

// FCtrl is the bit-packed frame-control byte. Bit 6 and bit 4 are
// interpreted differently depending on direction (ADRACKReq / ClassB are
// uplink-only meanings of the same bits that mean RFU / FPending on
// downlink) — per the design note, direction is carried as a value
// alongside the byte rather than as a separate FCtrl type, since the
// same 8 bits are read two ways depending on who is asking.
type FCtrl byte

const (
	fctrlADR      = 1 << 7
	fctrlBit6     = 1 << 6 // ADRACKReq (uplink) / RFU (downlink)
	fctrlACK      = 1 << 5
	fctrlBit4     = 1 << 4 // ClassB (uplink) / FPending (downlink)
	fctrlOptsMask = 0x0F
)

// NewFCtrl builds an FCtrl byte. fOptsLen must be <= 15.
func NewFCtrl(adr, bit6, ack, bit4 bool, fOptsLen uint8) (FCtrl, error) {
	if fOptsLen > 15 {
		return 0, errors.New("phy: fOptsLen must be <= 15")
	}
	var c FCtrl
	if adr {
		c |= fctrlADR
	}
	if bit6 {
		c |= fctrlBit6
	}
	if ack {
		c |= fctrlACK
	}
	if bit4 {
		c |= fctrlBit4
	}
	return c | FCtrl(fOptsLen), nil
}

// ADR reports the adaptive data-rate control bit.
func (c FCtrl) ADR() bool { return c&fctrlADR != 0 }

// ADRACKReq reports the uplink-only ADR-ack-request meaning of bit 6.
func (c FCtrl) ADRACKReq() bool { return c&fctrlBit6 != 0 }

// ACK reports the acknowledgment bit.
func (c FCtrl) ACK() bool { return c&fctrlACK != 0 }

// ClassB reports the uplink-only meaning of bit 4.
func (c FCtrl) ClassB() bool { return c&fctrlBit4 != 0 }

// FPending reports the downlink-only meaning of bit 4: the network has
// more data queued for this device.
func (c FCtrl) FPending() bool { return c&fctrlBit4 != 0 }

// FOptsLen returns the number of FOpts bytes (0-15) carried in the FHDR.
func (c FCtrl) FOptsLen() uint8 { return uint8(c) & fctrlOptsMask }

// FHDR is the frame header: DevAddr || FCtrl || FCnt(2 LSB) || FOpts.
type FHDR struct {
	DevAddr DevAddr
	FCtrl   FCtrl
	FCnt    uint16 // low 16 bits of the full 32-bit counter
	FOpts   []byte // 0-15 bytes, piggybacked MAC commands
}

// FHDRLength returns 7 + FOptsLen(), i.e. fhdr_length(fctrl) from §4.1.
func FHDRLength(fctrl byte) int {
	return 7 + int(fctrl&fctrlOptsMask)
}

// Marshal encodes the FHDR. DevAddr is little-endian on the wire.
func (h FHDR) Marshal() []byte {
	out := make([]byte, 0, 7+len(h.FOpts))
	out = append(out, h.DevAddr[0], h.DevAddr[1], h.DevAddr[2], h.DevAddr[3])
	out = append(out, byte(h.FCtrl))
	out = append(out, byte(h.FCnt), byte(h.FCnt>>8))
	out = append(out, h.FOpts...)
	return out
}

// ParseFHDR decodes an FHDR from data, which must be at least
// FHDRLength(data[4]) bytes.
func ParseFHDR(data []byte) (FHDR, error) {
	if len(data) < 7 {
		return FHDR{}, errShortBuffer
	}
	var h FHDR
	copy(h.DevAddr[:], data[0:4])
	h.FCtrl = FCtrl(data[4])
	h.FCnt = uint16(data[5]) | uint16(data[6])<<8

	n := int(h.FCtrl.FOptsLen())
	if len(data) < 7+n {
		return FHDR{}, errShortBuffer
	}
	if n > 0 {
		h.FOpts = make([]byte, n)
		copy(h.FOpts, data[7:7+n])
	}
	return h, nil
}
