// Package phy implements the bit-exact LoRaWAN PHY payload codec: MHDR/
// FHDR framing, JoinRequest/JoinAccept build and parse, MIC computation,
// FRMPayload/FOpts encryption, frame-counter reassembly and session-key
// derivation (§4.1, §4.2). It is a leaf package: straight-line code with
// no suspension points.
package phy

import (
	"encoding/hex"
	"errors"

	"github.com/tinylora/lorawan-mac/crypto"
)

// AppKey is the OTAA root secret shared between device and join server.
// Role typing against NwkSKey/AppSKey is a compile-time guard against
// key misuse: the compiler will not let an AppKey be passed where a
// session key is expected.
type AppKey [16]byte

// NwkSKey is the network session key derived on a successful join.
type NwkSKey [16]byte

// AppSKey is the application session key derived on a successful join.
type AppSKey [16]byte

func (k AppKey) toCrypto() crypto.Key128  { return crypto.Key128(k) }
func (k NwkSKey) toCrypto() crypto.Key128 { return crypto.Key128(k) }
func (k AppSKey) toCrypto() crypto.Key128 { return crypto.Key128(k) }

// String implements fmt.Stringer for log lines; keys never print their
// own bytes, only a fixed placeholder.
func (k AppKey) String() string { return "AppKey(16 bytes, redacted)" }

// EUI64 is an 8-byte IEEE EUI-64 identifier, used for both DevEUI and
// AppEUI/JoinEUI. It is carried little-endian on the wire.
type EUI64 [8]byte

func (e EUI64) String() string { return hex.EncodeToString(e[:]) }

// DevAddr is the 4-byte device address assigned at join time.
type DevAddr [4]byte

// NwkID returns the top 7 bits of the first DevAddr byte.
func (a DevAddr) NwkID() uint8 {
	return a[0] >> 1
}

// AppNonce is the 3-byte server nonce carried in JoinAccept.
type AppNonce [3]byte

// DevNonce is the 2-byte device nonce carried in JoinRequest.
type DevNonce [2]byte

// NetId is the 3-byte network identifier.
type NetId [3]byte

// MIC is the 4-byte message integrity code appended to every PHYPayload.
type MIC [4]byte

// putLE24 writes the low 24 bits of v into b (used for Frequency fields,
// which the wire carries as freq_hz/100 in 3 little-endian bytes).
func putLE24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func getLE24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

var errShortBuffer = errors.New("phy: buffer too short")
