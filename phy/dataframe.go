package phy

import (
	"crypto/aes"

	"github.com/tinylora/lorawan-mac/crypto"
)

// DataMType distinguishes the four data-frame message types.
type DataMType int

const (
	UnconfirmedUp DataMType = iota
	UnconfirmedDown
	ConfirmedUp
	ConfirmedDown
)

func (t DataMType) toMType() MType {
	switch t {
	case UnconfirmedUp:
		return MTypeUnconfirmedDataUp
	case UnconfirmedDown:
		return MTypeUnconfirmedDataDown
	case ConfirmedUp:
		return MTypeConfirmedDataUp
	default:
		return MTypeConfirmedDataDown
	}
}

// IsUplink reports the frame direction.
func (t DataMType) IsUplink() bool {
	return t == UnconfirmedUp || t == ConfirmedUp
}

// DataFrame is a fully decoded (but not yet payload-decrypted) data
// PHYPayload.
type DataFrame struct {
	MType   DataMType
	FHDR    FHDR
	FPort   *uint8 // nil when absent
	FRMPayload []byte // still encrypted
	MIC     MIC
}

// dirByte returns 0 for uplink, 1 for downlink, as used in both the
// encryption block counter and the MIC's B0 block.
func dirByte(uplink bool) byte {
	if uplink {
		return 0
	}
	return 1
}

// cryptBlocks implements the AES-CTR-like FRMPayload/FOpts cipher
// (§4.1): block Ai = 01 00 00 00 00 | dir | DevAddr(4 LE) | FCnt(4 LE) |
// 00 | i, encrypted with the session key and XORed into the data block
// by block. Encryption is symmetric (encrypt==decrypt), which is why
// this single function serves both directions.
func cryptBlocks(key crypto.Key128, uplink bool, devAddr DevAddr, fcnt uint32, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	copy(out, data)

	var a [16]byte
	a[0] = 0x01
	a[5] = dirByte(uplink)
	copy(a[6:10], devAddr[:])
	a[10] = byte(fcnt)
	a[11] = byte(fcnt >> 8)
	a[12] = byte(fcnt >> 16)
	a[13] = byte(fcnt >> 24)

	var s [16]byte
	nBlocks := (len(out) + 15) / 16
	for i := 1; i <= nBlocks; i++ {
		a[15] = byte(i)
		block.Encrypt(s[:], a[:])

		off := (i - 1) * 16
		end := off + 16
		if end > len(out) {
			end = len(out)
		}
		for j := off; j < end; j++ {
			out[j] ^= s[j-off]
		}
	}
	return out, nil
}

// CryptFRMPayload encrypts or decrypts FRMPayload bytes (symmetric) with
// NwkSKey (FPort==0/absent) or AppSKey (FPort>0), per §4.1.
func CryptFRMPayload(nwkSKey NwkSKey, appSKey AppSKey, fPort *uint8, uplink bool, devAddr DevAddr, fcnt uint32, data []byte) ([]byte, error) {
	var key crypto.Key128
	if fPort == nil || *fPort == 0 {
		key = nwkSKey.toCrypto()
	} else {
		key = appSKey.toCrypto()
	}
	return cryptBlocks(key, uplink, devAddr, fcnt, data)
}

// dataMIC computes CMAC-AES128(NwkSKey, B0 || msg) and truncates to 4
// bytes, per §4.1:
//
//	B0 = 49 00 00 00 00 | dir | DevAddr(4 LE) | FCnt(4 LE) | 00 | len(msg)
func dataMIC(f crypto.Factory, nwkSKey NwkSKey, uplink bool, devAddr DevAddr, fcnt uint32, msg []byte) (MIC, error) {
	var b0 [16]byte
	b0[0] = 0x49
	b0[5] = dirByte(uplink)
	copy(b0[6:10], devAddr[:])
	b0[10] = byte(fcnt)
	b0[11] = byte(fcnt >> 8)
	b0[12] = byte(fcnt >> 16)
	b0[13] = byte(fcnt >> 24)
	b0[15] = byte(len(msg))

	m, err := f.NewMac(nwkSKey.toCrypto())
	if err != nil {
		return MIC{}, err
	}
	if _, err := m.Write(b0[:]); err != nil {
		return MIC{}, err
	}
	if _, err := m.Write(msg); err != nil {
		return MIC{}, err
	}
	sum := m.Sum()
	var mic MIC
	copy(mic[:], sum[:4])
	return mic, nil
}

// BuildDataFrame assembles a complete data PHYPayload: FHDR, optional
// FPort, encrypted FRMPayload, and MIC. fOpts carries MAC commands as
// plaintext FOpts bytes (<=15), placed directly in FHDR.FOpts;
// FRMPayload carries application bytes only: an fPort of 0 with a
// non-empty payload is refused with ErrInvalidPayload, so MAC commands
// built here travel in fOpts.
func BuildDataFrame(f crypto.Factory, nwkSKey NwkSKey, appSKey AppSKey, mtype DataMType, devAddr DevAddr, fcnt uint32, fctrl FCtrl, fPort *uint8, payload []byte, fOpts []byte) ([]byte, error) {
	if fPort != nil && *fPort == 0 && len(payload) > 0 {
		return nil, lwerrInvalidPayload
	}

	fhdr := FHDR{DevAddr: devAddr, FCtrl: fctrl, FCnt: uint16(fcnt), FOpts: fOpts}

	out := make([]byte, 0, 32)
	out = append(out, MHDR{MType: mtype.toMType(), Major: MajorR1}.Marshal())
	out = append(out, fhdr.Marshal()...)

	if fPort != nil {
		out = append(out, *fPort)
	}

	if len(payload) > 0 {
		ct, err := CryptFRMPayload(nwkSKey, appSKey, fPort, mtype.IsUplink(), devAddr, fcnt, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, ct...)
	}

	mic, err := dataMIC(f, nwkSKey, mtype.IsUplink(), devAddr, fcnt, out)
	if err != nil {
		return nil, err
	}
	return append(out, mic[:]...), nil
}

// ParseDataFrame splits a data PHYPayload into its fields without
// decrypting FRMPayload or validating the MIC (the caller does not yet
// know the full 32-bit FCnt needed to do either); see ReassembleFCnt,
// ValidateDataMIC and CryptFRMPayload.
func ParseDataFrame(mtype DataMType, data []byte) (DataFrame, error) {
	if len(data) < 7+4 {
		return DataFrame{}, errShortBuffer
	}

	fhdrLen := FHDRLength(data[4])
	if len(data) < fhdrLen+4 {
		return DataFrame{}, errShortBuffer
	}

	fhdr, err := ParseFHDR(data[:fhdrLen])
	if err != nil {
		return DataFrame{}, err
	}

	df := DataFrame{MType: mtype, FHDR: fhdr}
	copy(df.MIC[:], data[len(data)-4:])

	rest := data[fhdrLen : len(data)-4]
	if len(rest) > 0 {
		port := rest[0]
		df.FPort = &port
		df.FRMPayload = append([]byte(nil), rest[1:]...)
	}
	return df, nil
}

// ReassembleFCnt reconstructs the full 32-bit frame counter from the 16
// wire bits and the caller's last-known value, per §4.1:
// (last_known & 0xffff0000) | wire_low16. There is no carry into the
// high word: a wire value below last_known's low 16 bits reconstructs
// to a value below last_known.
func ReassembleFCnt(lastKnown uint32, wireLow16 uint16) uint32 {
	return (lastKnown & 0xFFFF0000) | uint32(wireLow16)
}

// ValidateDataMIC recomputes the data-frame MIC and compares it to the
// wire value. raw is the full frame including MHDR and MIC.
func ValidateDataMIC(f crypto.Factory, nwkSKey NwkSKey, uplink bool, devAddr DevAddr, fcnt uint32, raw []byte) (bool, error) {
	if len(raw) < 4 {
		return false, errShortBuffer
	}
	msg := raw[:len(raw)-4]
	mic, err := dataMIC(f, nwkSKey, uplink, devAddr, fcnt, msg)
	if err != nil {
		return false, err
	}
	var wire MIC
	copy(wire[:], raw[len(raw)-4:])
	return mic == wire, nil
}

var lwerrInvalidPayload = ErrInvalidPayload
