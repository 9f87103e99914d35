package phy

import (
	"crypto/aes"

	"github.com/tinylora/lorawan-mac/crypto"
)

// DLSettings packs RX1DROffset(3 bits) and RX2DataRate(4 bits) as
// carried in JoinAccept and in RXParamSetupReq.
type DLSettings struct {
	RX1DROffset uint8 // 0-7
	RX2DataRate uint8 // 0-15
}

func (s DLSettings) marshal() byte {
	return (s.RX1DROffset << 4) | (s.RX2DataRate & 0x0F)
}

func parseDLSettings(b byte) DLSettings {
	return DLSettings{
		RX1DROffset: (b >> 4) & 0x07,
		RX2DataRate: b & 0x0F,
	}
}

// CFListType distinguishes the two optional CFList encodings.
type CFListType uint8

const (
	CFListNone CFListType = iota
	CFListDynamicChannel
	CFListFixedChannel
)

// CFList carries either 5 extra channel frequencies (dynamic regions)
// or a 9-byte fixed-region channel mask, selected by its trailing type
// byte. Any type byte other than 0 or 1 means "absent" per §4.1.
type CFList struct {
	Type       CFListType
	Freqs      [5]uint32  // Hz, dynamic-channel encoding
	ChannelMask [9]byte   // fixed-channel encoding
}

func parseCFList(data []byte) CFList {
	if len(data) != 16 {
		return CFList{}
	}
	switch data[15] {
	case 0:
		var cf CFList
		cf.Type = CFListDynamicChannel
		for i := 0; i < 5; i++ {
			cf.Freqs[i] = getLE24(data[i*3:i*3+3]) * 100
		}
		return cf
	case 1:
		var cf CFList
		cf.Type = CFListFixedChannel
		copy(cf.ChannelMask[:], data[0:9])
		return cf
	default:
		return CFList{Type: CFListNone}
	}
}

func (cf CFList) marshal() []byte {
	out := make([]byte, 16)
	switch cf.Type {
	case CFListDynamicChannel:
		for i := 0; i < 5; i++ {
			putLE24(out[i*3:i*3+3], cf.Freqs[i]/100)
		}
		out[15] = 0
	case CFListFixedChannel:
		copy(out, cf.ChannelMask[:])
		out[15] = 1
	}
	return out
}

// JoinAcceptPayload is the decrypted JoinAccept MACPayload.
type JoinAcceptPayload struct {
	AppNonce   AppNonce
	NetId      NetId
	DevAddr    DevAddr
	DLSettings DLSettings
	RxDelay    uint8
	CFList     CFList // Type == CFListNone when absent
}

func (p JoinAcceptPayload) marshalPlaintext(withCFList bool) []byte {
	out := make([]byte, 0, 28)
	out = append(out, p.AppNonce[:]...)
	out = append(out, p.NetId[:]...)
	out = append(out, p.DevAddr[:]...)
	out = append(out, p.DLSettings.marshal())
	out = append(out, p.RxDelay)
	if withCFList {
		out = append(out, p.CFList.marshal()...)
	}
	return out
}

// BuildJoinAccept is provided for join-server-side testing/simulation
// (the device itself only ever parses a JoinAccept, never builds one);
// it encrypts and MICs a JoinAccept the way a network/join server would.
func BuildJoinAccept(f crypto.Factory, appKey AppKey, p JoinAcceptPayload, withCFList bool) ([]byte, error) {
	mhdr := MHDR{MType: MTypeJoinAccept, Major: MajorR1}.Marshal()

	plain := p.marshalPlaintext(withCFList)
	micInput := append([]byte{mhdr}, plain...)
	mic, err := crypto.MIC4(f, appKey.toCrypto(), micInput)
	if err != nil {
		return nil, err
	}

	pt := append(plain, mic[:]...)
	if len(pt)%16 != 0 {
		return nil, errShortBuffer
	}

	block, err := aes.NewCipher(appKey[:])
	if err != nil {
		return nil, err
	}
	ct := make([]byte, len(pt))
	for i := 0; i < len(pt)/16; i++ {
		off := i * 16
		// the server encrypts by ECB-*decrypting* the plaintext, so that
		// the device recovers it with an ECB-*encrypt* (see ParseJoinAccept).
		block.Decrypt(ct[off:off+16], pt[off:off+16])
	}

	return append([]byte{mhdr}, ct...), nil
}

// ParseJoinAccept decrypts and parses an encrypted JoinAccept PHYPayload
// (MHDR already stripped, i.e. data is the 16 or 32 encrypted bytes),
// validates its MIC, and returns the plaintext payload.
//
// Decryption contract (§4.1): the server encrypted the plaintext bytes
// by AES-ECB *decrypting* them with AppKey; the device therefore
// recovers the plaintext by AES-ECB *encrypting* those bytes with
// AppKey, one 16-byte block at a time.
func ParseJoinAccept(f crypto.Factory, appKey AppKey, mhdrByte byte, encrypted []byte) (JoinAcceptPayload, error) {
	if len(encrypted) != 16 && len(encrypted) != 32 {
		return JoinAcceptPayload{}, errShortBuffer
	}

	block, err := aes.NewCipher(appKey[:])
	if err != nil {
		return JoinAcceptPayload{}, err
	}

	pt := make([]byte, len(encrypted))
	for i := 0; i < len(pt)/16; i++ {
		off := i * 16
		block.Encrypt(pt[off:off+16], encrypted[off:off+16])
	}

	withCFList := len(pt) == 32
	payloadLen := len(pt) - 4
	plain := pt[:payloadLen]
	var wireMIC MIC
	copy(wireMIC[:], pt[payloadLen:])

	micInput := append([]byte{mhdrByte}, plain...)
	mic, err := crypto.MIC4(f, appKey.toCrypto(), micInput)
	if err != nil {
		return JoinAcceptPayload{}, err
	}
	if mic != wireMIC {
		return JoinAcceptPayload{}, errInvalidMIC
	}

	var p JoinAcceptPayload
	copy(p.AppNonce[:], plain[0:3])
	copy(p.NetId[:], plain[3:6])
	copy(p.DevAddr[:], plain[6:10])
	p.DLSettings = parseDLSettings(plain[10])
	p.RxDelay = plain[11]
	if withCFList {
		p.CFList = parseCFList(plain[12:28])
	}
	return p, nil
}
