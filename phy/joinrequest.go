package phy

import "github.com/tinylora/lorawan-mac/crypto"

// JoinRequestPayload is the JoinRequest MACPayload: AppEUI(8) || DevEUI(8)
// || DevNonce(2), all little-endian, as transmitted on the wire.
type JoinRequestPayload struct {
	AppEUI   EUI64
	DevEUI   EUI64
	DevNonce DevNonce
}

// Marshal encodes the JoinRequest MACPayload (18 bytes, without MHDR/MIC).
func (p JoinRequestPayload) Marshal() []byte {
	out := make([]byte, 0, 18)
	out = append(out, p.AppEUI[:]...)
	out = append(out, p.DevEUI[:]...)
	out = append(out, p.DevNonce[:]...)
	return out
}

// ParseJoinRequestPayload decodes an 18-byte JoinRequest MACPayload.
func ParseJoinRequestPayload(data []byte) (JoinRequestPayload, error) {
	if len(data) != 18 {
		return JoinRequestPayload{}, errShortBuffer
	}
	var p JoinRequestPayload
	copy(p.AppEUI[:], data[0:8])
	copy(p.DevEUI[:], data[8:16])
	copy(p.DevNonce[:], data[16:18])
	return p, nil
}

// BuildJoinRequest assembles a complete 23-byte JoinRequest PHYPayload
// and computes its MIC. MIC = CMAC-AES128(AppKey, bytes[0..len-4]).
func BuildJoinRequest(f crypto.Factory, appKey AppKey, p JoinRequestPayload) ([]byte, error) {
	out := make([]byte, 0, 23)
	out = append(out, MHDR{MType: MTypeJoinRequest, Major: MajorR1}.Marshal())
	out = append(out, p.Marshal()...)

	mic, err := crypto.MIC4(f, appKey.toCrypto(), out)
	if err != nil {
		return nil, err
	}
	return append(out, mic[:]...), nil
}

// ValidateJoinRequestMIC recomputes and checks the MIC of a parsed
// JoinRequest against the raw frame bytes.
func ValidateJoinRequestMIC(f crypto.Factory, appKey AppKey, raw []byte) (bool, error) {
	if len(raw) != 23 {
		return false, errShortBuffer
	}
	mic, err := crypto.MIC4(f, appKey.toCrypto(), raw[:len(raw)-4])
	if err != nil {
		return false, err
	}
	return mic[0] == raw[19] && mic[1] == raw[20] && mic[2] == raw[21] && mic[3] == raw[22], nil
}
