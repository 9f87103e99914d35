package phy

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinylora/lorawan-mac/crypto"
)

func hexKey(s string) (k [16]byte) {
	b, _ := hex.DecodeString(s)
	copy(k[:], b)
	return
}

func hexBytes(s string) []byte {
	b, _ := hex.DecodeString(s)
	return b
}

// S1 — Parse JoinRequest.
func TestParseJoinRequest(t *testing.T) {
	raw := hexBytes("00" + "0403020104030201" + "0504030205040302" + "2d10" + "6a990e12")
	p, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, MTypeJoinRequest, p.MHDR.MType)
	require.NotNil(t, p.JoinRequest)
	require.Equal(t, EUI64(hexKey8("0403020104030201")), p.JoinRequest.AppEUI)
	require.Equal(t, EUI64(hexKey8("0504030205040302")), p.JoinRequest.DevEUI)
	require.Equal(t, DevNonce{0x2d, 0x10}, p.JoinRequest.DevNonce)

	var appKey AppKey
	for i := range appKey {
		appKey[i] = 0x01
	}
	ok, err := ValidateJoinRequestMIC(crypto.SoftwareFactory{}, appKey, raw)
	require.NoError(t, err)
	require.True(t, ok)
}

func hexKey8(s string) (k [8]byte) {
	b, _ := hex.DecodeString(s)
	copy(k[:], b)
	return
}

// S2 — Decrypt and derive session keys from JoinAccept.
func TestJoinAcceptDecryptAndDeriveKeys(t *testing.T) {
	raw := hexBytes("20" + "493eeb51" + "fba2116f" + "810edb37" + "42975142")
	p, err := Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, p.EncryptedJoinAccept)

	appKey := AppKey(hexKey("00112233445566778899aabbccddeeff"))
	jap, err := ParseJoinAccept(crypto.SoftwareFactory{}, appKey, raw[0], p.EncryptedJoinAccept)
	require.NoError(t, err)

	devNonce := DevNonce{0x2d, 0x10}
	nwk, app, err := DeriveSessionKeys(appKey, jap.AppNonce, jap.NetId, devNonce)
	require.NoError(t, err)
	require.Equal(t, NwkSKey(hexKey("7bb25f89e0d1371e1fbf4d997e1468a3")), nwk)
	require.Equal(t, AppSKey(hexKey("148820dfb1e0c9d6289cde16c1af249f")), app)
}

// S3 — Encrypted data uplink build.
func TestBuildDataUplink(t *testing.T) {
	var nwkSKey NwkSKey
	var appSKey AppSKey
	for i := range nwkSKey {
		nwkSKey[i] = 0x02
		appSKey[i] = 0x01
	}
	devAddr := DevAddr{0x04, 0x03, 0x02, 0x01}
	fctrl := FCtrl(0x80)
	port := uint8(1)

	out, err := BuildDataFrame(crypto.SoftwareFactory{}, nwkSKey, appSKey, UnconfirmedUp, devAddr, 1, fctrl, &port, []byte("hello"), nil)
	require.NoError(t, err)

	expected := hexBytes("40" + "04030201" + "80" + "0100" + "01" + "a694642615" + "d6c3b582")
	require.Equal(t, expected, out)
}

// S4 — Encrypted data uplink parse.
func TestParseDataUplinkAndDecrypt(t *testing.T) {
	var nwkSKey NwkSKey
	var appSKey AppSKey
	for i := range nwkSKey {
		nwkSKey[i] = 0x02
		appSKey[i] = 0x01
	}
	devAddr := DevAddr{0x04, 0x03, 0x02, 0x01}

	raw := hexBytes("40" + "04030201" + "80" + "0100" + "01" + "a694642615" + "d6c3b582")
	p, err := Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, p.Data)
	require.Equal(t, devAddr, p.Data.FHDR.DevAddr)
	require.Equal(t, uint16(1), p.Data.FHDR.FCnt)

	fcnt := ReassembleFCnt(0, p.Data.FHDR.FCnt)
	ok, err := ValidateDataMIC(crypto.SoftwareFactory{}, nwkSKey, true, devAddr, fcnt, raw)
	require.NoError(t, err)
	require.True(t, ok)

	pt, err := CryptFRMPayload(nwkSKey, appSKey, p.Data.FPort, true, devAddr, fcnt, p.Data.FRMPayload)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pt)
}

// Property 1: parse/build round-trip for arbitrary payloads.
func TestRoundTripProperty(t *testing.T) {
	var nwkSKey NwkSKey
	var appSKey AppSKey
	for i := range nwkSKey {
		nwkSKey[i] = byte(i)
		appSKey[i] = byte(i + 1)
	}
	devAddr := DevAddr{0xAA, 0xBB, 0xCC, 0xDD}
	port := uint8(5)

	payloads := [][]byte{
		{},
		[]byte("a"),
		[]byte("this is a slightly longer payload that spans blocks!!"),
	}

	for _, pt := range payloads {
		for fcnt := uint32(0); fcnt < 3; fcnt++ {
			raw, err := BuildDataFrame(crypto.SoftwareFactory{}, nwkSKey, appSKey, ConfirmedUp, devAddr, fcnt, 0, &port, pt, nil)
			require.NoError(t, err)

			parsed, err := Parse(raw)
			require.NoError(t, err)
			require.NotNil(t, parsed.Data)

			ok, err := ValidateDataMIC(crypto.SoftwareFactory{}, nwkSKey, true, devAddr, fcnt, raw)
			require.NoError(t, err)
			require.True(t, ok)

			got, err := CryptFRMPayload(nwkSKey, appSKey, parsed.Data.FPort, true, devAddr, fcnt, parsed.Data.FRMPayload)
			require.NoError(t, err)
			if len(pt) == 0 {
				require.Empty(t, got)
			} else {
				require.Equal(t, pt, got)
			}
		}
	}
}

// Property 3 groundwork: FCnt reassembly picks the low 16 bits onto the
// last-known high bits.
func TestReassembleFCnt(t *testing.T) {
	require.Equal(t, uint32(0x0001FFFF), ReassembleFCnt(0x0001FFFE, 0xFFFF))
	require.Equal(t, uint32(0x00010000), ReassembleFCnt(0x0001FFFF, 0x0000))
}
