package phy

import (
	"crypto/aes"
)

// DeriveSessionKeys computes NwkSKey and AppSKey from a successful join,
// per §4.1:
//
//	NwkSKey = AES128-ECB-encrypt(AppKey, 0x01 || AppNonce || NetId || DevNonce || pad16)
//	AppSKey = AES128-ECB-encrypt(AppKey, 0x02 || AppNonce || NetId || DevNonce || pad16)
//
// AppNonce/NetId/DevNonce are placed in the block in their raw wire
// (little-endian) byte order; the remainder of the 16-byte block is
// zero padding.
func DeriveSessionKeys(appKey AppKey, appNonce AppNonce, netID NetId, devNonce DevNonce) (NwkSKey, AppSKey, error) {
	block, err := aes.NewCipher(appKey[:])
	if err != nil {
		return NwkSKey{}, AppSKey{}, err
	}

	build := func(prefix byte) [16]byte {
		var b [16]byte
		b[0] = prefix
		copy(b[1:4], appNonce[:])
		copy(b[4:7], netID[:])
		copy(b[7:9], devNonce[:])
		return b
	}

	var nwk NwkSKey
	in := build(0x01)
	block.Encrypt(nwk[:], in[:])

	var app AppSKey
	in = build(0x02)
	block.Encrypt(app[:], in[:])

	return nwk, app, nil
}
