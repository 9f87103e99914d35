package phy

import "crypto/aes"

// McRootKey, McKEKey, McAppSKey and McNetSKey derivation. Multicast is
// noted only at this interface boundary per the Non-goals in §1: this
// stack derives the key material a multicast group would need but does
// not implement multicast group session management, FPending/ping-slot
// scheduling, or the remote multicast-setup wire protocol.
func deriveKey(key AppKey, b [16]byte) (AppKey, error) {
	var out AppKey
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return out, err
	}
	block.Encrypt(out[:], b[:])
	return out, nil
}

// DeriveMcRootKeyFromGenAppKey derives McRootKey for a LoRaWAN 1.0.x
// device from its GenAppKey.
func DeriveMcRootKeyFromGenAppKey(genAppKey AppKey) (AppKey, error) {
	return deriveKey(genAppKey, [16]byte{})
}

// DeriveMcKEKey derives the key-encryption key used to wrap multicast
// group session keys for over-the-air distribution.
func DeriveMcKEKey(mcRootKey AppKey) (AppKey, error) {
	return deriveKey(mcRootKey, [16]byte{})
}

// DeriveMcAppSKey derives a multicast group's application session key
// from its McKey and multicast group address.
func DeriveMcAppSKey(mcKey AppKey, mcAddr DevAddr) (AppSKey, error) {
	var b [16]byte
	b[0] = 0x01
	copy(b[1:5], mcAddr[:])
	k, err := deriveKey(mcKey, b)
	return AppSKey(k), err
}

// DeriveMcNetSKey derives a multicast group's network session key from
// its McKey and multicast group address.
func DeriveMcNetSKey(mcKey AppKey, mcAddr DevAddr) (NwkSKey, error) {
	var b [16]byte
	b[0] = 0x02
	copy(b[1:5], mcAddr[:])
	k, err := deriveKey(mcKey, b)
	return NwkSKey(k), err
}
