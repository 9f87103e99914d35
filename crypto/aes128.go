package crypto

import "crypto/aes"

// aesBlockCipher adapts the stdlib crypto/aes cipher.Block to the
// BlockCipher capability. brocaar/lorawan uses crypto/aes directly in
// its PHYPayload codec (EncryptJoinAcceptPayload, EncryptFRMPayload);
// this keeps the same choice for the software path.
type aesBlockCipher struct {
	block interface {
		Encrypt(dst, src []byte)
	}
}

func (c *aesBlockCipher) EncryptBlock(dst, src *[16]byte) {
	c.block.Encrypt(dst[:], src[:])
}

func newAESBlockCipher(key Key128) (BlockCipher, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return &aesBlockCipher{block: block}, nil
}

// SoftwareFactory is the default Factory, backed entirely by the
// standard library's constant-time AES implementation. Every NewEnc or
// NewMac call runs aes.NewCipher for its key; package phy calls NewMac
// for each MIC it computes, so every data frame built or validated
// allocates a fresh cipher.
type SoftwareFactory struct{}

// NewEnc implements Factory.
func (SoftwareFactory) NewEnc(key Key128) (BlockCipher, error) {
	return newAESBlockCipher(key)
}

// NewMac implements Factory.
func (SoftwareFactory) NewMac(key Key128) (Cmac, error) {
	return newCmac(key)
}
