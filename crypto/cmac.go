package crypto

import (
	"hash"

	"github.com/jacobsa/crypto/cmac"
)

// cmacAdapter adapts jacobsa/crypto/cmac's hash.Hash (subkey derivation
// per NIST SP 800-38B, K1/K2 from AES-encrypt of the zero block with the
// 0x87 left-shift wrap) to the Cmac capability. brocaar/lorawan imports
// this same package directly in phypayload.go for MIC computation.
type cmacAdapter struct {
	h hash.Hash
}

func newCmac(key Key128) (Cmac, error) {
	h, err := cmac.New(key[:])
	if err != nil {
		return nil, err
	}
	return &cmacAdapter{h: h}, nil
}

func (c *cmacAdapter) Write(p []byte) (int, error) {
	return c.h.Write(p)
}

func (c *cmacAdapter) Sum() [16]byte {
	var out [16]byte
	copy(out[:], c.h.Sum(nil))
	return out
}

func (c *cmacAdapter) Reset() {
	c.h.Reset()
}

// MIC4 computes a CMAC over msg under key and truncates it to the
// 4-byte MIC the wire format carries. A CMAC computation over L bytes
// performs ceil(L/16) block encrypts plus one final K1/K2 XOR, as
// required by §4.2.
func MIC4(f Factory, key Key128, msg []byte) ([4]byte, error) {
	var out [4]byte
	m, err := f.NewMac(key)
	if err != nil {
		return out, err
	}
	if _, err := m.Write(msg); err != nil {
		return out, err
	}
	sum := m.Sum()
	copy(out[:], sum[:4])
	return out, nil
}
