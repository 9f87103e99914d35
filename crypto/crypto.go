// Package crypto provides the two cryptographic primitives the MAC layer
// stands on: AES-128 ECB block encryption and AES-128 CMAC. Both are
// expressed as a pluggable capability (Factory) rather than free
// functions. Factory is an ordinary Go interface, so calls through it
// are dispatched at run time. Package phy computes every MIC through a
// Factory; its AES-ECB operations (JoinAccept decryption, FRMPayload
// keystream, session-key derivation) call crypto/aes directly and do not
// go through a Factory, so substituting a Factory replaces only CMAC.
package crypto

// Key128 is an opaque 16-byte AES key. Role-typed wrappers (phy.AppKey,
// phy.NwkSKey, phy.AppSKey) convert to this at the crypto boundary so
// that key misuse is caught at compile time everywhere above this
// package.
type Key128 [16]byte

// BlockCipher encrypts single 16-byte blocks. Package phy does not use
// it: its ECB operations call crypto/aes directly.
type BlockCipher interface {
	// EncryptBlock encrypts src into dst. len(src) == len(dst) == 16.
	EncryptBlock(dst, src *[16]byte)
}

// Cmac computes an AES-128 CMAC (NIST SP 800-38B) over a byte stream.
type Cmac interface {
	Write(p []byte) (int, error)
	// Sum returns the full 16-byte CMAC tag; callers truncate to the
	// 4 bytes the wire format requires.
	Sum() [16]byte
	Reset()
}

// Factory constructs a BlockCipher/Cmac bound to a single key. The MAC
// layer takes its CMAC from a Factory and never imports the CMAC package
// directly; AES-ECB in package phy uses crypto/aes without a Factory.
type Factory interface {
	NewEnc(key Key128) (BlockCipher, error)
	NewMac(key Key128) (Cmac, error)
}
