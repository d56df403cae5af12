// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"hash"

	"github.com/dchest/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// NonceSize is the XChaCha20-Poly1305 nonce size.
	NonceSize = chacha20poly1305.NonceSizeX

	// TagSize is the Poly1305 authentication tag size.
	TagSize = chacha20poly1305.Overhead

	// MACSize is the output size of the keyed BLAKE2b MAC.
	MACSize = 32
)

// CryptoManager is the symmetric crypto scope of a single object. It is
// immutable after construction and identified by the (parent key,
// context label, version) triple: the same triple always yields the
// same cipher key, MAC key, and asymmetric seed.
type CryptoManager struct {
	version     uint8
	cipherKey   []byte
	macKey      []byte
	asymKeySeed []byte
}

// NewCryptoManager derives a crypto manager from a 32-byte parent key
// and an 8-byte context label. Returns a VersionError when version is
// newer than this implementation supports: unknown-version objects are
// refused before any key is derived.
func NewCryptoManager(parent []byte, context string, version uint8) (*CryptoManager, error) {
	if version > CurrentVersion {
		return nil, &VersionError{Version: version}
	}

	cipherKey, err := DeriveSubkey(parent, context, subkeyCipher)
	if err != nil {
		return nil, err
	}
	macKey, err := DeriveSubkey(parent, context, subkeyMAC)
	if err != nil {
		return nil, err
	}
	asymSeed, err := DeriveSubkey(parent, context, subkeyAsym)
	if err != nil {
		return nil, err
	}

	return &CryptoManager{
		version:     version,
		cipherKey:   cipherKey,
		macKey:      macKey,
		asymKeySeed: asymSeed,
	}, nil
}

// Version returns the protocol version the manager was derived for.
func (c *CryptoManager) Version() uint8 {
	return c.version
}

// AsymKeySeed returns the 32-byte seed reserved for deterministic
// asymmetric keypair generation within this scope.
func (c *CryptoManager) AsymKeySeed() []byte {
	return c.asymKeySeed
}

// Encrypt seals plaintext with a fresh random 24-byte nonce and returns
// nonce ‖ ciphertext ‖ tag. The nonce is drawn inside this method on
// every call; there is intentionally no way to supply one.
func (c *CryptoManager) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.cipherKey)
	if err != nil {
		return nil, err
	}
	nonce, err := RandomBytes(NonceSize)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, NonceSize+len(plaintext)+TagSize)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, additionalData), nil
}

// Decrypt splits the leading nonce off ciphertext and opens the rest.
// Verification runs in constant time inside the AEAD; a wrong key, a
// wrong nonce, and a flipped tag are indistinguishable and all surface
// as an IntegrityError.
func (c *CryptoManager) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize+TagSize {
		return nil, &EncodingError{Reason: "ciphertext shorter than nonce and tag"}
	}
	aead, err := chacha20poly1305.NewX(c.cipherKey)
	if err != nil {
		return nil, err
	}
	nonce, body := ciphertext[:NonceSize], ciphertext[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, body, additionalData)
	if err != nil {
		return nil, &IntegrityError{Reason: "aead verification failed"}
	}
	return plaintext, nil
}

// EncryptDetached seals plaintext like Encrypt but returns the 16-byte
// tag separately. The ciphertext still carries its nonce prefix.
func (c *CryptoManager) EncryptDetached(plaintext, additionalData []byte) (mac, ciphertext []byte, err error) {
	sealed, err := c.Encrypt(plaintext, additionalData)
	if err != nil {
		return nil, nil, err
	}
	// The tag is the trailing 16 bytes of the attached form.
	split := len(sealed) - TagSize
	return sealed[split:], sealed[:split], nil
}

// DecryptDetached reattaches mac to ciphertext and opens it. Failures
// surface as IntegrityError exactly like Decrypt.
func (c *CryptoManager) DecryptDetached(ciphertext, mac, additionalData []byte) ([]byte, error) {
	if len(mac) != TagSize {
		return nil, &EncodingError{Reason: "detached tag has wrong size"}
	}
	joined := make([]byte, 0, len(ciphertext)+TagSize)
	joined = append(joined, ciphertext...)
	joined = append(joined, mac...)
	return c.Decrypt(joined, additionalData)
}

// CryptoMac returns a fresh incremental keyed BLAKE2b hash seeded with
// the manager's MAC key. Output is 32 bytes.
func (c *CryptoManager) CryptoMac() (hash.Hash, error) {
	h, err := blake2b.New(&blake2b.Config{Size: MACSize, Key: c.macKey})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Wipe zeroizes the manager's key material. The manager must not be
// used afterwards.
func (c *CryptoManager) Wipe() {
	Zero(c.cipherKey)
	Zero(c.macKey)
	Zero(c.asymKeySeed)
}
