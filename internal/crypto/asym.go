// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

// SignatureSize is the size of a detached Ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// AsymmetricCryptoManager holds an Ed25519 keypair. The same identity
// signs and, after conversion to X25519, performs authenticated
// public-key encryption for sharing.
type AsymmetricCryptoManager struct {
	privkey ed25519.PrivateKey
	pubkey  ed25519.PublicKey
}

// NewAsymmetricKeygen generates a keypair. With a 32-byte seed the
// keypair is deterministic; with a nil seed it is random.
func NewAsymmetricKeygen(seed []byte) (*AsymmetricCryptoManager, error) {
	if seed == nil {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &AsymmetricCryptoManager{privkey: priv, pubkey: pub}, nil
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &AsymmetricCryptoManager{privkey: priv, pubkey: priv.Public().(ed25519.PublicKey)}, nil
}

// NewAsymmetricFromPrivateKey reconstitutes a manager from a stored
// 64-byte Ed25519 secret key; bytes [32:64) are the public key per the
// standard layout.
func NewAsymmetricFromPrivateKey(sk []byte) (*AsymmetricCryptoManager, error) {
	if len(sk) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(sk))
	}
	priv := ed25519.PrivateKey(append([]byte(nil), sk...))
	return &AsymmetricCryptoManager{privkey: priv, pubkey: priv.Public().(ed25519.PublicKey)}, nil
}

// Pubkey returns the Ed25519 public key.
func (a *AsymmetricCryptoManager) Pubkey() []byte {
	return a.pubkey
}

// PrivateKey returns the 64-byte Ed25519 secret key. Callers that
// persist it must encrypt it first.
func (a *AsymmetricCryptoManager) PrivateKey() []byte {
	return a.privkey
}

// SignDetached signs message with the identity key and returns the
// 64-byte signature.
func (a *AsymmetricCryptoManager) SignDetached(message []byte) []byte {
	return ed25519.Sign(a.privkey, message)
}

// VerifyDetached reports whether signature is a valid signature of
// message under pubkey.
func VerifyDetached(message, signature, pubkey []byte) bool {
	if len(pubkey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubkey), message, signature)
}

// EncryptSign encrypts message to recipientPub, authenticated by the
// sender's identity: both keys are converted from Ed25519 to X25519 and
// the message is boxed (ECDH + XSalsa20-Poly1305) under a fresh random
// nonce. Output is nonce ‖ box.
func (a *AsymmetricCryptoManager) EncryptSign(message, recipientPub []byte) ([]byte, error) {
	var sender, recipient [32]byte
	copy(sender[:], ed25519PrivateToCurve25519(a.privkey))
	rpk, err := ed25519PublicToCurve25519(recipientPub)
	if err != nil {
		return nil, err
	}
	copy(recipient[:], rpk)

	nonceBytes, err := RandomBytes(NonceSize)
	if err != nil {
		return nil, err
	}
	var nonce [NonceSize]byte
	copy(nonce[:], nonceBytes)

	out := make([]byte, 0, NonceSize+len(message)+box.Overhead)
	out = append(out, nonce[:]...)
	return box.Seal(out, message, &nonce, &recipient, &sender), nil
}

// DecryptVerify opens a box produced by EncryptSign, verifying it was
// created by the holder of senderPub for this manager's key. A tag
// failure, which includes any wrong sender or recipient, surfaces as an
// IntegrityError.
func (a *AsymmetricCryptoManager) DecryptVerify(ciphertext, senderPub []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize+box.Overhead {
		return nil, &EncodingError{Reason: "ciphertext shorter than nonce and overhead"}
	}
	var recipient, sender [32]byte
	copy(recipient[:], ed25519PrivateToCurve25519(a.privkey))
	spk, err := ed25519PublicToCurve25519(senderPub)
	if err != nil {
		return nil, err
	}
	copy(sender[:], spk)

	var nonce [NonceSize]byte
	copy(nonce[:], ciphertext[:NonceSize])

	plaintext, ok := box.Open(nil, ciphertext[NonceSize:], &nonce, &sender, &recipient)
	if !ok {
		return nil, &IntegrityError{Reason: "box verification failed"}
	}
	return plaintext, nil
}

// SealBox encrypts message to recipientPub anonymously: an ephemeral
// keypair replaces the sender identity, so the result proves nothing
// about its author.
func SealBox(message, recipientPub []byte) ([]byte, error) {
	rpk, err := ed25519PublicToCurve25519(recipientPub)
	if err != nil {
		return nil, err
	}
	var recipient [32]byte
	copy(recipient[:], rpk)
	return box.SealAnonymous(nil, message, &recipient, rand.Reader)
}

// UnsealBox opens an anonymous box addressed to this manager's key.
func (a *AsymmetricCryptoManager) UnsealBox(ciphertext []byte) ([]byte, error) {
	var priv, pub [32]byte
	copy(priv[:], ed25519PrivateToCurve25519(a.privkey))
	ppk, err := ed25519PublicToCurve25519(a.pubkey)
	if err != nil {
		return nil, err
	}
	copy(pub[:], ppk)

	plaintext, ok := box.OpenAnonymous(nil, ciphertext, &pub, &priv)
	if !ok {
		return nil, &IntegrityError{Reason: "sealed box verification failed"}
	}
	return plaintext, nil
}

// Wipe zeroizes the secret key. The manager must not be used
// afterwards.
func (a *AsymmetricCryptoManager) Wipe() {
	Zero(a.privkey)
}
