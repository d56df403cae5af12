// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"crypto/ed25519"
	"crypto/sha512"
	"fmt"
	"math/big"
)

// Ed25519 and X25519 share the same underlying curve, so a single
// long-term signing identity can also serve key agreement. The secret
// conversion is the standard Ed25519 expansion (SHA-512 of the seed,
// clamped); the public conversion maps the Edwards y-coordinate to the
// Montgomery u-coordinate through the birational map u = (1+y)/(1-y).
// The public-key map follows FiloSottile/age.

var curve25519P, _ = new(big.Int).SetString("57896044618658097711785492504343953926634992332820282019728792003956564819949", 10)

// ed25519PrivateToCurve25519 converts an Ed25519 secret key to an
// X25519 private scalar.
func ed25519PrivateToCurve25519(sk ed25519.PrivateKey) []byte {
	h := sha512.Sum512(sk.Seed())
	out := make([]byte, 32)
	copy(out, h[:32])
	out[0] &= 248
	out[31] &= 127
	out[31] |= 64
	return out
}

// ed25519PublicToCurve25519 converts an Ed25519 public key to an X25519
// public key.
func ed25519PublicToCurve25519(pk ed25519.PublicKey) ([]byte, error) {
	if len(pk) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pk))
	}

	// ed25519.PublicKey is a little-endian representation of the
	// y-coordinate, with the top bit carrying the sign of x.
	bigEndianY := make([]byte, ed25519.PublicKeySize)
	for i, b := range pk {
		bigEndianY[ed25519.PublicKeySize-i-1] = b
	}
	bigEndianY[0] &= 0b0111_1111

	y := new(big.Int).SetBytes(bigEndianY)
	denom := big.NewInt(1)
	denom.ModInverse(denom.Sub(denom, y), curve25519P) // 1 / (1 - y)
	u := y.Mul(y.Add(y, big.NewInt(1)), denom)
	u.Mod(u, curve25519P)

	out := make([]byte, 32)
	uBytes := u.Bytes()
	n := len(uBytes)
	for i, b := range uBytes {
		out[n-i-1] = b
	}
	return out, nil
}
