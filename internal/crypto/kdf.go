// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/dchest/blake2b"
	"golang.org/x/crypto/argon2"
)

const (
	// CurrentVersion is the newest protocol version this implementation
	// understands. Objects with a higher version are refused.
	CurrentVersion uint8 = 1

	// KeySize is the size of every symmetric key in the hierarchy.
	KeySize = 32

	// SaltSize is the size of the per-user password salt.
	SaltSize = 16

	contextSize = 8

	// Argon2id cost parameters for the password KDF. Deliberately slow
	// (several hundred milliseconds on a laptop): this derivation gates
	// both login and the master key.
	argonTime    uint32 = 4
	argonMemory  uint32 = 256 * 1024 // 256 MiB
	argonThreads uint8  = 1
)

// Subkey ids of the three keys every crypto manager derives from its
// parent key. Ids, not offsets: each selects an independent subtree.
const (
	subkeyCipher uint64 = 1
	subkeyMAC    uint64 = 2
	subkeyAsym   uint64 = 3
)

// DeriveKey derives the 32-byte master key from a password and the
// per-user salt using Argon2id. The same derivation feeds both the
// login keypair and the content-key tree; the context labels of the
// derivation tree keep those uses apart.
func DeriveKey(salt []byte, password string) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, KeySize), nil
}

// DeriveSubkey derives a 32-byte subkey from a 32-byte parent key using
// keyed BLAKE2b, personalised by an 8-byte ASCII context label and
// indexed by a subkey id. Labels shorter than 8 bytes are right-padded
// with ASCII space (0x20); padding with anything else would derive a
// different subtree and break interoperability.
//
// The bit layout matches libsodium's crypto_kdf_derive_from_key: the
// subkey id is the little-endian BLAKE2b salt, the padded context the
// BLAKE2b personalisation, and the message is empty.
func DeriveSubkey(parent []byte, context string, id uint64) ([]byte, error) {
	if len(parent) != KeySize {
		return nil, fmt.Errorf("parent key must be %d bytes, got %d", KeySize, len(parent))
	}
	ctx, err := padContext(context)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, 8)
	binary.LittleEndian.PutUint64(salt, id)

	h, err := blake2b.New(&blake2b.Config{
		Size:   KeySize,
		Key:    parent,
		Salt:   salt,
		Person: ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("kdf init: %w", err)
	}
	return h.Sum(nil), nil
}

// padContext pads an ASCII context label to exactly 8 bytes with 0x20.
func padContext(context string) ([]byte, error) {
	if len(context) > contextSize {
		return nil, fmt.Errorf("context label %q longer than %d bytes", context, contextSize)
	}
	ctx := make([]byte, contextSize)
	for i := range ctx {
		ctx[i] = ' '
	}
	copy(ctx, context)
	return ctx, nil
}
