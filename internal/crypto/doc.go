// SPDX-License-Identifier: Apache-2.0

// Package crypto implements the client-side cryptographic core: the
// password KDF, the context-labelled key-derivation tree, the symmetric
// and asymmetric crypto managers, public-key fingerprints, and the
// base64/uid encoding used on the wire.
//
// Every construction here is deliberately boring: XChaCha20-Poly1305
// for authenticated encryption, keyed BLAKE2b for MACs and the KDF
// tree, Argon2id for password hashing, Ed25519 for signatures, and
// NaCl box (after Ed25519 to X25519 conversion) for sharing. The server
// only ever sees the outputs of these functions; nothing in this
// package performs I/O.
package crypto
