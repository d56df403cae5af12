// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"encoding/base64"
	"strings"
)

// uidRandomSize is the number of random bytes behind a collection or
// item uid; 24 bytes encode to exactly 32 base64 characters.
const uidRandomSize = 24

// ToBase64 encodes b with the URL-safe alphabet and no padding. This is
// the encoding of every binary field on the wire.
func ToBase64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// FromBase64 decodes a URL-safe unpadded base64 string. Failures are
// reported as an EncodingError so callers can distinguish malformed
// input from cryptographic failures.
func FromBase64(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, &EncodingError{Reason: "malformed base64: " + err.Error()}
	}
	return b, nil
}

// GenUID returns a fresh 32-character alphanumeric identifier. It
// base64-encodes 24 random bytes and then substitutes '-' with 'a' and
// '_' with 'b'. The substitution concentrates two alphabet slots; the
// bias is accepted because the uid is an identifier, not key material.
func GenUID() (string, error) {
	raw, err := RandomBytes(uidRandomSize)
	if err != nil {
		return "", err
	}
	uid := base64.RawURLEncoding.EncodeToString(raw)
	uid = strings.ReplaceAll(uid, "-", "a")
	uid = strings.ReplaceAll(uid, "_", "b")
	return uid, nil
}
