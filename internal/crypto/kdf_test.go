package crypto

import (
	"bytes"
	"testing"
)

func TestDeriveKey_DeterministicForSamePasswordAndSalt(t *testing.T) {
	salt := bytes.Repeat([]byte{0xAB}, SaltSize)

	k1, err := DeriveKey(salt, "correct horse battery staple")
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	k2, err := DeriveKey(salt, "correct horse battery staple")
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}

	if len(k1) != KeySize {
		t.Fatalf("key length = %d, want %d", len(k1), KeySize)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected identical keys for same password+salt")
	}
}

func TestDeriveKey_RejectsBadSalt(t *testing.T) {
	if _, err := DeriveKey([]byte{1, 2, 3}, "pw"); err == nil {
		t.Fatalf("expected error for short salt")
	}
}

func TestDeriveSubkey_DomainSeparation(t *testing.T) {
	parent := bytes.Repeat([]byte{0x42}, KeySize)

	cipherKey, err := DeriveSubkey(parent, "Col", subkeyCipher)
	if err != nil {
		t.Fatalf("DeriveSubkey error: %v", err)
	}
	macKey, err := DeriveSubkey(parent, "Col", subkeyMAC)
	if err != nil {
		t.Fatalf("DeriveSubkey error: %v", err)
	}
	otherContext, err := DeriveSubkey(parent, "ColItem", subkeyCipher)
	if err != nil {
		t.Fatalf("DeriveSubkey error: %v", err)
	}

	if len(cipherKey) != KeySize {
		t.Fatalf("subkey length = %d, want %d", len(cipherKey), KeySize)
	}
	if bytes.Equal(cipherKey, macKey) {
		t.Fatalf("expected different subkeys for different ids")
	}
	if bytes.Equal(cipherKey, otherContext) {
		t.Fatalf("expected different subkeys for different contexts")
	}
}

func TestDeriveSubkey_PadsContextWithSpaces(t *testing.T) {
	parent := bytes.Repeat([]byte{0x42}, KeySize)

	short, err := DeriveSubkey(parent, "Main", subkeyCipher)
	if err != nil {
		t.Fatalf("DeriveSubkey error: %v", err)
	}
	padded, err := DeriveSubkey(parent, "Main    ", subkeyCipher)
	if err != nil {
		t.Fatalf("DeriveSubkey error: %v", err)
	}

	if !bytes.Equal(short, padded) {
		t.Fatalf("expected space-padded context to derive the same subkey")
	}
}

func TestDeriveSubkey_RejectsLongContext(t *testing.T) {
	parent := bytes.Repeat([]byte{0x42}, KeySize)
	if _, err := DeriveSubkey(parent, "TooLongContext", subkeyCipher); err == nil {
		t.Fatalf("expected error for context longer than 8 bytes")
	}
}
