package crypto

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
)

var uidPattern = regexp.MustCompile(`^[A-Za-z0-9]{32}$`)

func TestGenUID_AlphabetAndLength(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 256; i++ {
		uid, err := GenUID()
		if err != nil {
			t.Fatalf("GenUID error: %v", err)
		}
		if !uidPattern.MatchString(uid) {
			t.Fatalf("uid %q is not 32 alphanumeric characters", uid)
		}
		if seen[uid] {
			t.Fatalf("duplicate uid %q", uid)
		}
		seen[uid] = true
	}
}

func TestBase64_RoundTrip(t *testing.T) {
	raw := []byte{0x00, 0xFF, 0x10, 0x20, 0xFE}
	got, err := FromBase64(ToBase64(raw))
	if err != nil {
		t.Fatalf("FromBase64 error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("base64 round trip mismatch")
	}
}

func TestFromBase64_ReportsEncodingError(t *testing.T) {
	_, err := FromBase64("!!not base64!!")
	var encodingErr *EncodingError
	if !errors.As(err, &encodingErr) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
}
