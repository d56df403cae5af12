// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// fingerprintWordsPerLine groups the rendering for reading aloud.
const fingerprintWordsPerLine = 4

// PrettyFingerprint renders the verification fingerprint of a public
// key: the 32-byte BLAKE2b hash of content, read as 16 big-endian
// 16-bit words, each printed as a zero-padded 5-digit decimal. Words
// are joined by delimiter, four per line. Users compare the string out
// of band; collision resistance comes from the full hash, the decimal
// rendering loses nothing.
func PrettyFingerprint(content []byte, delimiter string) string {
	if delimiter == "" {
		delimiter = "   "
	}
	sum := blake2b.Sum256(content)

	var b strings.Builder
	for i := 0; i < len(sum)/2; i++ {
		word := binary.BigEndian.Uint16(sum[i*2:])
		fmt.Fprintf(&b, "%05d", word)
		if (i+1)%fingerprintWordsPerLine == 0 {
			if i != len(sum)/2-1 {
				b.WriteByte('\n')
			}
		} else {
			b.WriteString(delimiter)
		}
	}
	return b.String()
}
