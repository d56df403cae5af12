// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"crypto/rand"
	"io"
)

// RandomBytes reads n bytes from the OS CSPRNG. Every caller draws
// fresh entropy; random values (nonces in particular) are never
// persisted for reuse.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
