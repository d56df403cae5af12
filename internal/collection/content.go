// SPDX-License-Identifier: Apache-2.0

package collection

import (
	"crypto/subtle"

	"github.com/kodumbeats/etebase-go/internal/crypto"
)

// makeChunks encrypts content into chunk references under cm. Empty
// content yields no chunks. Chunking of large contents into multiple
// pieces happens upstream of this package; a single buffer becomes a
// single chunk whose uid is the keyed MAC of its plaintext.
func makeChunks(cm *crypto.CryptoManager, content []byte) ([]Chunk, error) {
	if len(content) == 0 {
		return []Chunk{}, nil
	}
	uid, err := chunkUID(cm, content)
	if err != nil {
		return nil, err
	}
	blob, err := cm.Encrypt(content, nil)
	if err != nil {
		return nil, err
	}
	return []Chunk{{UID: uid, Data: blob}}, nil
}

// decryptChunks decrypts and concatenates chunk contents in order,
// checking every chunk's plaintext against its content address.
func decryptChunks(cm *crypto.CryptoManager, chunks []Chunk) ([]byte, error) {
	out := []byte{}
	for _, chunk := range chunks {
		if chunk.Data == nil {
			return nil, &crypto.EncodingError{Object: chunk.UID, Reason: "chunk data not inlined"}
		}
		plain, err := cm.Decrypt(chunk.Data, nil)
		if err != nil {
			return nil, err
		}
		wantUID, err := chunkUID(cm, plain)
		if err != nil {
			return nil, err
		}
		if subtle.ConstantTimeCompare([]byte(wantUID), []byte(chunk.UID)) != 1 {
			return nil, &crypto.IntegrityError{Object: chunk.UID, Reason: "chunk mac mismatch"}
		}
		out = append(out, plain...)
	}
	return out, nil
}

// chunkUID computes a chunk's content address: the keyed MAC of its
// plaintext, base64-url encoded.
func chunkUID(cm *crypto.CryptoManager, plain []byte) (string, error) {
	h, err := cm.CryptoMac()
	if err != nil {
		return "", err
	}
	h.Write(plain)
	return crypto.ToBase64(h.Sum(nil)), nil
}
