// SPDX-License-Identifier: Apache-2.0

// Package collection implements the encrypted object model: revisions
// (the MAC-identified unit of state), collections, and the items they
// contain. The server only ever stores the wire shapes produced here.
package collection

import (
	"crypto/subtle"
	"encoding/json"

	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/models"
)

// Chunk is a content-addressed piece of revision content. UID is the
// keyed MAC of the chunk plaintext (base64-url); Data is its AEAD
// ciphertext, nil when the server has not inlined it.
type Chunk struct {
	UID  string
	Data []byte
}

// Revision is one immutable state of a collection or item. Its uid is
// the keyed MAC of the canonical byte feed over its content, so the
// identifier doubles as the integrity tag. Revisions are value-like:
// every mutation of the owning object creates a fresh one.
type Revision struct {
	UID     string
	Deleted bool
	Chunks  []Chunk

	// meta is the AEAD ciphertext of the revision metadata, nil when
	// the revision carries none.
	meta []byte
}

// NewRevision encrypts meta (serialized to JSON) under cm and builds a
// revision whose uid MACs the content together with additionalData.
// Pass a nil meta for a metadata-less revision.
func NewRevision(cm *crypto.CryptoManager, additionalData [][]byte, meta any, chunks []Chunk, deleted bool) (*Revision, error) {
	var metaCipher []byte
	if meta != nil {
		plain, err := json.Marshal(meta)
		if err != nil {
			return nil, &crypto.EncodingError{Reason: "marshal meta: " + err.Error()}
		}
		metaCipher, err = cm.Encrypt(plain, nil)
		if err != nil {
			return nil, err
		}
	}
	return newRevisionFromCipher(cm, additionalData, metaCipher, chunks, deleted)
}

// newRevisionFromCipher builds a revision around an already-encrypted
// meta blob. Used by tombstoning, which re-encrypts the previous meta
// itself to get a fresh nonce.
func newRevisionFromCipher(cm *crypto.CryptoManager, additionalData [][]byte, metaCipher []byte, chunks []Chunk, deleted bool) (*Revision, error) {
	if chunks == nil {
		chunks = []Chunk{}
	}
	rev := &Revision{
		Deleted: deleted,
		Chunks:  chunks,
		meta:    metaCipher,
	}
	uid, err := rev.calcUID(cm, additionalData)
	if err != nil {
		return nil, err
	}
	rev.UID = uid
	return rev, nil
}

// calcUID computes the MAC over the canonical feed. The feed order is
// part of the protocol and must not change:
//
//  1. one byte, 0x01 when deleted else 0x00
//  2. the decoded raw bytes of every chunk uid, in order
//  3. the trailing 16 bytes of the meta ciphertext (the AEAD tag),
//     when meta is present
//  4. every additionalData element, in order
func (r *Revision) calcUID(cm *crypto.CryptoManager, additionalData [][]byte) (string, error) {
	h, err := cm.CryptoMac()
	if err != nil {
		return "", err
	}

	if r.Deleted {
		h.Write([]byte{0x01})
	} else {
		h.Write([]byte{0x00})
	}
	for _, chunk := range r.Chunks {
		raw, err := crypto.FromBase64(chunk.UID)
		if err != nil {
			return "", err
		}
		h.Write(raw)
	}
	if r.meta != nil {
		if len(r.meta) < crypto.TagSize {
			return "", &crypto.EncodingError{Reason: "meta ciphertext shorter than tag"}
		}
		h.Write(r.meta[len(r.meta)-crypto.TagSize:])
	}
	for _, ad := range additionalData {
		h.Write(ad)
	}

	return crypto.ToBase64(h.Sum(nil)), nil
}

// Verify recomputes the uid over the same feed and compares it in
// constant time with the stored one. A mismatch means the revision was
// tampered with and is fatal for the object.
func (r *Revision) Verify(cm *crypto.CryptoManager, additionalData [][]byte) error {
	want, err := crypto.FromBase64(r.UID)
	if err != nil {
		return err
	}
	gotUID, err := r.calcUID(cm, additionalData)
	if err != nil {
		return err
	}
	got, err := crypto.FromBase64(gotUID)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return &crypto.IntegrityError{Object: r.UID, Reason: "revision mac mismatch"}
	}
	// The uid only binds the meta tag; open the AEAD so a flipped
	// ciphertext byte also rejects the revision, not just its meta.
	if r.meta != nil {
		if _, err := cm.Decrypt(r.meta, nil); err != nil {
			return err
		}
	}
	return nil
}

// HasMeta reports whether the revision carries metadata.
func (r *Revision) HasMeta() bool {
	return r.meta != nil
}

// DecryptMeta decrypts the revision metadata and unmarshals it into
// target (a non-nil pointer, as for json.Unmarshal).
func (r *Revision) DecryptMeta(cm *crypto.CryptoManager, target any) error {
	plain, err := r.decryptMetaRaw(cm)
	if err != nil {
		return err
	}
	if plain == nil {
		return &crypto.EncodingError{Object: r.UID, Reason: "revision has no meta"}
	}
	if err := json.Unmarshal(plain, target); err != nil {
		return &crypto.EncodingError{Object: r.UID, Reason: "unmarshal meta: " + err.Error()}
	}
	return nil
}

// decryptMetaRaw returns the decrypted meta bytes, or nil when the
// revision has none.
func (r *Revision) decryptMetaRaw(cm *crypto.CryptoManager) ([]byte, error) {
	if r.meta == nil {
		return nil, nil
	}
	return cm.Decrypt(r.meta, nil)
}

// ToWire converts the revision to its transport shape.
func (r *Revision) ToWire() models.EncryptedRevision {
	w := models.EncryptedRevision{
		UID:     r.UID,
		Deleted: r.Deleted,
		Chunks:  make([]models.EncryptedChunk, 0, len(r.Chunks)),
	}
	if r.meta != nil {
		meta := crypto.ToBase64(r.meta)
		w.Meta = &meta
	}
	for _, chunk := range r.Chunks {
		wc := models.EncryptedChunk{UID: chunk.UID}
		if chunk.Data != nil {
			data := crypto.ToBase64(chunk.Data)
			wc.Data = &data
		}
		w.Chunks = append(w.Chunks, wc)
	}
	return w
}

// RevisionFromWire parses a transport revision. Ownership of the
// decoded bytes passes to the returned value; malformed base64 is an
// EncodingError.
func RevisionFromWire(w models.EncryptedRevision) (*Revision, error) {
	rev := &Revision{
		UID:     w.UID,
		Deleted: w.Deleted,
		Chunks:  make([]Chunk, 0, len(w.Chunks)),
	}
	if w.Meta != nil {
		meta, err := crypto.FromBase64(*w.Meta)
		if err != nil {
			return nil, err
		}
		rev.meta = meta
	}
	for _, wc := range w.Chunks {
		chunk := Chunk{UID: wc.UID}
		if wc.Data != nil {
			data, err := crypto.FromBase64(*wc.Data)
			if err != nil {
				return nil, err
			}
			chunk.Data = data
		}
		rev.Chunks = append(rev.Chunks, chunk)
	}
	return rev, nil
}
