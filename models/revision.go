// SPDX-License-Identifier: Apache-2.0

package models

// EncryptedRevision is the wire shape of a single collection or item
// revision. All binary fields are base64 (URL-safe alphabet, no
// padding); the server stores and routes them without interpretation.
type EncryptedRevision struct {
	// UID is the revision identity: the keyed MAC of the revision's
	// canonical byte feed, base64-url encoded. It doubles as the
	// integrity tag of the revision.
	UID string `json:"uid"`

	// Meta is the AEAD ciphertext of the revision metadata, or nil
	// when the revision carries no metadata.
	Meta *string `json:"meta"`

	// Chunks lists content-addressed references to the revision's
	// content, in order.
	Chunks []EncryptedChunk `json:"chunks"`

	// Deleted marks the revision as a tombstone.
	Deleted bool `json:"deleted"`
}

// EncryptedChunk is a single content chunk reference. The UID is the
// MAC of the chunk plaintext; Data carries the chunk ciphertext when it
// is inlined in the request, and URL an opaque download location when
// the server serves it out of band.
type EncryptedChunk struct {
	UID  string  `json:"uid"`
	Data *string `json:"data,omitempty"`
	URL  *string `json:"url,omitempty"`
}
