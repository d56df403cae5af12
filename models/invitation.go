// SPDX-License-Identifier: Apache-2.0

package models

// Invitation carries a shared collection key from inviter to invitee.
// The key travels inside Wrapped, sealed to the invitee's public key
// and authenticated by the inviter's signing identity; the signature
// binds the collection uid and access level to the same identity.
type Invitation struct {
	// UID identifies the invitation itself on the server.
	UID string `json:"uid,omitempty"`

	// CollectionUID names the collection being shared.
	CollectionUID string `json:"collection_uid"`

	// Username is the invitee's username.
	Username string `json:"username,omitempty"`

	// AccessLevel is the level granted on acceptance.
	AccessLevel AccessLevel `json:"access_level"`

	// Wrapped is the collection key encrypted to the invitee,
	// base64-url encoded.
	Wrapped string `json:"wrapped"`

	// SenderPubkey is the inviter's Ed25519 public key, base64-url
	// encoded. Invitees confirm it out of band via its fingerprint.
	SenderPubkey string `json:"sender_pub"`

	// Signature is the inviter's detached signature over the hash of
	// (collection uid, access level, wrapped key), base64-url encoded.
	Signature string `json:"signature"`
}

// InvitationList is the server response to an invitation listing.
type InvitationList struct {
	Data []Invitation `json:"data"`
	Done bool         `json:"done"`
}
