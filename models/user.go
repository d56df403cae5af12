// SPDX-License-Identifier: Apache-2.0

package models

// User is the public account record the server stores at signup. The
// server authenticates the login keypair and stores the encrypted
// content blob; it can recover neither the password nor any key
// material from these fields.
type User struct {
	// Username is the unique account identifier.
	Username string `json:"username"`

	// Email is the account contact address.
	Email string `json:"email"`

	// Salt is the per-user random password salt, base64-url encoded.
	// It is not a secret.
	Salt string `json:"salt"`

	// LoginPubkey is the Ed25519 public key used for challenge-response
	// login, base64-url encoded. It is derived from the password, so a
	// password change replaces it.
	LoginPubkey string `json:"loginPubkey"`

	// Pubkey is the account's long-term Ed25519 identity public key,
	// base64-url encoded. Other users encrypt invitations to it.
	Pubkey string `json:"pubkey"`

	// EncryptedContent is the AEAD ciphertext of the account's identity
	// secret key, wrapped under a key derived from the master key.
	EncryptedContent string `json:"encryptedContent"`
}

// LoginChallenge is issued by the server before login.
type LoginChallenge struct {
	Salt      string `json:"salt"`
	Challenge string `json:"challenge"`
	Version   uint8  `json:"version"`
}

// LoginRequest answers a challenge: Challenge echoes the server's
// challenge, and Signature is the detached Ed25519 signature by the
// login keypair over username, challenge, host and action.
type LoginRequest struct {
	Username  string `json:"username"`
	Challenge string `json:"challenge"`
	Host      string `json:"host"`
	Action    string `json:"action"`
	Signature string `json:"signature"`
}

// LoginResponse carries the session token and the stored account record
// after a successful challenge-response.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// PasswordChangeRequest ships the re-derived login pubkey and the
// re-encrypted content blob in one request so the server can apply both
// atomically.
type PasswordChangeRequest struct {
	LoginPubkey      string `json:"loginPubkey"`
	EncryptedContent string `json:"encryptedContent"`
}

// UserProfile is the public directory entry for a username, used to
// fetch an invitee's public key.
type UserProfile struct {
	Username string `json:"username"`
	Pubkey   string `json:"pubkey"`
}
