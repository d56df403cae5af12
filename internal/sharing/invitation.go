// SPDX-License-Identifier: Apache-2.0

// Package sharing wraps collection keys to other users. An invitation
// seals the collection key to the invitee's public key, authenticated
// by the inviter's signing identity, and signs the collection uid, access
// level and wrapped key so the invitee can pin both the key and its
// origin to a fingerprint checked out of band.
package sharing

import (
	"golang.org/x/crypto/blake2b"

	"github.com/kodumbeats/etebase-go/internal/collection"
	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/models"
)

// Invite wraps col's key to recipientPub and assembles the signed
// invitation payload. The collection key is unwrapped locally, boxed to
// the recipient, and zeroized before returning.
func Invite(sender *crypto.AsymmetricCryptoManager, main *crypto.CryptoManager, col *collection.Collection, recipientUsername string, recipientPub []byte, level models.AccessLevel) (models.Invitation, error) {
	if err := level.Validate(); err != nil {
		return models.Invitation{}, err
	}

	colKey, err := col.Key(main)
	if err != nil {
		return models.Invitation{}, err
	}
	defer crypto.Zero(colKey)

	wrapped, err := sender.EncryptSign(colKey, recipientPub)
	if err != nil {
		return models.Invitation{}, err
	}

	digest := payloadDigest(col.UID, level, wrapped)
	return models.Invitation{
		CollectionUID: col.UID,
		Username:      recipientUsername,
		AccessLevel:   level,
		Wrapped:       crypto.ToBase64(wrapped),
		SenderPubkey:  crypto.ToBase64(sender.Pubkey()),
		Signature:     crypto.ToBase64(sender.SignDetached(digest)),
	}, nil
}

// Accept verifies an invitation and recovers the collection key. The
// recipient should confirm SenderFingerprint against the inviter out of
// band before trusting the result. The returned key is owned by the
// caller, who must re-wrap it under their own main manager and then
// Zero it.
func Accept(recipient *crypto.AsymmetricCryptoManager, inv models.Invitation) ([]byte, error) {
	senderPub, err := crypto.FromBase64(inv.SenderPubkey)
	if err != nil {
		return nil, err
	}
	wrapped, err := crypto.FromBase64(inv.Wrapped)
	if err != nil {
		return nil, err
	}
	signature, err := crypto.FromBase64(inv.Signature)
	if err != nil {
		return nil, err
	}

	digest := payloadDigest(inv.CollectionUID, inv.AccessLevel, wrapped)
	if !crypto.VerifyDetached(digest, signature, senderPub) {
		return nil, &crypto.IntegrityError{Object: inv.CollectionUID, Reason: "invitation signature invalid"}
	}

	colKey, err := recipient.DecryptVerify(wrapped, senderPub)
	if err != nil {
		return nil, err
	}
	return colKey, nil
}

// SenderFingerprint renders the inviter's pubkey fingerprint for
// out-of-band comparison.
func SenderFingerprint(inv models.Invitation) (string, error) {
	senderPub, err := crypto.FromBase64(inv.SenderPubkey)
	if err != nil {
		return "", err
	}
	return crypto.PrettyFingerprint(senderPub, ""), nil
}

// payloadDigest hashes the signed portion of an invitation: collection
// uid, access level, wrapped key, in that order.
func payloadDigest(collectionUID string, level models.AccessLevel, wrapped []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(collectionUID))
	h.Write([]byte(level))
	h.Write(wrapped)
	return h.Sum(nil)
}
