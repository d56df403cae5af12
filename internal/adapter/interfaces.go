// SPDX-License-Identifier: Apache-2.0

// Package adapter provides the transport layer between the crypto core
// and the sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the
// service layer from the underlying protocol; the package ships an
// HTTP/REST implementation ([NewHTTPServerAdapter]). Everything that
// crosses this boundary is opaque ciphertext and references: the
// adapter serialises the wire shapes, manages the auth token, and maps
// transport errors to the sentinel values in errors.go so callers can
// use errors.Is. It generates none of the core error kinds itself.
package adapter

import (
	"context"

	"github.com/kodumbeats/etebase-go/models"
)

// ServerAdapter is the transport contract the crypto core is written
// against. Sync tokens (stoken, ctag, etag) pass through unchanged.
type ServerAdapter interface {
	// SetToken stores the session token attached to all subsequent
	// authenticated requests.
	SetToken(token string)

	// Token returns the current session token, or "" before login.
	Token() string

	// Signup publishes a prepared account record and returns the
	// initial session.
	Signup(ctx context.Context, user models.User) (models.LoginResponse, error)

	// LoginChallenge fetches the salt and a fresh challenge for a
	// username.
	LoginChallenge(ctx context.Context, username string) (models.LoginChallenge, error)

	// Login submits a signed challenge response. On success the
	// returned token is also stored via SetToken.
	Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error)

	// Logout invalidates the current session token.
	Logout(ctx context.Context) error

	// ChangePassword atomically replaces the login pubkey and the
	// encrypted content blob.
	ChangePassword(ctx context.Context, req models.PasswordChangeRequest) error

	// UserProfile fetches the public directory entry for a username.
	UserProfile(ctx context.Context, username string) (models.UserProfile, error)

	// CollectionCreate uploads a new collection.
	CollectionCreate(ctx context.Context, col models.EncryptedCollection) error

	// CollectionGet fetches a single collection.
	CollectionGet(ctx context.Context, uid string) (models.EncryptedCollection, error)

	// CollectionList fetches the collections changed since stoken; an
	// empty stoken fetches everything.
	CollectionList(ctx context.Context, stoken string) (models.CollectionList, error)

	// ItemBatch uploads items under a collection in one request.
	// Returns ErrConflict when an etag check fails.
	ItemBatch(ctx context.Context, colUID string, items []models.EncryptedItem) error

	// ItemList fetches the items of a collection changed since stoken.
	ItemList(ctx context.Context, colUID, stoken string) (models.ItemList, error)

	// InvitationSend delivers an invitation to its invitee.
	InvitationSend(ctx context.Context, inv models.Invitation) error

	// InvitationListIncoming fetches invitations addressed to the
	// current user.
	InvitationListIncoming(ctx context.Context) (models.InvitationList, error)

	// InvitationDone removes a processed incoming invitation,
	// accepted or rejected.
	InvitationDone(ctx context.Context, uid string) error
}
