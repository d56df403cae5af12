// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kodumbeats/etebase-go/internal/account"
	"github.com/kodumbeats/etebase-go/internal/adapter"
	"github.com/kodumbeats/etebase-go/internal/collection"
	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/internal/logger"
	"github.com/kodumbeats/etebase-go/internal/sharing"
	"github.com/kodumbeats/etebase-go/internal/store"
	"github.com/kodumbeats/etebase-go/models"
)

// CollectionService drives collection and item lifecycle against the
// server and the encrypted local cache. Every object coming back from
// either is verified before it is trusted; a failed verification
// rejects the object and surfaces as an IntegrityError.
type CollectionService struct {
	adapter adapter.ServerAdapter
	cache   *store.LocalCache
	log     *logger.Logger
	acc     *account.Account
}

// NewCollectionService constructs a CollectionService for a logged-in
// account.
func NewCollectionService(serverAdapter adapter.ServerAdapter, cache *store.LocalCache, acc *account.Account, log *logger.Logger) *CollectionService {
	return &CollectionService{adapter: serverAdapter, cache: cache, log: log, acc: acc}
}

// Create builds a new collection, uploads it, and caches it.
func (s *CollectionService) Create(ctx context.Context, meta collection.Meta, content []byte) (*collection.Collection, error) {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return nil, err
	}
	defer main.Wipe()

	col, err := collection.New(main, meta, content)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	if err := s.adapter.CollectionCreate(ctx, col.ToWire()); err != nil {
		return nil, fmt.Errorf("upload collection %s: %w", col.UID, err)
	}
	if err := s.cacheSave(ctx, main, col); err != nil {
		return nil, err
	}

	s.log.Debug().Str("uid", col.UID).Msg("collection created")
	return col, nil
}

// Fetch downloads a collection, verifies it, and refreshes the cache.
func (s *CollectionService) Fetch(ctx context.Context, uid string) (*collection.Collection, error) {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return nil, err
	}
	defer main.Wipe()

	w, err := s.adapter.CollectionGet(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("fetch collection %s: %w", uid, err)
	}
	col, err := collection.FromWire(w)
	if err != nil {
		return nil, err
	}
	if err := col.Verify(main); err != nil {
		s.log.Warn().Str("uid", uid).Msg("rejected tampered collection")
		return nil, err
	}
	if err := s.cacheSave(ctx, main, col); err != nil {
		return nil, err
	}
	return col, nil
}

// List downloads and verifies all collections changed since stoken.
// The first tampered object aborts the listing.
func (s *CollectionService) List(ctx context.Context, stoken string) ([]*collection.Collection, string, error) {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return nil, "", err
	}
	defer main.Wipe()

	resp, err := s.adapter.CollectionList(ctx, stoken)
	if err != nil {
		return nil, "", fmt.Errorf("list collections: %w", err)
	}

	cols := make([]*collection.Collection, 0, len(resp.Data))
	for _, w := range resp.Data {
		col, err := collection.FromWire(w)
		if err != nil {
			return nil, "", err
		}
		if err := col.Verify(main); err != nil {
			s.log.Warn().Str("uid", col.UID).Msg("rejected tampered collection in listing")
			return nil, "", err
		}
		cols = append(cols, col)
	}
	return cols, resp.Stoken, nil
}

// Upload pushes the collection's current state and refreshes the cache.
func (s *CollectionService) Upload(ctx context.Context, col *collection.Collection) error {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return err
	}
	defer main.Wipe()

	if err := s.adapter.CollectionCreate(ctx, col.ToWire()); err != nil {
		return fmt.Errorf("upload collection %s: %w", col.UID, err)
	}
	return s.cacheSave(ctx, main, col)
}

// CachedCollection loads a collection from the encrypted local cache,
// verifying it like any other untrusted input.
func (s *CollectionService) CachedCollection(ctx context.Context, uid string) (*collection.Collection, error) {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return nil, err
	}
	defer main.Wipe()

	blob, err := s.cache.LoadCollection(ctx, uid)
	if err != nil {
		return nil, err
	}
	raw, err := main.Decrypt(blob, []byte(uid))
	if err != nil {
		return nil, err
	}
	var w models.EncryptedCollection
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &crypto.EncodingError{Object: uid, Reason: "unmarshal cached collection: " + err.Error()}
	}
	col, err := collection.FromWire(w)
	if err != nil {
		return nil, err
	}
	if err := col.Verify(main); err != nil {
		return nil, err
	}
	return col, nil
}

// RewrapAll re-wraps every cached collection key from oldMain to the
// account's current main manager and re-uploads the results. Run after
// a password change; collections missing from the cache must be
// refetched and re-wrapped the same way before the old key is dropped.
func (s *CollectionService) RewrapAll(ctx context.Context, oldMain *crypto.CryptoManager) error {
	newMain, err := s.acc.MainCryptoManager()
	if err != nil {
		return err
	}
	defer newMain.Wipe()

	uids, err := s.cache.ListCollectionUIDs(ctx)
	if err != nil {
		return err
	}
	for _, uid := range uids {
		blob, err := s.cache.LoadCollection(ctx, uid)
		if err != nil {
			return err
		}
		raw, err := oldMain.Decrypt(blob, []byte(uid))
		if err != nil {
			return err
		}
		var w models.EncryptedCollection
		if err := json.Unmarshal(raw, &w); err != nil {
			return &crypto.EncodingError{Object: uid, Reason: "unmarshal cached collection: " + err.Error()}
		}
		col, err := collection.FromWire(w)
		if err != nil {
			return err
		}
		if err := col.Verify(oldMain); err != nil {
			return err
		}
		if err := col.Rewrap(oldMain, newMain); err != nil {
			return fmt.Errorf("rewrap collection %s: %w", uid, err)
		}
		if err := s.adapter.CollectionCreate(ctx, col.ToWire()); err != nil {
			return fmt.Errorf("upload rewrapped collection %s: %w", uid, err)
		}
		if err := s.cacheSave(ctx, newMain, col); err != nil {
			return err
		}
	}
	return nil
}

// DecryptMeta decrypts a collection's metadata with the account's main
// manager.
func (s *CollectionService) DecryptMeta(col *collection.Collection) (collection.Meta, error) {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return collection.Meta{}, err
	}
	defer main.Wipe()
	return col.DecryptMeta(main)
}

// Invite shares col with another user at the given access level. The
// recipient's pubkey comes from the server directory; the caller should
// confirm its fingerprint with the recipient out of band first.
func (s *CollectionService) Invite(ctx context.Context, col *collection.Collection, username string, level models.AccessLevel) error {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return err
	}
	defer main.Wipe()

	profile, err := s.adapter.UserProfile(ctx, username)
	if err != nil {
		return fmt.Errorf("fetch pubkey of %s: %w", username, err)
	}
	recipientPub, err := crypto.FromBase64(profile.Pubkey)
	if err != nil {
		return err
	}

	inv, err := sharing.Invite(s.acc.Identity(), main, col, username, recipientPub, level)
	if err != nil {
		return fmt.Errorf("build invitation for %s: %w", col.UID, err)
	}
	if err := s.adapter.InvitationSend(ctx, inv); err != nil {
		return fmt.Errorf("send invitation for %s: %w", col.UID, err)
	}

	s.log.Debug().Str("uid", col.UID).Str("invitee", username).Msg("invitation sent")
	return nil
}

// Invitations lists invitations addressed to the current user.
func (s *CollectionService) Invitations(ctx context.Context) ([]models.Invitation, error) {
	resp, err := s.adapter.InvitationListIncoming(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return resp.Data, nil
}

// Accept verifies an invitation, recovers the collection key, re-wraps
// it under the account's own main manager, and stores the resulting
// collection.
func (s *CollectionService) Accept(ctx context.Context, inv models.Invitation) (*collection.Collection, error) {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return nil, err
	}
	defer main.Wipe()

	colKey, err := sharing.Accept(s.acc.Identity(), inv)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(colKey)

	w, err := s.adapter.CollectionGet(ctx, inv.CollectionUID)
	if err != nil {
		return nil, fmt.Errorf("fetch shared collection %s: %w", inv.CollectionUID, err)
	}
	col, err := collection.NewFromSharedKey(main, w, colKey)
	if err != nil {
		return nil, err
	}
	if err := col.Verify(main); err != nil {
		s.log.Warn().Str("uid", col.UID).Msg("rejected tampered shared collection")
		return nil, err
	}
	if err := s.cacheSave(ctx, main, col); err != nil {
		return nil, err
	}
	if inv.UID != "" {
		if err := s.adapter.InvitationDone(ctx, inv.UID); err != nil && !errors.Is(err, adapter.ErrNotFound) {
			return nil, fmt.Errorf("finish invitation %s: %w", inv.UID, err)
		}
	}
	return col, nil
}

// CreateItem builds an item inside col and uploads it.
func (s *CollectionService) CreateItem(ctx context.Context, col *collection.Collection, meta collection.ItemMeta, content []byte) (*collection.Item, error) {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return nil, err
	}
	defer main.Wipe()

	cm, err := col.CryptoManager(main)
	if err != nil {
		return nil, err
	}
	defer cm.Wipe()

	item, err := collection.NewItem(cm, meta, content)
	if err != nil {
		return nil, fmt.Errorf("create item in %s: %w", col.UID, err)
	}
	if err := s.adapter.ItemBatch(ctx, col.UID, []models.EncryptedItem{item.ToWire()}); err != nil {
		return nil, fmt.Errorf("upload item %s: %w", item.UID, err)
	}
	if err := s.cacheSaveItem(ctx, main, col.UID, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Items downloads and verifies the items of col changed since stoken.
func (s *CollectionService) Items(ctx context.Context, col *collection.Collection, stoken string) ([]*collection.Item, string, error) {
	main, err := s.acc.MainCryptoManager()
	if err != nil {
		return nil, "", err
	}
	defer main.Wipe()

	cm, err := col.CryptoManager(main)
	if err != nil {
		return nil, "", err
	}
	defer cm.Wipe()

	resp, err := s.adapter.ItemList(ctx, col.UID, stoken)
	if err != nil {
		return nil, "", fmt.Errorf("list items of %s: %w", col.UID, err)
	}

	items := make([]*collection.Item, 0, len(resp.Data))
	for _, w := range resp.Data {
		item, err := collection.ItemFromWire(w)
		if err != nil {
			return nil, "", err
		}
		if err := item.Verify(cm); err != nil {
			s.log.Warn().Str("col_uid", col.UID).Str("uid", item.UID).Msg("rejected tampered item")
			return nil, "", err
		}
		items = append(items, item)
	}
	return items, resp.Stoken, nil
}

// cacheSave stores a collection in the local cache, encrypted under the
// main cipher key with the uid as associated data.
func (s *CollectionService) cacheSave(ctx context.Context, main *crypto.CryptoManager, col *collection.Collection) error {
	raw, err := json.Marshal(col.ToWire())
	if err != nil {
		return fmt.Errorf("marshal collection %s for cache: %w", col.UID, err)
	}
	blob, err := main.Encrypt(raw, []byte(col.UID))
	if err != nil {
		return err
	}
	return s.cache.SaveCollection(ctx, col.UID, blob)
}

// cacheSaveItem stores an item blob the same way, bound to both uids.
func (s *CollectionService) cacheSaveItem(ctx context.Context, main *crypto.CryptoManager, colUID string, item *collection.Item) error {
	raw, err := json.Marshal(item.ToWire())
	if err != nil {
		return fmt.Errorf("marshal item %s for cache: %w", item.UID, err)
	}
	blob, err := main.Encrypt(raw, []byte(colUID+"/"+item.UID))
	if err != nil {
		return err
	}
	return s.cache.SaveItem(ctx, colUID, item.UID, blob)
}
