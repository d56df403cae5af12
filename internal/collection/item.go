// SPDX-License-Identifier: Apache-2.0

package collection

import (
	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/models"
)

// ItemMeta is the decrypted item metadata schema. Item types may extend
// it; Type is the only field every item carries.
type ItemMeta struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Mtime int64  `json:"mtime,omitempty"`
}

// Item is an encrypted record inside a collection. Same shape as a
// collection, but its key is wrapped under the parent collection's
// cipher key and its crypto scope uses the item context label.
type Item struct {
	UID     string
	Version uint8

	// Etag is the server-issued per-item concurrency token.
	Etag string

	encryptionKey []byte
	content       *Revision
}

// NewItem creates an item under parentCM, the collection's crypto
// manager: fresh uid, fresh wrapped item key, initial revision.
func NewItem(parentCM *crypto.CryptoManager, meta ItemMeta, content []byte) (*Item, error) {
	uid, err := crypto.GenUID()
	if err != nil {
		return nil, err
	}
	itemKey, err := crypto.RandomBytes(crypto.KeySize)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(itemKey)

	wrapped, err := parentCM.Encrypt(itemKey, nil)
	if err != nil {
		return nil, err
	}

	item := &Item{
		UID:           uid,
		Version:       parentCM.Version(),
		encryptionKey: wrapped,
	}
	cm, err := crypto.NewItemCryptoManager(itemKey, item.Version)
	if err != nil {
		return nil, err
	}
	defer cm.Wipe()

	chunks, err := makeChunks(cm, content)
	if err != nil {
		return nil, err
	}
	rev, err := NewRevision(cm, item.additionalData(), meta, chunks, false)
	if err != nil {
		return nil, err
	}
	item.content = rev
	return item, nil
}

func (i *Item) additionalData() [][]byte {
	return [][]byte{[]byte(i.UID)}
}

// CryptoManager unwraps the item key with the parent collection's
// manager and derives the item-scoped manager.
func (i *Item) CryptoManager(parentCM *crypto.CryptoManager) (*crypto.CryptoManager, error) {
	itemKey, err := parentCM.Decrypt(i.encryptionKey, nil)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(itemKey)
	return crypto.NewItemCryptoManager(itemKey, i.Version)
}

// Verify checks the current revision against the item identity.
func (i *Item) Verify(parentCM *crypto.CryptoManager) error {
	cm, err := i.CryptoManager(parentCM)
	if err != nil {
		return err
	}
	defer cm.Wipe()
	return i.content.Verify(cm, i.additionalData())
}

// DecryptMeta decrypts the current revision's metadata.
func (i *Item) DecryptMeta(parentCM *crypto.CryptoManager) (ItemMeta, error) {
	cm, err := i.CryptoManager(parentCM)
	if err != nil {
		return ItemMeta{}, err
	}
	defer cm.Wipe()

	var meta ItemMeta
	if err := i.content.DecryptMeta(cm, &meta); err != nil {
		return ItemMeta{}, err
	}
	return meta, nil
}

// DecryptContent decrypts the current revision's content chunks.
func (i *Item) DecryptContent(parentCM *crypto.CryptoManager) ([]byte, error) {
	cm, err := i.CryptoManager(parentCM)
	if err != nil {
		return nil, err
	}
	defer cm.Wipe()
	return decryptChunks(cm, i.content.Chunks)
}

// SetMeta replaces the metadata with a fresh revision around the
// existing chunks.
func (i *Item) SetMeta(parentCM *crypto.CryptoManager, meta ItemMeta) error {
	cm, err := i.CryptoManager(parentCM)
	if err != nil {
		return err
	}
	defer cm.Wipe()

	rev, err := NewRevision(cm, i.additionalData(), meta, i.content.Chunks, i.content.Deleted)
	if err != nil {
		return err
	}
	i.content = rev
	return nil
}

// SetContent replaces the content, carrying the current metadata over
// re-encrypted under a fresh nonce.
func (i *Item) SetContent(parentCM *crypto.CryptoManager, content []byte) error {
	cm, err := i.CryptoManager(parentCM)
	if err != nil {
		return err
	}
	defer cm.Wipe()

	metaCipher, err := reencryptMeta(cm, i.content)
	if err != nil {
		return err
	}
	chunks, err := makeChunks(cm, content)
	if err != nil {
		return err
	}
	rev, err := newRevisionFromCipher(cm, i.additionalData(), metaCipher, chunks, i.content.Deleted)
	if err != nil {
		return err
	}
	i.content = rev
	return nil
}

// Remove tombstones the item, keeping its metadata readable.
func (i *Item) Remove(parentCM *crypto.CryptoManager) error {
	cm, err := i.CryptoManager(parentCM)
	if err != nil {
		return err
	}
	defer cm.Wipe()

	metaCipher, err := reencryptMeta(cm, i.content)
	if err != nil {
		return err
	}
	rev, err := newRevisionFromCipher(cm, i.additionalData(), metaCipher, nil, true)
	if err != nil {
		return err
	}
	i.content = rev
	return nil
}

// IsDeleted reports whether the current revision is a tombstone.
func (i *Item) IsDeleted() bool {
	return i.content.Deleted
}

// Content returns the current revision.
func (i *Item) Content() *Revision {
	return i.content
}

// ToWire converts the item to its transport shape.
func (i *Item) ToWire() models.EncryptedItem {
	return models.EncryptedItem{
		UID:           i.UID,
		Version:       i.Version,
		EncryptionKey: crypto.ToBase64(i.encryptionKey),
		Content:       i.content.ToWire(),
		Etag:          i.Etag,
	}
}

// ItemFromWire parses a transport item.
func ItemFromWire(w models.EncryptedItem) (*Item, error) {
	if w.Version > crypto.CurrentVersion {
		return nil, &crypto.VersionError{Version: w.Version}
	}
	key, err := crypto.FromBase64(w.EncryptionKey)
	if err != nil {
		return nil, err
	}
	content, err := RevisionFromWire(w.Content)
	if err != nil {
		return nil, err
	}
	return &Item{
		UID:           w.UID,
		Version:       w.Version,
		Etag:          w.Etag,
		encryptionKey: key,
		content:       content,
	}, nil
}
