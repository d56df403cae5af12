// SPDX-License-Identifier: Apache-2.0

package collection

import (
	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/models"
)

// Meta is the decrypted collection metadata schema.
type Meta struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Collection is a long-lived encrypted container. Its symmetric key is
// wrapped under the account's main cipher key and only ever unwrapped
// on demand; the derived crypto manager is ephemeral.
type Collection struct {
	UID         string
	Version     uint8
	AccessLevel models.AccessLevel

	// Ctag and Stoken are server-issued concurrency tokens, opaque
	// here and forwarded unchanged.
	Ctag   string
	Stoken string

	encryptionKey []byte
	content       *Revision
}

// New creates a collection: a fresh alphanumeric uid, a fresh random
// collection key wrapped under main, and an initial revision carrying
// meta and content.
func New(main *crypto.CryptoManager, meta Meta, content []byte) (*Collection, error) {
	uid, err := crypto.GenUID()
	if err != nil {
		return nil, err
	}
	colKey, err := crypto.RandomBytes(crypto.KeySize)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(colKey)

	wrapped, err := main.Encrypt(colKey, nil)
	if err != nil {
		return nil, err
	}

	col := &Collection{
		UID:           uid,
		Version:       main.Version(),
		AccessLevel:   models.AccessLevelAdmin,
		encryptionKey: wrapped,
	}
	cm, err := crypto.NewCollectionCryptoManager(colKey, col.Version)
	if err != nil {
		return nil, err
	}
	defer cm.Wipe()

	chunks, err := makeChunks(cm, content)
	if err != nil {
		return nil, err
	}
	rev, err := NewRevision(cm, col.additionalData(), meta, chunks, false)
	if err != nil {
		return nil, err
	}
	col.content = rev
	return col, nil
}

// additionalData binds revisions to this collection's identity.
func (c *Collection) additionalData() [][]byte {
	return [][]byte{[]byte(c.UID)}
}

// CryptoManager unwraps the collection key with the account's main
// manager and derives the collection-scoped manager. Callers own the
// result and should Wipe it when done; it is not cached.
func (c *Collection) CryptoManager(main *crypto.CryptoManager) (*crypto.CryptoManager, error) {
	colKey, err := main.Decrypt(c.encryptionKey, nil)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(colKey)
	return crypto.NewCollectionCryptoManager(colKey, c.Version)
}

// Key unwraps and returns the raw collection key. Used when sharing;
// callers must Zero it after wrapping it to the recipient.
func (c *Collection) Key(main *crypto.CryptoManager) ([]byte, error) {
	return main.Decrypt(c.encryptionKey, nil)
}

// Verify checks the current revision against the collection identity.
// A failure rejects the whole object as tampered.
func (c *Collection) Verify(main *crypto.CryptoManager) error {
	cm, err := c.CryptoManager(main)
	if err != nil {
		return err
	}
	defer cm.Wipe()
	return c.content.Verify(cm, c.additionalData())
}

// DecryptMeta decrypts the current revision's metadata.
func (c *Collection) DecryptMeta(main *crypto.CryptoManager) (Meta, error) {
	cm, err := c.CryptoManager(main)
	if err != nil {
		return Meta{}, err
	}
	defer cm.Wipe()

	var meta Meta
	if err := c.content.DecryptMeta(cm, &meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// DecryptContent decrypts and concatenates the current revision's
// content chunks.
func (c *Collection) DecryptContent(main *crypto.CryptoManager) ([]byte, error) {
	cm, err := c.CryptoManager(main)
	if err != nil {
		return nil, err
	}
	defer cm.Wipe()
	return decryptChunks(cm, c.content.Chunks)
}

// SetMeta replaces the metadata by creating a fresh revision around the
// existing content chunks. The previous revision is never mutated.
func (c *Collection) SetMeta(main *crypto.CryptoManager, meta Meta) error {
	cm, err := c.CryptoManager(main)
	if err != nil {
		return err
	}
	defer cm.Wipe()

	rev, err := NewRevision(cm, c.additionalData(), meta, c.content.Chunks, c.content.Deleted)
	if err != nil {
		return err
	}
	c.content = rev
	return nil
}

// SetContent replaces the content with a fresh revision, carrying the
// current metadata over re-encrypted under a fresh nonce.
func (c *Collection) SetContent(main *crypto.CryptoManager, content []byte) error {
	cm, err := c.CryptoManager(main)
	if err != nil {
		return err
	}
	defer cm.Wipe()

	metaCipher, err := reencryptMeta(cm, c.content)
	if err != nil {
		return err
	}
	chunks, err := makeChunks(cm, content)
	if err != nil {
		return err
	}
	rev, err := newRevisionFromCipher(cm, c.additionalData(), metaCipher, chunks, c.content.Deleted)
	if err != nil {
		return err
	}
	c.content = rev
	return nil
}

// Remove tombstones the collection: a deleted revision that still
// carries the previous metadata, so listings can render what was
// removed. Content chunks are cleared.
func (c *Collection) Remove(main *crypto.CryptoManager) error {
	cm, err := c.CryptoManager(main)
	if err != nil {
		return err
	}
	defer cm.Wipe()

	metaCipher, err := reencryptMeta(cm, c.content)
	if err != nil {
		return err
	}
	rev, err := newRevisionFromCipher(cm, c.additionalData(), metaCipher, nil, true)
	if err != nil {
		return err
	}
	c.content = rev
	return nil
}

// Rewrap moves the collection key from one main manager to another.
// Used after a password change, when the main cipher key rolls over and
// every wrapped collection key must follow.
func (c *Collection) Rewrap(oldMain, newMain *crypto.CryptoManager) error {
	colKey, err := oldMain.Decrypt(c.encryptionKey, nil)
	if err != nil {
		return err
	}
	defer crypto.Zero(colKey)

	wrapped, err := newMain.Encrypt(colKey, nil)
	if err != nil {
		return err
	}
	c.encryptionKey = wrapped
	return nil
}

// IsDeleted reports whether the current revision is a tombstone.
func (c *Collection) IsDeleted() bool {
	return c.content.Deleted
}

// Content returns the current revision.
func (c *Collection) Content() *Revision {
	return c.content
}

// reencryptMeta decrypts a revision's meta and encrypts it again so the
// new revision gets a fresh nonce. Returns nil when there is no meta.
func reencryptMeta(cm *crypto.CryptoManager, rev *Revision) ([]byte, error) {
	plain, err := rev.decryptMetaRaw(cm)
	if err != nil {
		return nil, err
	}
	if plain == nil {
		return nil, nil
	}
	defer crypto.Zero(plain)
	return cm.Encrypt(plain, nil)
}

// ToWire converts the collection to its transport shape.
func (c *Collection) ToWire() models.EncryptedCollection {
	return models.EncryptedCollection{
		UID:           c.UID,
		Version:       c.Version,
		EncryptionKey: crypto.ToBase64(c.encryptionKey),
		Content:       c.content.ToWire(),
		AccessLevel:   c.AccessLevel,
		Ctag:          c.Ctag,
		Stoken:        c.Stoken,
	}
}

// FromWire parses a transport collection. The caller is expected to
// Verify it before trusting any field.
func FromWire(w models.EncryptedCollection) (*Collection, error) {
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
	return &Collection{
		UID:           w.UID,
		Version:       w.Version,
		AccessLevel:   w.AccessLevel,
		Ctag:          w.Ctag,
		Stoken:        w.Stoken,
		encryptionKey: key,
		content:       content,
	}, nil
}

// NewFromSharedKey rebuilds a collection around a key received through
// an invitation: the raw collection key is re-wrapped under the
// recipient's own main manager and replaces the inviter's wrapping.
func NewFromSharedKey(main *crypto.CryptoManager, w models.EncryptedCollection, colKey []byte) (*Collection, error) {
	col, err := FromWire(w)
	if err != nil {
		return nil, err
	}
	wrapped, err := main.Encrypt(colKey, nil)
	if err != nil {
		return nil, err
	}
	col.encryptionKey = wrapped
	return col, nil
}
