// SPDX-License-Identifier: Apache-2.0

package crypto

// Context labels of the key-derivation tree. At most 8 ASCII bytes;
// DeriveSubkey space-pads them to exactly 8. Each label roots an
// independent subtree of the account key hierarchy.
const (
	contextMain       = "Main"
	contextLogin      = "Login"
	contextCollection = "Col"
	contextItem       = "ColItem"
)

// NewMainCryptoManager derives the account-level crypto manager from
// the password-derived master key. It wraps collection keys and the
// account's encrypted content blob.
func NewMainCryptoManager(masterKey []byte, version uint8) (*CryptoManager, error) {
	return NewCryptoManager(masterKey, contextMain, version)
}

// NewLoginCryptoManager derives the login scope from the master key.
// Its asymmetric seed yields the Ed25519 keypair used for
// challenge-response login; nothing is ever encrypted under it.
func NewLoginCryptoManager(masterKey []byte, version uint8) (*CryptoManager, error) {
	return NewCryptoManager(masterKey, contextLogin, version)
}

// NewCollectionCryptoManager derives a collection's crypto manager from
// its unwrapped 32-byte collection key.
func NewCollectionCryptoManager(collectionKey []byte, version uint8) (*CryptoManager, error) {
	return NewCryptoManager(collectionKey, contextCollection, version)
}

// NewItemCryptoManager derives an item's crypto manager from its
// unwrapped 32-byte item key.
func NewItemCryptoManager(itemKey []byte, version uint8) (*CryptoManager, error) {
	return NewCryptoManager(itemKey, contextItem, version)
}
