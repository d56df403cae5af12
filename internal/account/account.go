// SPDX-License-Identifier: Apache-2.0

// Package account implements the account root of the key hierarchy:
// password-derived login and master keys, the encrypted content blob
// holding the long-term identity keypair, challenge-response login
// material, password change, and the persisted AccountData export.
package account

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/models"
)

// Login challenge-response actions understood by the server.
const (
	ActionLogin          = "login"
	ActionChangePassword = "changePassword"
)

// Account is a logged-in account. It exclusively owns the master key;
// Logout zeroizes it.
type Account struct {
	Version   uint8
	User      models.User
	ServerURL string
	AuthToken string

	masterKey []byte
	identity  *crypto.AsymmetricCryptoManager
}

// Signup prepares the key material of a new account entirely offline:
// fresh salt, password-derived master key, login keypair from the login
// subtree, a random long-term identity keypair, and the identity secret
// encrypted under the main cipher key. The returned User record is what
// gets published to the server.
func Signup(username, email, password, serverURL string) (*Account, error) {
	salt, err := crypto.RandomBytes(crypto.SaltSize)
	if err != nil {
		return nil, err
	}
	masterKey, err := crypto.DeriveKey(salt, password)
	if err != nil {
		return nil, err
	}

	main, err := crypto.NewMainCryptoManager(masterKey, crypto.CurrentVersion)
	if err != nil {
		return nil, err
	}
	defer main.Wipe()
	login, err := loginKeypair(masterKey)
	if err != nil {
		return nil, err
	}
	defer login.Wipe()

	identity, err := crypto.NewAsymmetricKeygen(nil)
	if err != nil {
		return nil, err
	}

	encryptedContent, err := main.Encrypt(identity.PrivateKey(), nil)
	if err != nil {
		return nil, err
	}

	return &Account{
		Version:   crypto.CurrentVersion,
		ServerURL: serverURL,
		masterKey: masterKey,
		identity:  identity,
		User: models.User{
			Username:         username,
			Email:            email,
			Salt:             crypto.ToBase64(salt),
			LoginPubkey:      crypto.ToBase64(login.Pubkey()),
			Pubkey:           crypto.ToBase64(identity.Pubkey()),
			EncryptedContent: crypto.ToBase64(encryptedContent),
		},
	}, nil
}

// SignChallenge answers a server login challenge: it re-derives the
// login keypair from password and the challenge's salt and signs the
// canonical response feed. Used before any Account exists locally.
func SignChallenge(username, password string, ch models.LoginChallenge, host, action string) (models.LoginRequest, error) {
	if ch.Version > crypto.CurrentVersion {
		return models.LoginRequest{}, &crypto.VersionError{Version: ch.Version}
	}
	salt, err := crypto.FromBase64(ch.Salt)
	if err != nil {
		return models.LoginRequest{}, err
	}
	masterKey, err := crypto.DeriveKey(salt, password)
	if err != nil {
		return models.LoginRequest{}, err
	}
	defer crypto.Zero(masterKey)

	login, err := loginKeypair(masterKey)
	if err != nil {
		return models.LoginRequest{}, err
	}
	defer login.Wipe()

	challenge, err := crypto.FromBase64(ch.Challenge)
	if err != nil {
		return models.LoginRequest{}, err
	}
	sig := login.SignDetached(responseFeed(username, challenge, host, action))

	return models.LoginRequest{
		Username:  username,
		Challenge: ch.Challenge,
		Host:      host,
		Action:    action,
		Signature: crypto.ToBase64(sig),
	}, nil
}

// Login unlocks the account from the server's login response: the
// master key is re-derived from the password, the content blob is
// decrypted, and the identity keypair reconstituted. A stored pubkey
// that does not match the decrypted secret key is treated as tampering.
func Login(user models.User, password, token, serverURL string) (*Account, error) {
	salt, err := crypto.FromBase64(user.Salt)
	if err != nil {
		return nil, err
	}
	masterKey, err := crypto.DeriveKey(salt, password)
	if err != nil {
		return nil, err
	}

	acc := &Account{
		Version:   crypto.CurrentVersion,
		User:      user,
		ServerURL: serverURL,
		AuthToken: token,
		masterKey: masterKey,
	}
	if err := acc.unlockIdentity(); err != nil {
		crypto.Zero(masterKey)
		return nil, err
	}
	return acc, nil
}

// unlockIdentity decrypts the content blob and checks the embedded
// public key against the published one.
func (a *Account) unlockIdentity() error {
	main, err := a.MainCryptoManager()
	if err != nil {
		return err
	}
	defer main.Wipe()

	encryptedContent, err := crypto.FromBase64(a.User.EncryptedContent)
	if err != nil {
		return err
	}
	sk, err := main.Decrypt(encryptedContent, nil)
	if err != nil {
		return err
	}
	defer crypto.Zero(sk)

	identity, err := crypto.NewAsymmetricFromPrivateKey(sk)
	if err != nil {
		return &crypto.EncodingError{Object: a.User.Username, Reason: err.Error()}
	}
	pubkey, err := crypto.FromBase64(a.User.Pubkey)
	if err != nil {
		return err
	}
	if !bytes.Equal(identity.Pubkey(), pubkey) {
		return &crypto.IntegrityError{Object: a.User.Username, Reason: "stored pubkey does not match decrypted identity"}
	}
	a.identity = identity
	return nil
}

// MainCryptoManager derives the account's main crypto manager. Callers
// own the result and should Wipe it when done.
func (a *Account) MainCryptoManager() (*crypto.CryptoManager, error) {
	if a.masterKey == nil {
		return nil, fmt.Errorf("account is logged out")
	}
	return crypto.NewMainCryptoManager(a.masterKey, a.Version)
}

// Identity returns the long-term identity keypair manager.
func (a *Account) Identity() *crypto.AsymmetricCryptoManager {
	return a.identity
}

// ChangePassword re-derives the login and master keys from newPassword
// (the salt is stable for the account's lifetime), re-encrypts the
// content blob under the new main cipher key, and returns the request
// the server applies atomically. The account switches to the new master
// key immediately; collection keys wrapped under the old main key must
// be re-wrapped through the same coordinated operation.
func (a *Account) ChangePassword(newPassword string) (models.PasswordChangeRequest, error) {
	if a.masterKey == nil || a.identity == nil {
		return models.PasswordChangeRequest{}, fmt.Errorf("account is logged out")
	}
	salt, err := crypto.FromBase64(a.User.Salt)
	if err != nil {
		return models.PasswordChangeRequest{}, err
	}
	newMasterKey, err := crypto.DeriveKey(salt, newPassword)
	if err != nil {
		return models.PasswordChangeRequest{}, err
	}

	newMain, err := crypto.NewMainCryptoManager(newMasterKey, a.Version)
	if err != nil {
		crypto.Zero(newMasterKey)
		return models.PasswordChangeRequest{}, err
	}
	defer newMain.Wipe()
	newLogin, err := loginKeypair(newMasterKey)
	if err != nil {
		crypto.Zero(newMasterKey)
		return models.PasswordChangeRequest{}, err
	}
	defer newLogin.Wipe()

	encryptedContent, err := newMain.Encrypt(a.identity.PrivateKey(), nil)
	if err != nil {
		crypto.Zero(newMasterKey)
		return models.PasswordChangeRequest{}, err
	}

	crypto.Zero(a.masterKey)
	a.masterKey = newMasterKey
	a.User.LoginPubkey = crypto.ToBase64(newLogin.Pubkey())
	a.User.EncryptedContent = crypto.ToBase64(encryptedContent)

	return models.PasswordChangeRequest{
		LoginPubkey:      a.User.LoginPubkey,
		EncryptedContent: a.User.EncryptedContent,
	}, nil
}

// Save exports the account as a persisted AccountData blob. The export
// contains the master key; it must only land on trusted storage.
func (a *Account) Save() (models.AccountData, error) {
	if a.masterKey == nil {
		return models.AccountData{}, fmt.Errorf("account is logged out")
	}
	return models.AccountData{
		Version:   a.Version,
		Key:       crypto.ToBase64(a.masterKey),
		User:      a.User,
		ServerURL: a.ServerURL,
		AuthToken: a.AuthToken,
	}, nil
}

// Restore rebuilds an account from a persisted AccountData blob without
// re-running the password KDF.
func Restore(data models.AccountData) (*Account, error) {
	if data.Version > crypto.CurrentVersion {
		return nil, &crypto.VersionError{Version: data.Version}
	}
	masterKey, err := crypto.FromBase64(data.Key)
	if err != nil {
		return nil, err
	}
	if len(masterKey) != crypto.KeySize {
		return nil, &crypto.EncodingError{Object: data.User.Username, Reason: "master key has wrong size"}
	}

	acc := &Account{
		Version:   data.Version,
		User:      data.User,
		ServerURL: data.ServerURL,
		AuthToken: data.AuthToken,
		masterKey: masterKey,
	}
	if err := acc.unlockIdentity(); err != nil {
		crypto.Zero(masterKey)
		return nil, err
	}
	return acc, nil
}

// MarshalAccountData round-trips through JSON; the field set is frozen
// per protocol version so exports stay byte-compatible.
func MarshalAccountData(data models.AccountData) ([]byte, error) {
	return json.Marshal(data)
}

// UnmarshalAccountData parses a persisted export.
func UnmarshalAccountData(raw []byte) (models.AccountData, error) {
	var data models.AccountData
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.AccountData{}, &crypto.EncodingError{Reason: "unmarshal account data: " + err.Error()}
	}
	return data, nil
}

// Logout zeroizes the master key and the identity secret. The account
// is unusable afterwards.
func (a *Account) Logout() {
	if a.masterKey != nil {
		crypto.Zero(a.masterKey)
		a.masterKey = nil
	}
	if a.identity != nil {
		a.identity.Wipe()
		a.identity = nil
	}
	a.AuthToken = ""
}

// loginKeypair derives the deterministic login keypair from the master
// key's login subtree.
func loginKeypair(masterKey []byte) (*crypto.AsymmetricCryptoManager, error) {
	login, err := crypto.NewLoginCryptoManager(masterKey, crypto.CurrentVersion)
	if err != nil {
		return nil, err
	}
	defer login.Wipe()
	seed := make([]byte, ed25519.SeedSize)
	copy(seed, login.AsymKeySeed())
	return crypto.NewAsymmetricKeygen(seed)
}

// responseFeed is the canonical byte feed signed during
// challenge-response: username, raw challenge, host, action, in fixed
// order with zero-byte separators.
func responseFeed(username string, challenge []byte, host, action string) []byte {
	feed := make([]byte, 0, len(username)+len(challenge)+len(host)+len(action)+3)
	feed = append(feed, []byte(username)...)
	feed = append(feed, 0x00)
	feed = append(feed, challenge...)
	feed = append(feed, 0x00)
	feed = append(feed, []byte(host)...)
	feed = append(feed, 0x00)
	feed = append(feed, []byte(action)...)
	return feed
}
