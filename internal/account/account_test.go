package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/models"
)

const testServerURL = "https://sync.example.com"

func TestAccount_SignupLoginRoundTrip(t *testing.T) {
	acc, err := Signup("alice", "alice@example.com", "hunter2 is not enough", testServerURL)
	require.NoError(t, err)

	require.NotEmpty(t, acc.User.Salt)
	require.NotEmpty(t, acc.User.LoginPubkey)
	require.NotEmpty(t, acc.User.Pubkey)
	require.NotEmpty(t, acc.User.EncryptedContent)

	// The server hands back the stored record at login; the password
	// must unlock the same identity.
	restored, err := Login(acc.User, "hunter2 is not enough", "token-1", testServerURL)
	require.NoError(t, err)
	assert.Equal(t, acc.Identity().Pubkey(), restored.Identity().Pubkey())
}

func TestAccount_WrongPasswordFailsLogin(t *testing.T) {
	acc, err := Signup("bob", "bob@example.com", "original passphrase", testServerURL)
	require.NoError(t, err)

	_, err = Login(acc.User, "wrong passphrase", "token-1", testServerURL)
	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestAccount_SignChallengeVerifiesUnderLoginPubkey(t *testing.T) {
	acc, err := Signup("carol", "carol@example.com", "pass phrase", testServerURL)
	require.NoError(t, err)

	challenge, err := crypto.RandomBytes(32)
	require.NoError(t, err)
	ch := models.LoginChallenge{
		Salt:      acc.User.Salt,
		Challenge: crypto.ToBase64(challenge),
		Version:   crypto.CurrentVersion,
	}

	req, err := SignChallenge("carol", "pass phrase", ch, "sync.example.com", ActionLogin)
	require.NoError(t, err)

	// The server verifies the signature against the published login
	// pubkey over the same feed.
	loginPub, err := crypto.FromBase64(acc.User.LoginPubkey)
	require.NoError(t, err)
	sig, err := crypto.FromBase64(req.Signature)
	require.NoError(t, err)
	feed := responseFeed("carol", challenge, "sync.example.com", ActionLogin)
	assert.True(t, crypto.VerifyDetached(feed, sig, loginPub))
}

func TestAccount_SignChallengeRefusesUnknownVersion(t *testing.T) {
	ch := models.LoginChallenge{Version: crypto.CurrentVersion + 1}
	_, err := SignChallenge("dave", "pw", ch, "host", ActionLogin)
	var versionErr *crypto.VersionError
	require.ErrorAs(t, err, &versionErr)
}

func TestAccount_ChangePassword(t *testing.T) {
	acc, err := Signup("erin", "erin@example.com", "old password", testServerURL)
	require.NoError(t, err)
	oldLoginPubkey := acc.User.LoginPubkey

	req, err := acc.ChangePassword("new password")
	require.NoError(t, err)

	assert.NotEqual(t, oldLoginPubkey, req.LoginPubkey)
	assert.Equal(t, acc.User.LoginPubkey, req.LoginPubkey)

	// The updated record unlocks with the new password only.
	relogged, err := Login(acc.User, "new password", "token-2", testServerURL)
	require.NoError(t, err)
	assert.Equal(t, acc.Identity().Pubkey(), relogged.Identity().Pubkey())

	_, err = Login(acc.User, "old password", "token-2", testServerURL)
	require.Error(t, err)
}

func TestAccount_SaveRestoreRoundTrip(t *testing.T) {
	acc, err := Signup("frank", "frank@example.com", "some password", testServerURL)
	require.NoError(t, err)
	acc.AuthToken = "session-token"

	data, err := acc.Save()
	require.NoError(t, err)

	raw, err := MarshalAccountData(data)
	require.NoError(t, err)
	parsed, err := UnmarshalAccountData(raw)
	require.NoError(t, err)
	assert.Equal(t, data, parsed)

	restored, err := Restore(parsed)
	require.NoError(t, err)
	assert.Equal(t, acc.Identity().Pubkey(), restored.Identity().Pubkey())
	assert.Equal(t, "session-token", restored.AuthToken)

	// Restore does not run the password KDF, so the main managers must
	// still agree.
	main, err := acc.MainCryptoManager()
	require.NoError(t, err)
	restoredMain, err := restored.MainCryptoManager()
	require.NoError(t, err)
	ct, err := main.Encrypt([]byte("cross"), nil)
	require.NoError(t, err)
	plain, err := restoredMain.Decrypt(ct, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("cross"), plain)
}

func TestAccount_LogoutZeroizesMasterKey(t *testing.T) {
	acc, err := Signup("grace", "grace@example.com", "pw pw pw", testServerURL)
	require.NoError(t, err)

	acc.Logout()

	_, err = acc.MainCryptoManager()
	require.Error(t, err)
	_, err = acc.Save()
	require.Error(t, err)
	assert.Nil(t, acc.Identity())
}
