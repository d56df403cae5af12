package sharing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodumbeats/etebase-go/internal/collection"
	"github.com/kodumbeats/etebase-go/internal/crypto"
	"github.com/kodumbeats/etebase-go/models"
)

type testUser struct {
	main *crypto.CryptoManager
	asym *crypto.AsymmetricCryptoManager
}

func newTestUser(t *testing.T, fill byte) *testUser {
	t.Helper()
	masterKey := bytes.Repeat([]byte{fill}, crypto.KeySize)
	main, err := crypto.NewMainCryptoManager(masterKey, crypto.CurrentVersion)
	require.NoError(t, err)
	asym, err := crypto.NewAsymmetricKeygen(nil)
	require.NoError(t, err)
	return &testUser{main: main, asym: asym}
}

func TestSharing_RoundTrip(t *testing.T) {
	alice := newTestUser(t, 0x01)
	bob := newTestUser(t, 0x02)

	col, err := collection.New(alice.main, collection.Meta{Type: "COLTYPE", Name: "Shared"}, []byte("shared content"))
	require.NoError(t, err)

	inv, err := Invite(alice.asym, alice.main, col, "bob", bob.asym.Pubkey(), models.AccessLevelReadWrite)
	require.NoError(t, err)
	assert.Equal(t, models.AccessLevelReadWrite, inv.AccessLevel)

	colKey, err := Accept(bob.asym, inv)
	require.NoError(t, err)
	defer crypto.Zero(colKey)

	// Bob re-wraps the key under his own main manager and can read the
	// collection afterwards.
	shared, err := collection.NewFromSharedKey(bob.main, col.ToWire(), colKey)
	require.NoError(t, err)
	require.NoError(t, shared.Verify(bob.main))

	meta, err := shared.DecryptMeta(bob.main)
	require.NoError(t, err)
	assert.Equal(t, "Shared", meta.Name)

	content, err := shared.DecryptContent(bob.main)
	require.NoError(t, err)
	assert.Equal(t, []byte("shared content"), content)
}

func TestSharing_FingerprintsMatch(t *testing.T) {
	alice := newTestUser(t, 0x01)
	bob := newTestUser(t, 0x02)

	col, err := collection.New(alice.main, collection.Meta{Type: "COLTYPE", Name: "S"}, nil)
	require.NoError(t, err)
	inv, err := Invite(alice.asym, alice.main, col, "bob", bob.asym.Pubkey(), models.AccessLevelReadOnly)
	require.NoError(t, err)

	// What Bob renders from the invitation equals what Alice sees
	// locally for her own key.
	got, err := SenderFingerprint(inv)
	require.NoError(t, err)
	assert.Equal(t, crypto.PrettyFingerprint(alice.asym.Pubkey(), ""), got)
}

func TestSharing_WrongRecipientFails(t *testing.T) {
	alice := newTestUser(t, 0x01)
	bob := newTestUser(t, 0x02)
	carol := newTestUser(t, 0x03)

	col, err := collection.New(alice.main, collection.Meta{Type: "COLTYPE", Name: "S"}, nil)
	require.NoError(t, err)
	inv, err := Invite(alice.asym, alice.main, col, "bob", bob.asym.Pubkey(), models.AccessLevelReadWrite)
	require.NoError(t, err)

	_, err = Accept(carol.asym, inv)
	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestSharing_TamperedPayloadRejected(t *testing.T) {
	alice := newTestUser(t, 0x01)
	bob := newTestUser(t, 0x02)

	col, err := collection.New(alice.main, collection.Meta{Type: "COLTYPE", Name: "S"}, nil)
	require.NoError(t, err)
	inv, err := Invite(alice.asym, alice.main, col, "bob", bob.asym.Pubkey(), models.AccessLevelReadOnly)
	require.NoError(t, err)

	// Escalating the access level breaks the signature.
	inv.AccessLevel = models.AccessLevelAdmin

	_, err = Accept(bob.asym, inv)
	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestSharing_ForgedSenderRejected(t *testing.T) {
	alice := newTestUser(t, 0x01)
	bob := newTestUser(t, 0x02)
	mallory := newTestUser(t, 0x04)

	col, err := collection.New(alice.main, collection.Meta{Type: "COLTYPE", Name: "S"}, nil)
	require.NoError(t, err)
	inv, err := Invite(alice.asym, alice.main, col, "bob", bob.asym.Pubkey(), models.AccessLevelReadOnly)
	require.NoError(t, err)

	// Swapping the claimed sender invalidates the signature check.
	inv.SenderPubkey = crypto.ToBase64(mallory.asym.Pubkey())

	_, err = Accept(bob.asym, inv)
	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestSharing_RejectsUnknownAccessLevel(t *testing.T) {
	alice := newTestUser(t, 0x01)
	bob := newTestUser(t, 0x02)

	col, err := collection.New(alice.main, collection.Meta{Type: "COLTYPE", Name: "S"}, nil)
	require.NoError(t, err)

	_, err = Invite(alice.asym, alice.main, col, "bob", bob.asym.Pubkey(), models.AccessLevel("root"))
	require.Error(t, err)
}
