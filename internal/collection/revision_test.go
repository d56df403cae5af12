package collection

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodumbeats/etebase-go/internal/crypto"
)

func newTestManager(t *testing.T) *crypto.CryptoManager {
	t.Helper()
	key := bytes.Repeat([]byte{0x61}, crypto.KeySize)
	cm, err := crypto.NewCollectionCryptoManager(key, crypto.CurrentVersion)
	require.NoError(t, err)
	return cm
}

func TestRevision_CreateAndVerify(t *testing.T) {
	cm := newTestManager(t)
	ad := [][]byte{[]byte("parent-uid")}

	rev, err := NewRevision(cm, ad, Meta{Type: "COLTYPE", Name: "Calendar"}, nil, false)
	require.NoError(t, err)

	require.NotEmpty(t, rev.UID)
	require.NoError(t, rev.Verify(cm, ad))
}

func TestRevision_VerifyFailsWithDifferentAdditionalData(t *testing.T) {
	cm := newTestManager(t)

	rev, err := NewRevision(cm, [][]byte{[]byte("uid-a")}, Meta{Type: "T"}, nil, false)
	require.NoError(t, err)

	err = rev.Verify(cm, [][]byte{[]byte("uid-b")})
	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
}

func TestRevision_UIDTamperDetected(t *testing.T) {
	cm := newTestManager(t)
	ad := [][]byte{[]byte("parent-uid")}

	rev, err := NewRevision(cm, ad, Meta{Type: "T"}, nil, false)
	require.NoError(t, err)

	raw, err := crypto.FromBase64(rev.UID)
	require.NoError(t, err)
	raw[0] ^= 0x01
	rev.UID = crypto.ToBase64(raw)

	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, rev.Verify(cm, ad), &integrityErr)
}

func TestRevision_MetaTamperDetected(t *testing.T) {
	cm := newTestManager(t)
	ad := [][]byte{[]byte("parent-uid")}

	rev, err := NewRevision(cm, ad, Meta{Type: "T", Name: "N"}, nil, false)
	require.NoError(t, err)

	// Flip one byte inside the stored meta ciphertext.
	rev.meta[len(rev.meta)-1] ^= 0x01

	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, rev.Verify(cm, ad), &integrityErr)

	var meta Meta
	require.ErrorAs(t, rev.DecryptMeta(cm, &meta), &integrityErr)
}

func TestRevision_ChunkTamperDetected(t *testing.T) {
	cm := newTestManager(t)
	ad := [][]byte{[]byte("parent-uid")}

	chunks, err := makeChunks(cm, []byte{1, 2, 3, 5})
	require.NoError(t, err)
	rev, err := NewRevision(cm, ad, Meta{Type: "T"}, chunks, false)
	require.NoError(t, err)

	raw, err := crypto.FromBase64(rev.Chunks[0].UID)
	require.NoError(t, err)
	raw[3] ^= 0x01
	rev.Chunks[0].UID = crypto.ToBase64(raw)

	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, rev.Verify(cm, ad), &integrityErr)
}

func TestRevision_DeletedFlagIsBound(t *testing.T) {
	cm := newTestManager(t)
	ad := [][]byte{[]byte("parent-uid")}

	rev, err := NewRevision(cm, ad, Meta{Type: "T"}, nil, false)
	require.NoError(t, err)

	rev.Deleted = true
	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, rev.Verify(cm, ad), &integrityErr)
}

func TestRevision_NoMeta(t *testing.T) {
	cm := newTestManager(t)
	ad := [][]byte{[]byte("parent-uid")}

	rev, err := NewRevision(cm, ad, nil, nil, false)
	require.NoError(t, err)

	assert.False(t, rev.HasMeta())
	require.NoError(t, rev.Verify(cm, ad))

	var meta Meta
	var encodingErr *crypto.EncodingError
	require.ErrorAs(t, rev.DecryptMeta(cm, &meta), &encodingErr)
}

func TestRevision_WireRoundTrip(t *testing.T) {
	cm := newTestManager(t)
	ad := [][]byte{[]byte("parent-uid")}

	chunks, err := makeChunks(cm, []byte("chunk content"))
	require.NoError(t, err)
	rev, err := NewRevision(cm, ad, Meta{Type: "T", Name: "N"}, chunks, false)
	require.NoError(t, err)

	parsed, err := RevisionFromWire(rev.ToWire())
	require.NoError(t, err)

	require.NoError(t, parsed.Verify(cm, ad))
	assert.Equal(t, rev.UID, parsed.UID)

	var meta Meta
	require.NoError(t, parsed.DecryptMeta(cm, &meta))
	assert.Equal(t, "N", meta.Name)

	content, err := decryptChunks(cm, parsed.Chunks)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk content"), content)
}

func TestRevision_WireRejectsBadBase64(t *testing.T) {
	cm := newTestManager(t)
	rev, err := NewRevision(cm, nil, Meta{Type: "T"}, nil, false)
	require.NoError(t, err)

	w := rev.ToWire()
	bad := "!!!"
	w.Meta = &bad

	_, err = RevisionFromWire(w)
	var encodingErr *crypto.EncodingError
	require.ErrorAs(t, err, &encodingErr)
}
