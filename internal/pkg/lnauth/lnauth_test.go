package lnauth

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyPair(t *testing.T) (*btcec.PrivateKey, string) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv, hex.EncodeToString(priv.PubKey().SerializeCompressed())
}

func TestVerifyMessage_RoundTrip(t *testing.T) {
	priv, pubHex := newKeyPair(t)
	msg := "deadbeef_1700000000"

	sig := SignMessage(msg, priv)

	ok, err := VerifyMessage(msg, sig, pubHex)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyMessage_WrongKey_ReturnsFalse(t *testing.T) {
	priv, _ := newKeyPair(t)
	_, otherPubHex := newKeyPair(t)
	msg := "deadbeef_1700000000"

	sig := SignMessage(msg, priv)

	ok, err := VerifyMessage(msg, sig, otherPubHex)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyMessage_TamperedMessage_ReturnsFalse(t *testing.T) {
	priv, pubHex := newKeyPair(t)

	sig := SignMessage("original", priv)

	ok, err := VerifyMessage("tampered", sig, pubHex)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyMessage_MalformedSignature_ReturnsError(t *testing.T) {
	_, pubHex := newKeyPair(t)

	_, err := VerifyMessage("msg", "not-hex", pubHex)
	assert.Error(t, err)

	_, err = VerifyMessage("msg", "abcd", pubHex)
	assert.Error(t, err)
}

func TestVerifyMessage_MalformedPubkey_ReturnsError(t *testing.T) {
	priv, _ := newKeyPair(t)
	sig := SignMessage("msg", priv)

	_, err := VerifyMessage("msg", sig, "zz")
	assert.Error(t, err)

	_, err = VerifyMessage("msg", sig, "abcd")
	assert.Error(t, err)
}

func TestMessageHash_Deterministic(t *testing.T) {
	h1 := MessageHash("hello")
	h2 := MessageHash("hello")
	h3 := MessageHash("hello!")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 32)
}
