package model

import (
	"encoding/json"
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/require"
)

func TestUserRecordLayout(t *testing.T) {
	var creator Identity
	creator[0], creator[31] = 0xaa, 0xbb
	u := UserRecord{Banned: true, Creator: creator}

	buf := make([]byte, UserRecordSize)
	require.NoError(t, u.Encode(buf))
	require.Equal(t, byte(1), buf[0])
	require.Equal(t, byte(0xaa), buf[1])
	require.Equal(t, byte(0xbb), buf[32])

	got, err := DecodeUser(buf)
	require.NoError(t, err)
	require.Equal(t, u, got)

	buf[0] = 7
	got, err = DecodeUser(buf)
	require.NoError(t, err)
	require.True(t, got.IsBanned())

	_, err = DecodeUser(make([]byte, UserRecordSize+1))
	require.Error(t, err)
	require.Error(t, u.Encode(make([]byte, UserRecordSize-1)))
}

func TestMessageRecordLayout(t *testing.T) {
	data := make([]byte, MessageSize("hello"))
	data[0] = 1              // next_message
	data[IdentitySize] = 2   // from
	data[2*IdentitySize] = 3 // creator
	copy(data[MessageHeaderSize:], "hi")

	m, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, byte(1), m.NextMessage[0])
	require.Equal(t, byte(2), m.From[0])
	require.Equal(t, byte(3), m.Creator[0])
	require.Equal(t, 5, m.Capacity())
	require.Equal(t, "hi", m.Body())

	// decoding copies
	m.Text[0] = 'x'
	require.Equal(t, byte('h'), data[MessageHeaderSize])

	out := make([]byte, len(data))
	require.NoError(t, m.Encode(out))
	require.Equal(t, byte('x'), out[MessageHeaderSize])
	require.Error(t, m.Encode(make([]byte, len(data)+1)))

	_, err = DecodeMessage(make([]byte, MessageHeaderSize-1))
	require.Error(t, err)

	empty, err := DecodeMessage(make([]byte, MessageHeaderSize))
	require.NoError(t, err)
	require.Equal(t, 0, empty.Capacity())
	require.Equal(t, "", empty.Body())
}

func TestIdentityText(t *testing.T) {
	pk := ed25519.GenPrivKey().PubKey().(ed25519.PubKey)
	id, err := IdentityFromPubKey(pk)
	require.NoError(t, err)
	require.False(t, id.IsZero())
	require.Equal(t, []byte(pk), id.Bytes())

	parsed, err := ParseIdentity(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = ParseIdentity("abcd")
	require.Error(t, err)
	_, err = ParseIdentity("zz")
	require.Error(t, err)
	_, err = IdentityFromPubKey(ed25519.PubKey{1, 2, 3})
	require.Error(t, err)

	b, err := json.Marshal(struct{ ID Identity }{id})
	require.NoError(t, err)
	var out struct{ ID Identity }
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, id, out.ID)
}

func TestTxSignVerify(t *testing.T) {
	userKey := ed25519.GenPrivKey()
	msgKey := ed25519.GenPrivKey()
	user, err := IdentityFromPubKey(userKey.PubKey().(ed25519.PubKey))
	require.NoError(t, err)
	msg, err := IdentityFromPubKey(msgKey.PubKey().(ed25519.PubKey))
	require.NoError(t, err)

	tx := &Tx{}
	tx.Allocate(msg, MessageSize("hello")).
		Allocate(user, UserRecordSize).
		Invoke(nil, user, msg).
		Invoke([]byte("hello"), user, msg)
	require.NoError(t, tx.Sign(userKey, msgKey))

	raw, err := tx.Marshal()
	require.NoError(t, err)
	parsed, err := ParseTx(raw)
	require.NoError(t, err)
	require.Nil(t, parsed.Instructions[0].Data)
	require.Equal(t, []byte("hello"), parsed.Instructions[1].Data)

	signers, err := parsed.Verify()
	require.NoError(t, err)
	require.Equal(t, []Identity{user, msg}, signers)

	parsed.Instructions[1].Data = []byte("tampered")
	_, err = parsed.Verify()
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestParseTxErrors(t *testing.T) {
	_, err := ParseTx(nil)
	require.ErrorIs(t, err, ErrEmptyTx)

	_, err = ParseTx([]byte("sender:alice,message:hello"))
	require.ErrorIs(t, err, ErrMalformedTx)

	_, err = ParseTx([]byte(`{"instructions":[]}`))
	require.ErrorIs(t, err, ErrNoInstructions)
}
