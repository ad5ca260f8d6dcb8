package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testID(b byte) Identity {
	var id Identity
	id[0] = b
	return id
}

func messageAccount(t *testing.T, id Identity, rec MessageRecord) *Account {
	data := make([]byte, MessageHeaderSize+len(rec.Text))
	require.NoError(t, rec.Encode(data))
	return &Account{ID: id, Data: data}
}

func TestAccountRoundTrip(t *testing.T) {
	db := openTestDB(t)
	user := testID(1)

	acc, err := db.Account(user)
	require.NoError(t, err)
	require.Nil(t, acc)

	data := make([]byte, UserRecordSize)
	data[0] = 1
	require.NoError(t, db.Commit([]*Account{{ID: user, Data: data}}))

	acc, err = db.Account(user)
	require.NoError(t, err)
	require.NotNil(t, acc)
	require.Equal(t, data, acc.Data)
	require.Empty(t, acc.Poster)

	clone := acc.Clone()
	clone.Data[0] = 0
	require.Equal(t, byte(1), acc.Data[0])
}

func TestReadFeedAndMessagesFrom(t *testing.T) {
	db := openTestDB(t)
	alice, bob := testID(1), testID(2)
	m1, m2, m3 := testID(11), testID(12), testID(13)

	require.NoError(t, db.Commit([]*Account{
		messageAccount(t, m1, MessageRecord{NextMessage: m2, From: alice, Creator: m1, Text: []byte("first\x00\x00")}),
		messageAccount(t, m2, MessageRecord{NextMessage: m3, From: bob, Creator: m1, Text: []byte("second")}),
		messageAccount(t, m3, MessageRecord{From: alice, Creator: m1, Text: []byte("third")}),
	}))

	msgs, err := db.ReadFeed(m1, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Text)
	require.Equal(t, m2, msgs[1].ID)
	require.Equal(t, bob, msgs[1].From)
	require.True(t, msgs[2].NextMessage.IsZero())

	msgs, err = db.ReadFeed(m1, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	msgs, err = db.ReadFeed(m2, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	_, err = db.ReadFeed(testID(99), 10)
	require.Error(t, err)

	fromAlice, err := db.MessagesFrom(alice)
	require.NoError(t, err)
	require.Len(t, fromAlice, 2)
	for _, m := range fromAlice {
		require.Equal(t, alice, m.From)
	}

	none, err := db.MessagesFrom(testID(42))
	require.NoError(t, err)
	require.Empty(t, none)
}
