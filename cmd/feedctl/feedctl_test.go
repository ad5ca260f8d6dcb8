package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	dbm "github.com/cometbft/cometbft-db"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/stretchr/testify/require"

	forum "github.com/alijnmerchant21/messagefeed/abci"
	"github.com/alijnmerchant21/messagefeed/config"
	"github.com/alijnmerchant21/messagefeed/model"
)

func TestKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	s, err := generateSigner()
	require.NoError(t, err)
	require.NoError(t, saveKey(path, s))

	loaded, err := loadKey(path)
	require.NoError(t, err)
	require.Equal(t, s.id, loaded.id)
	require.Equal(t, s.priv, loaded.priv)

	other, err := generateSigner()
	require.NoError(t, err)
	require.NoError(t, saveKey(path, signer{priv: s.priv, id: other.id}))
	_, err = loadKey(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"priv_key":"AAAA"}`), 0o600))
	_, err = loadKey(path)
	require.Error(t, err)
}

func TestBuiltTxsAreAccepted(t *testing.T) {
	cfg := config.Default()
	cfg.DBDir = t.TempDir()
	app, err := forum.NewFeedApp(cfg, dbm.NewMemDB(), nil, nil)
	require.NoError(t, err)
	defer app.Close()

	keys := make([]signer, 5)
	for i := range keys {
		keys[i], err = generateSigner()
		require.NoError(t, err)
	}
	alice, bob, root, m1, m2 := keys[0], keys[1], keys[2], keys[3], keys[4]

	newFeed, err := buildNewFeed(alice, root, "First post!")
	require.NoError(t, err)
	join, err := buildJoin(bob, root)
	require.NoError(t, err)
	post, err := buildPost(bob, m1, root.id, nil, "hello")
	require.NoError(t, err)
	ban, err := buildPost(alice, m2, m1.id, &bob.id, "bye bob")
	require.NoError(t, err)

	resp, err := app.FinalizeBlock(context.Background(), &abci.RequestFinalizeBlock{
		Height: 1,
		Txs:    [][]byte{newFeed, join, post, ban},
	})
	require.NoError(t, err)
	for i, res := range resp.TxResults {
		require.Equal(t, forum.CodeTypeOK, res.Code, "tx %d: %s", i, res.Log)
	}
	_, err = app.Commit(context.Background(), &abci.RequestCommit{})
	require.NoError(t, err)

	msgs, err := app.DB.ReadFeed(root.id, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "bye bob", msgs[2].Text)

	acc, err := app.DB.Account(bob.id)
	require.NoError(t, err)
	u, err := model.DecodeUser(acc.Data)
	require.NoError(t, err)
	require.True(t, u.Banned)
}

func TestEmptyTextIsRefused(t *testing.T) {
	alice, err := generateSigner()
	require.NoError(t, err)
	root, err := generateSigner()
	require.NoError(t, err)
	msg, err := generateSigner()
	require.NoError(t, err)

	// an empty first message would leave the root without a creator
	_, err = buildNewFeed(alice, root, "")
	require.ErrorIs(t, err, errEmptyText)

	// an empty post would re-register alice to msg instead of linking it
	_, err = buildPost(alice, msg, root.id, nil, "")
	require.ErrorIs(t, err, errEmptyText)
	_, err = buildPost(alice, msg, root.id, &root.id, "")
	require.ErrorIs(t, err, errEmptyText)
}
