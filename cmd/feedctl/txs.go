package main

import (
	"errors"

	"github.com/cometbft/cometbft/crypto/ed25519"

	"github.com/alijnmerchant21/messagefeed/model"
)

// An empty payload only registers the user, so posting one would move the
// user to the new slot instead of appending to a feed.
var errEmptyText = errors.New("message text must not be empty")

func sign(tx *model.Tx, signers ...signer) ([]byte, error) {
	keys := make([]ed25519.PrivKey, len(signers))
	for i, s := range signers {
		keys[i] = s.priv
	}
	if err := tx.Sign(keys...); err != nil {
		return nil, err
	}
	return tx.Marshal()
}

// buildNewFeed allocates user and root, registers root as the user's feed
// and posts text as the first message.
func buildNewFeed(user, root signer, text string) ([]byte, error) {
	if text == "" {
		return nil, errEmptyText
	}
	tx := (&model.Tx{}).
		Allocate(root.id, model.MessageSize(text)).
		Allocate(user.id, model.UserRecordSize).
		Invoke(nil, user.id, root.id).
		Invoke([]byte(text), user.id, root.id)
	return sign(tx, user, root)
}

// buildJoin allocates user and registers it to the feed rooted at root.
// The root key has to sign.
func buildJoin(user, root signer) ([]byte, error) {
	tx := (&model.Tx{}).
		Allocate(user.id, model.UserRecordSize).
		Invoke(nil, user.id, root.id)
	return sign(tx, user, root)
}

// buildPost allocates msg and appends it after prev, optionally banning a user.
func buildPost(user, msg signer, prev model.Identity, ban *model.Identity, text string) ([]byte, error) {
	if text == "" {
		return nil, errEmptyText
	}
	accounts := []model.Identity{user.id, msg.id, prev}
	if ban != nil {
		accounts = append(accounts, *ban)
	}
	tx := (&model.Tx{}).
		Allocate(msg.id, model.MessageSize(text)).
		Invoke([]byte(text), accounts...)
	return sign(tx, user, msg)
}
