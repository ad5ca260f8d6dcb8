package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cometbft/cometbft/crypto/ed25519"

	"github.com/alijnmerchant21/messagefeed/model"
)

type keyFile struct {
	Identity model.Identity `json:"identity"`
	PrivKey  []byte         `json:"priv_key"`
}

type signer struct {
	priv ed25519.PrivKey
	id   model.Identity
}

func newSigner(priv ed25519.PrivKey) (signer, error) {
	pub, ok := priv.PubKey().(ed25519.PubKey)
	if !ok {
		return signer{}, fmt.Errorf("unexpected public key type %T", priv.PubKey())
	}
	id, err := model.IdentityFromPubKey(pub)
	if err != nil {
		return signer{}, err
	}
	return signer{priv: priv, id: id}, nil
}

func generateSigner() (signer, error) {
	return newSigner(ed25519.GenPrivKey())
}

func saveKey(path string, s signer) error {
	b, err := json.MarshalIndent(keyFile{Identity: s.id, PrivKey: s.priv}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func loadKey(path string) (signer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return signer{}, err
	}
	var kf keyFile
	if err := json.Unmarshal(b, &kf); err != nil {
		return signer{}, fmt.Errorf("failed to decode key file %s: %w", path, err)
	}
	if len(kf.PrivKey) != ed25519.PrivateKeySize {
		return signer{}, fmt.Errorf("key file %s: invalid private key length %d", path, len(kf.PrivKey))
	}
	s, err := newSigner(ed25519.PrivKey(kf.PrivKey))
	if err != nil {
		return signer{}, err
	}
	if s.id != kf.Identity {
		return signer{}, fmt.Errorf("key file %s: identity does not match private key", path)
	}
	return s, nil
}
