package model

import (
	"encoding/hex"
	"fmt"

	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
)

// IdentitySize is the byte length of an account identity.
const IdentitySize = ed25519.PubKeySize

// Identity names an account. The zero value means "unset".
type Identity [IdentitySize]byte

func IdentityFromPubKey(pk ed25519.PubKey) (Identity, error) {
	var id Identity
	if len(pk) != IdentitySize {
		return id, fmt.Errorf("invalid public key length %d", len(pk))
	}
	copy(id[:], pk)
	return id, nil
}

func ParseIdentity(s string) (Identity, error) {
	var id Identity
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("failed to decode identity %q: %w", s, err)
	}
	if len(b) != IdentitySize {
		return id, fmt.Errorf("identity %q has %d bytes, want %d", s, len(b), IdentitySize)
	}
	copy(id[:], b)
	return id, nil
}

func (id Identity) IsZero() bool {
	return id == Identity{}
}

func (id Identity) Bytes() []byte {
	return id[:]
}

func (id Identity) String() string {
	return cmtbytes.HexBytes(id[:]).String()
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
