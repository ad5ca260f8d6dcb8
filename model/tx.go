package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cometbft/cometbft/crypto/ed25519"
)

var (
	ErrEmptyTx        = errors.New("transaction is empty")
	ErrMalformedTx    = errors.New("malformed transaction")
	ErrBadSignature   = errors.New("invalid signature")
	ErrNoInstructions = errors.New("transaction has no instructions")
)

// Allocation asks the host to create a zero-filled account of Size bytes
// owned by ID. ID must sign the transaction.
type Allocation struct {
	ID   Identity `json:"id"`
	Size int      `json:"size"`
}

// Instruction is one call of the feed program: the accounts in positional
// order and an optional payload.
type Instruction struct {
	Accounts []Identity `json:"accounts"`
	Data     []byte     `json:"data,omitempty"`
}

type Signature struct {
	PubKey    ed25519.PubKey `json:"pub_key"`
	Signature []byte         `json:"signature"`
}

type Tx struct {
	Allocations  []Allocation  `json:"allocations,omitempty"`
	Instructions []Instruction `json:"instructions"`
	Signatures   []Signature   `json:"signatures,omitempty"`
}

func ParseTx(b []byte) (*Tx, error) {
	if len(b) == 0 {
		return nil, ErrEmptyTx
	}
	var tx Tx
	if err := json.Unmarshal(b, &tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}
	if len(tx.Instructions) == 0 {
		return nil, ErrNoInstructions
	}
	return &tx, nil
}

func (tx *Tx) Allocate(id Identity, size int) *Tx {
	tx.Allocations = append(tx.Allocations, Allocation{ID: id, Size: size})
	return tx
}

func (tx *Tx) Invoke(data []byte, accounts ...Identity) *Tx {
	tx.Instructions = append(tx.Instructions, Instruction{Accounts: accounts, Data: data})
	return tx
}

// SignBytes is the canonical encoding covered by signatures.
func (tx *Tx) SignBytes() ([]byte, error) {
	unsigned := Tx{
		Allocations:  tx.Allocations,
		Instructions: tx.Instructions,
	}
	return json.Marshal(unsigned)
}

func (tx *Tx) Sign(keys ...ed25519.PrivKey) error {
	msg, err := tx.SignBytes()
	if err != nil {
		return err
	}
	for _, key := range keys {
		sig, err := key.Sign(msg)
		if err != nil {
			return fmt.Errorf("failed to sign transaction: %w", err)
		}
		tx.Signatures = append(tx.Signatures, Signature{
			PubKey:    key.PubKey().(ed25519.PubKey),
			Signature: sig,
		})
	}
	return nil
}

// Verify checks every signature and returns the identities that signed.
// A single bad signature invalidates the whole transaction.
func (tx *Tx) Verify() ([]Identity, error) {
	msg, err := tx.SignBytes()
	if err != nil {
		return nil, err
	}
	signers := make([]Identity, 0, len(tx.Signatures))
	for i, sig := range tx.Signatures {
		id, err := IdentityFromPubKey(sig.PubKey)
		if err != nil {
			return nil, fmt.Errorf("%w: signature %d: %v", ErrBadSignature, i, err)
		}
		if !sig.PubKey.VerifySignature(msg, sig.Signature) {
			return nil, fmt.Errorf("%w: signature %d by %s", ErrBadSignature, i, id)
		}
		signers = append(signers, id)
	}
	return signers, nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	return json.Marshal(tx)
}
