package model

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger"
	"github.com/timshannon/badgerhold"
)

var bufPool = sync.Pool{New: func() interface{} { return &bytes.Buffer{} }}

// Account is the stored form of a record. Poster is the hex identity of the
// author for message-shaped accounts and is only used for lookups.
type Account struct {
	ID     Identity
	Data   []byte
	Poster string
}

func (a *Account) Clone() *Account {
	return &Account{
		ID:     a.ID,
		Data:   append([]byte{}, a.Data...),
		Poster: a.Poster,
	}
}

type DB struct {
	store *badgerhold.Store
}

func encode(v interface{}) ([]byte, error) {
	jby, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	buf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(buf)
	buf.Reset()
	gz, err := flate.NewWriter(buf, 5)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(jby); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	return append([]byte{}, buf.Bytes()...), nil
}

func decode(in []byte, val interface{}) error {
	buf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(buf)
	buf.Reset()

	gz := flate.NewReader(bytes.NewReader(in))
	defer gz.Close()

	if _, err := buf.ReadFrom(gz); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), val)
}

func New(dbPath string) (*DB, error) {
	store, err := badgerhold.Open(
		badgerhold.Options{
			Encoder: encode,
			Decoder: decode,
			Options: badger.DefaultOptions(dbPath),
		},
	)
	if err != nil {
		return nil, err
	}

	return &DB{
		store: store,
	}, nil
}

func (db *DB) Close() error { return db.store.Close() }

// Account returns the stored account or nil if it does not exist.
func (db *DB) Account(id Identity) (*Account, error) {
	var acc Account
	err := db.store.Get(id.String(), &acc)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return &acc, nil
}

// Commit writes all accounts in a single badger transaction.
func (db *DB) Commit(accounts []*Account) error {
	return db.store.Badger().Update(func(txn *badger.Txn) error {
		for _, acc := range accounts {
			acc.Poster = poster(acc.Data)
			if err := db.store.TxUpsert(txn, acc.ID.String(), acc); err != nil {
				return fmt.Errorf("failed to store account %s: %w", acc.ID, err)
			}
		}
		return nil
	})
}

// ReadFeed walks the chain starting at root, following next_message links,
// and returns at most limit messages.
func (db *DB) ReadFeed(root Identity, limit int) ([]Message, error) {
	var messages []Message
	for cur := root; !cur.IsZero() && len(messages) < limit; {
		acc, err := db.Account(cur)
		if err != nil {
			return messages, err
		}
		if acc == nil {
			return messages, fmt.Errorf("message %s not found", cur)
		}
		rec, err := DecodeMessage(acc.Data)
		if err != nil {
			return messages, fmt.Errorf("account %s: %w", cur, err)
		}
		messages = append(messages, NewMessage(cur, rec))
		cur = rec.NextMessage
	}
	return messages, nil
}

// MessagesFrom returns every stored message posted by the given user.
func (db *DB) MessagesFrom(user Identity) ([]Message, error) {
	var accounts []Account
	if err := db.store.Find(&accounts, badgerhold.Where("Poster").Eq(user.String())); err != nil {
		return nil, fmt.Errorf("failed to find messages from %s: %w", user, err)
	}
	messages := make([]Message, 0, len(accounts))
	for _, acc := range accounts {
		rec, err := DecodeMessage(acc.Data)
		if err != nil {
			continue
		}
		messages = append(messages, NewMessage(acc.ID, rec))
	}
	return messages, nil
}

func poster(data []byte) string {
	if len(data) == UserRecordSize {
		return ""
	}
	rec, err := DecodeMessage(data)
	if err != nil || rec.From.IsZero() {
		return ""
	}
	return rec.From.String()
}
