package forum

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/alijnmerchant21/messagefeed/feed"
	"github.com/alijnmerchant21/messagefeed/model"
)

type accountSource interface {
	// Account returns nil, nil when the account does not exist.
	Account(id model.Identity) (*model.Account, error)
}

// workingSet holds copies of every account a transaction touches. It only
// reaches the block overlay when the whole transaction succeeds.
type workingSet struct {
	src      accountSource
	accounts map[model.Identity]*model.Account
	posts    []post
}

type post struct {
	user    model.Identity
	message model.Identity
}

func newWorkingSet(src accountSource) *workingSet {
	return &workingSet{
		src:      src,
		accounts: map[model.Identity]*model.Account{},
	}
}

func (ws *workingSet) load(id model.Identity) (*model.Account, error) {
	if acc, ok := ws.accounts[id]; ok {
		return acc, nil
	}
	acc, err := ws.src.Account(id)
	if err != nil || acc == nil {
		return nil, err
	}
	acc = acc.Clone()
	ws.accounts[id] = acc
	return acc, nil
}

type executor struct {
	validator     *feed.Validator
	maxRecordSize int
}

// run executes tx against src. Allocations happen first, then every
// instruction in order; the first failure aborts the transaction.
func (e *executor) run(tx *model.Tx, src accountSource) (*workingSet, error) {
	ids, err := tx.Verify()
	if err != nil {
		return nil, err
	}
	signers := feed.NewSigners(ids...)
	ws := newWorkingSet(src)

	for _, a := range tx.Allocations {
		if !signers.Has(a.ID) {
			return nil, fmt.Errorf("%w: allocation of %s is not signed", feed.ErrNotAuthorized, a.ID)
		}
		if a.Size < model.UserRecordSize || a.Size > e.maxRecordSize {
			return nil, fmt.Errorf("%w: %s requests %d bytes, allowed %d..%d", ErrInvalidAllocation, a.ID, a.Size, model.UserRecordSize, e.maxRecordSize)
		}
		existing, err := ws.load(a.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrAccountExists, a.ID)
		}
		ws.accounts[a.ID] = &model.Account{ID: a.ID, Data: make([]byte, a.Size)}
	}

	for i, ins := range tx.Instructions {
		records := make([]*feed.Record, len(ins.Accounts))
		loaded := map[model.Identity]*feed.Record{}
		for j, id := range ins.Accounts {
			// an account named twice is the same storage
			if r, ok := loaded[id]; ok {
				records[j] = r
				continue
			}
			acc, err := ws.load(id)
			if err != nil {
				return nil, err
			}
			if acc == nil {
				return nil, fmt.Errorf("%w: instruction %d account %d: %s", ErrUnknownAccount, i, j, id)
			}
			records[j] = &feed.Record{ID: id, Data: acc.Data}
			loaded[id] = records[j]
		}

		req, err := feed.NewRequest(records, ins.Data)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		if err := e.validator.Apply(req, signers); err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		if !req.IsInit() {
			ws.posts = append(ws.posts, post{user: req.User.ID, message: req.Message.ID})
		}
	}
	return ws, nil
}

// overlay collects the accounts written by the current block on top of the
// committed store.
type overlay struct {
	db      *model.DB
	pending map[model.Identity]*model.Account
}

func newOverlay(db *model.DB) *overlay {
	return &overlay{db: db, pending: map[model.Identity]*model.Account{}}
}

func (o *overlay) Account(id model.Identity) (*model.Account, error) {
	if acc, ok := o.pending[id]; ok {
		return acc, nil
	}
	return o.db.Account(id)
}

func (o *overlay) merge(ws *workingSet) {
	for id, acc := range ws.accounts {
		o.pending[id] = acc
	}
}

func (o *overlay) flush() error {
	if len(o.pending) == 0 {
		return nil
	}
	accounts := make([]*model.Account, 0, len(o.pending))
	for _, acc := range o.pending {
		accounts = append(accounts, acc)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i].ID[:], accounts[j].ID[:]) < 0
	})
	if err := o.db.Commit(accounts); err != nil {
		return err
	}
	o.pending = map[model.Identity]*model.Account{}
	return nil
}
