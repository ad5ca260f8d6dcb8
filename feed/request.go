package feed

import (
	"fmt"

	"github.com/alijnmerchant21/messagefeed/model"
)

// Record is one account handed to the validator by the host. Data is the
// host's storage for the account and is written in place on success.
type Record struct {
	ID   model.Identity
	Data []byte
}

// Request is a single call. An empty Payload initializes the user; a
// non-empty one posts a message.
type Request struct {
	User        *Record
	Message     *Record
	Predecessor *Record
	BanTarget   *Record
	Payload     []byte
}

// NewRequest maps the positional account convention
// {user, message, [predecessor], [ban target]} onto a Request.
func NewRequest(records []*Record, payload []byte) (*Request, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: expected at least two accounts, got %d", ErrLayoutMismatch, len(records))
	}
	if len(records) > 4 {
		return nil, fmt.Errorf("%w: expected at most four accounts, got %d", ErrLayoutMismatch, len(records))
	}
	req := &Request{
		User:    records[0],
		Message: records[1],
		Payload: payload,
	}
	if len(records) > 2 {
		req.Predecessor = records[2]
	}
	if len(records) > 3 {
		req.BanTarget = records[3]
	}
	return req, req.Validate()
}

// IsInit reports whether the request initializes a user rather than posting.
func (r *Request) IsInit() bool {
	return len(r.Payload) == 0
}

// Validate checks the shape of the request, not the account contents.
func (r *Request) Validate() error {
	switch {
	case r.User == nil:
		return fmt.Errorf("%w: missing user account", ErrLayoutMismatch)
	case r.Message == nil:
		return fmt.Errorf("%w: missing message account", ErrLayoutMismatch)
	case r.BanTarget != nil && r.Predecessor == nil:
		return fmt.Errorf("%w: ban target given without a predecessor", ErrLayoutMismatch)
	}
	return nil
}

// Signers is the set of identities whose controllers authorized the call.
type Signers map[model.Identity]struct{}

func NewSigners(ids ...model.Identity) Signers {
	s := make(Signers, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Signers) Has(id model.Identity) bool {
	_, ok := s[id]
	return ok
}
