// Package feed implements the state transitions of the message feed: user
// initialization, posting, linking a post into a feed and banning users.
//
// A feed is a singly linked list of message accounts. Each message records
// the identity of the feed's first message as its creator, and a user may
// only post into the feed whose root they registered.
package feed

import (
	"fmt"

	"github.com/cometbft/cometbft/libs/log"

	"github.com/alijnmerchant21/messagefeed/model"
	"github.com/alijnmerchant21/messagefeed/moderators"
)

type Validator struct {
	logger      log.Logger
	moderators  *moderators.Set
	reinitGuard bool
}

type Option func(*Validator)

// WithModerators restricts banning to the given users. Without it any user
// able to post may ban.
func WithModerators(set *moderators.Set) Option {
	return func(v *Validator) {
		v.moderators = set
	}
}

// WithReinitGuard rejects initializing a user whose creator is already set.
func WithReinitGuard() Option {
	return func(v *Validator) {
		v.reinitGuard = true
	}
}

func NewValidator(logger log.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	v := &Validator{logger: logger}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// transition holds the decoded records a call will write. Nothing is
// written to host storage until every check has passed.
type transition struct {
	user        *model.UserRecord
	message     *model.MessageRecord
	predecessor *model.MessageRecord
	banTarget   *model.UserRecord
}

// Apply validates req against the current account contents and, if every
// check passes, writes the resulting state into the records. On error no
// record is modified.
func (v *Validator) Apply(req *Request, signers Signers) error {
	t, err := v.check(req, signers)
	if err != nil {
		v.logger.Error("transition rejected", "reason", Reason(err), "err", err)
		return err
	}
	if err := t.commit(req); err != nil {
		v.logger.Error("transition commit failed", "err", err)
		return err
	}
	if req.IsInit() {
		v.logger.Debug("user initialized", "user", req.User.ID, "creator", req.Message.ID)
	} else {
		v.logger.Debug("message posted", "user", req.User.ID, "message", req.Message.ID)
	}
	return nil
}

func (v *Validator) check(req *Request, signers Signers) (*transition, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrLayoutMismatch)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !signers.Has(req.User.ID) {
		return nil, fmt.Errorf("%w: not signed by user %s", ErrNotAuthorized, req.User.ID)
	}
	if !signers.Has(req.Message.ID) {
		return nil, fmt.Errorf("%w: not signed by message %s", ErrNotAuthorized, req.Message.ID)
	}

	user, err := model.DecodeUser(req.User.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s: %v", ErrLayoutMismatch, req.User.ID, err)
	}
	if user.IsBanned() {
		return nil, fmt.Errorf("%w: %s", ErrUserBanned, req.User.ID)
	}

	msg, err := model.DecodeMessage(req.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: message %s: %v", ErrLayoutMismatch, req.Message.ID, err)
	}

	if req.IsInit() {
		if v.reinitGuard && !user.Creator.IsZero() {
			return nil, fmt.Errorf("%w: %s already posts into %s", ErrAlreadyInitialized, req.User.ID, user.Creator)
		}
		user.Creator = req.Message.ID
		return &transition{user: &user}, nil
	}

	if len(req.Payload) > msg.Capacity() {
		return nil, fmt.Errorf("%w: %d bytes into %d", ErrOutOfCapacity, len(req.Payload), msg.Capacity())
	}
	copy(msg.Text, req.Payload)
	msg.From = req.User.ID

	t := &transition{message: &msg}
	if req.Predecessor != nil {
		if req.Predecessor.ID == req.Message.ID {
			return nil, fmt.Errorf("%w: message %s cannot follow itself", ErrLayoutMismatch, req.Message.ID)
		}
		prev, err := model.DecodeMessage(req.Predecessor.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: predecessor %s: %v", ErrLayoutMismatch, req.Predecessor.ID, err)
		}
		if !prev.NextMessage.IsZero() {
			return nil, fmt.Errorf("%w: %s is followed by %s", ErrChainAlreadyLinked, req.Predecessor.ID, prev.NextMessage)
		}
		prev.NextMessage = req.Message.ID
		msg.Creator = prev.Creator
		t.predecessor = &prev
	} else {
		// First message of a feed is its own root.
		msg.Creator = req.Message.ID
	}

	if user.Creator != msg.Creator {
		return nil, fmt.Errorf("%w: user %s posts into %s, feed is %s", ErrCreatorMismatch, req.User.ID, user.Creator, msg.Creator)
	}

	if req.BanTarget != nil {
		if v.moderators != nil && !v.moderators.Has(req.User.ID) {
			return nil, fmt.Errorf("%w: %s may not ban users", ErrNotAuthorized, req.User.ID)
		}
		target, err := model.DecodeUser(req.BanTarget.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: ban target %s: %v", ErrLayoutMismatch, req.BanTarget.ID, err)
		}
		target.Banned = true
		t.banTarget = &target
	}
	return t, nil
}

func (t *transition) commit(req *Request) error {
	if t.user != nil {
		if err := t.user.Encode(req.User.Data); err != nil {
			return err
		}
	}
	if t.message != nil {
		if err := t.message.Encode(req.Message.Data); err != nil {
			return err
		}
	}
	if t.predecessor != nil {
		if err := t.predecessor.Encode(req.Predecessor.Data); err != nil {
			return err
		}
	}
	if t.banTarget != nil {
		if err := t.banTarget.Encode(req.BanTarget.Data); err != nil {
			return err
		}
	}
	return nil
}
