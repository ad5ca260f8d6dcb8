package feed

import (
	"errors"
)

var (
	ErrLayoutMismatch     = errors.New("layout mismatch")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrUserBanned         = errors.New("user is banned")
	ErrChainAlreadyLinked = errors.New("message already has a next_message")
	ErrCreatorMismatch    = errors.New("user/message creator mismatch")
	ErrOutOfCapacity      = errors.New("payload exceeds message capacity")
	ErrAlreadyInitialized = errors.New("user already initialized")
)

// Result codes reported to the host. Zero is success; the numbering is stable.
const (
	CodeOK                 uint32 = 0
	CodeBanned             uint32 = 3
	CodeLayoutMismatch     uint32 = 4
	CodeNotAuthorized      uint32 = 5
	CodeChainAlreadyLinked uint32 = 6
	CodeCreatorMismatch    uint32 = 7
	CodeOutOfCapacity      uint32 = 8
	CodeAlreadyInitialized uint32 = 9
	CodeInternal           uint32 = 15
)

var codes = []struct {
	err  error
	code uint32
}{
	{ErrUserBanned, CodeBanned},
	{ErrLayoutMismatch, CodeLayoutMismatch},
	{ErrNotAuthorized, CodeNotAuthorized},
	{ErrChainAlreadyLinked, CodeChainAlreadyLinked},
	{ErrCreatorMismatch, CodeCreatorMismatch},
	{ErrOutOfCapacity, CodeOutOfCapacity},
	{ErrAlreadyInitialized, CodeAlreadyInitialized},
}

// Code maps a validator error to its result code. Errors that did not come
// from the validator map to CodeInternal.
func Code(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// Reason is a short label for err, used for diagnostics and metrics.
func Reason(err error) string {
	switch Code(err) {
	case CodeOK:
		return "ok"
	case CodeBanned:
		return "user_banned"
	case CodeLayoutMismatch:
		return "layout_mismatch"
	case CodeNotAuthorized:
		return "not_authorized"
	case CodeChainAlreadyLinked:
		return "chain_already_linked"
	case CodeCreatorMismatch:
		return "creator_mismatch"
	case CodeOutOfCapacity:
		return "out_of_capacity"
	case CodeAlreadyInitialized:
		return "already_initialized"
	default:
		return "unknown"
	}
}
