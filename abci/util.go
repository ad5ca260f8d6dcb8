package forum

import (
	"errors"

	"github.com/alijnmerchant21/messagefeed/feed"
	"github.com/alijnmerchant21/messagefeed/model"
)

var (
	ErrAccountExists     = errors.New("account already exists")
	ErrUnknownAccount    = errors.New("unknown account")
	ErrInvalidAllocation = errors.New("invalid allocation")
)

const (
	CodeTypeOK                 uint32 = 0
	CodeTypeEncodingError      uint32 = 1
	CodeTypeInvalidTxFormat    uint32 = 2
	CodeTypeBanned                    = feed.CodeBanned
	CodeTypeLayoutMismatch            = feed.CodeLayoutMismatch
	CodeTypeUnauthorized              = feed.CodeNotAuthorized
	CodeTypeChainAlreadyLinked        = feed.CodeChainAlreadyLinked
	CodeTypeCreatorMismatch           = feed.CodeCreatorMismatch
	CodeTypeOutOfCapacity             = feed.CodeOutOfCapacity
	CodeTypeAlreadyInitialized        = feed.CodeAlreadyInitialized
	CodeTypeAccountExists      uint32 = 10
	CodeTypeUnknownAccount     uint32 = 11
	CodeTypeBadSignature       uint32 = 12
	CodeTypeInvalidAllocation  uint32 = 13
	CodeTypeUnknownQuery       uint32 = 14
	CodeTypeInternalError             = feed.CodeInternal
)

func resultCode(err error) uint32 {
	switch {
	case err == nil:
		return CodeTypeOK
	case errors.Is(err, model.ErrMalformedTx):
		return CodeTypeEncodingError
	case errors.Is(err, model.ErrEmptyTx), errors.Is(err, model.ErrNoInstructions):
		return CodeTypeInvalidTxFormat
	case errors.Is(err, model.ErrBadSignature):
		return CodeTypeBadSignature
	case errors.Is(err, ErrAccountExists):
		return CodeTypeAccountExists
	case errors.Is(err, ErrUnknownAccount):
		return CodeTypeUnknownAccount
	case errors.Is(err, ErrInvalidAllocation):
		return CodeTypeInvalidAllocation
	}
	return feed.Code(err)
}

func resultReason(err error) string {
	switch resultCode(err) {
	case CodeTypeEncodingError:
		return "encoding_error"
	case CodeTypeInvalidTxFormat:
		return "invalid_tx_format"
	case CodeTypeBadSignature:
		return "bad_signature"
	case CodeTypeAccountExists:
		return "account_exists"
	case CodeTypeUnknownAccount:
		return "unknown_account"
	case CodeTypeInvalidAllocation:
		return "invalid_allocation"
	}
	return feed.Reason(err)
}
