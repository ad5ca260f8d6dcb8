package model

import (
	"fmt"
)

// UserRecordSize is the exact length of an encoded user account:
// banned(1) | creator(32).
const UserRecordSize = 1 + IdentitySize

// UserRecord is the decoded state of a user account. Creator is the
// identity of the root message of the feed the user may post into.
type UserRecord struct {
	Banned  bool
	Creator Identity
}

func DecodeUser(data []byte) (UserRecord, error) {
	var u UserRecord
	if len(data) != UserRecordSize {
		return u, fmt.Errorf("user account has %d bytes, want %d", len(data), UserRecordSize)
	}
	u.Banned = data[0] != 0
	copy(u.Creator[:], data[1:])
	return u, nil
}

// Encode writes the record into dst, which must be exactly UserRecordSize long.
func (u *UserRecord) Encode(dst []byte) error {
	if len(dst) != UserRecordSize {
		return fmt.Errorf("user account has %d bytes, want %d", len(dst), UserRecordSize)
	}
	dst[0] = 0
	if u.Banned {
		dst[0] = 1
	}
	copy(dst[1:], u.Creator[:])
	return nil
}

func (u *UserRecord) IsBanned() bool {
	return u.Banned
}
