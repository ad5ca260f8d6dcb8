package model

import (
	"bytes"
	"fmt"
)

// MessageHeaderSize is the fixed prefix of a message account:
// next_message(32) | from(32) | creator(32). Everything after it is text.
const MessageHeaderSize = 3 * IdentitySize

// MessageSize returns the account size needed to hold text.
func MessageSize(text string) int {
	return MessageHeaderSize + len(text)
}

// MessageRecord is the decoded state of a message account.
type MessageRecord struct {
	NextMessage Identity
	From        Identity
	Creator     Identity
	Text        []byte
}

// DecodeMessage copies data into a MessageRecord. The length of Text is the
// account's text capacity.
func DecodeMessage(data []byte) (MessageRecord, error) {
	var m MessageRecord
	if len(data) < MessageHeaderSize {
		return m, fmt.Errorf("message account has %d bytes, want at least %d", len(data), MessageHeaderSize)
	}
	copy(m.NextMessage[:], data[0:IdentitySize])
	copy(m.From[:], data[IdentitySize:2*IdentitySize])
	copy(m.Creator[:], data[2*IdentitySize:MessageHeaderSize])
	m.Text = append([]byte{}, data[MessageHeaderSize:]...)
	return m, nil
}

// Encode writes the record into dst. dst must have room for the header and
// exactly len(m.Text) bytes of text.
func (m *MessageRecord) Encode(dst []byte) error {
	if len(dst) != MessageHeaderSize+len(m.Text) {
		return fmt.Errorf("message account has %d bytes, want %d", len(dst), MessageHeaderSize+len(m.Text))
	}
	copy(dst[0:IdentitySize], m.NextMessage[:])
	copy(dst[IdentitySize:2*IdentitySize], m.From[:])
	copy(dst[2*IdentitySize:MessageHeaderSize], m.Creator[:])
	copy(dst[MessageHeaderSize:], m.Text)
	return nil
}

func (m *MessageRecord) Capacity() int {
	return len(m.Text)
}

// Body returns the text up to the first NUL byte.
func (m *MessageRecord) Body() string {
	if i := bytes.IndexByte(m.Text, 0); i >= 0 {
		return string(m.Text[:i])
	}
	return string(m.Text)
}

// Message is the read-side view of a message account.
type Message struct {
	ID          Identity `json:"id"`
	From        Identity `json:"from"`
	Creator     Identity `json:"creator"`
	NextMessage Identity `json:"next_message"`
	Text        string   `json:"text"`
}

func NewMessage(id Identity, m MessageRecord) Message {
	return Message{
		ID:          id,
		From:        m.From,
		Creator:     m.Creator,
		NextMessage: m.NextMessage,
		Text:        m.Body(),
	}
}
