package chat

import (
	"errors"
	"fmt"
)

// ErrorKind names a rejection reason reported back to the originating connection.
type ErrorKind string

const (
	KindDuplicateUsername ErrorKind = "DuplicateUsernameError"
	KindUsernameLength    ErrorKind = "UsernameLengthError"
	KindChannelNameLength ErrorKind = "ChannelNameLengthError"
	KindDuplicateChannel  ErrorKind = "DuplicateChannelError"
	KindMissingChannel    ErrorKind = "MissingChannelError"
	KindEmptyMessage      ErrorKind = "EmptyMessageError"
	KindMaxCharLimit      ErrorKind = "MaxCharLimitError"
	KindUnknownChannel    ErrorKind = "UnknownChannelError"
	KindInvalidState      ErrorKind = "InvalidStateError"
)

// Error is a recoverable, per-event failure. Channel is set when the failure
// concerns one entry of a channel batch.
type Error struct {
	Kind    ErrorKind
	Message string
	Channel string
}

func (e *Error) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("%s: %s (channel %q)", e.Kind, e.Message, e.Channel)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, channel, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Channel: channel}
}

// KindOf returns the kind of a chat error, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Kind
	}
	return ""
}

// IsKind reports whether err is a chat error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
