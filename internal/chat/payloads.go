package chat

import "errors"

// Payload is an outbound frame body. Name is the envelope event name.
type Payload interface {
	Name() string
	isPayload()
}

// ErrorBody is the wire form of a rejected event.
type ErrorBody struct {
	Type    ErrorKind `json:"type"`
	Message string    `json:"message"`
	Channel string    `json:"channel,omitempty"`
}

// ErrorReply answers the event named by Event with a rejection.
type ErrorReply struct {
	Event string    `json:"-"`
	Error ErrorBody `json:"error"`
}

type LoginReply struct {
	Channels map[string]ChannelSnapshot `json:"channels"`
}

type ChannelJoinReply struct {
	Channels []ChannelSnapshot `json:"channels"`
}

type ChannelLeaveReply struct {
	Channels []ChannelSnapshot `json:"channels"`
}

type ChannelUserEnter struct {
	Username string     `json:"username"`
	Channel  ChannelRef `json:"channel"`
}

type ChannelUserLeave struct {
	Username string     `json:"username"`
	Channel  ChannelRef `json:"channel"`
}

// MessageBroadcast carries a stored message to every channel member.
type MessageBroadcast struct {
	Message
}

type LogoutReply struct{}

func (r ErrorReply) Name() string      { return r.Event }
func (LoginReply) Name() string        { return EventLogin }
func (ChannelJoinReply) Name() string  { return EventChannelJoin }
func (ChannelLeaveReply) Name() string { return EventChannelLeave }
func (ChannelUserEnter) Name() string  { return EventChannelUserEnter }
func (ChannelUserLeave) Name() string  { return EventChannelUserLeave }
func (MessageBroadcast) Name() string  { return EventMessage }
func (LogoutReply) Name() string       { return EventLogout }

func (ErrorReply) isPayload()        {}
func (LoginReply) isPayload()        {}
func (ChannelJoinReply) isPayload()  {}
func (ChannelLeaveReply) isPayload() {}
func (ChannelUserEnter) isPayload()  {}
func (ChannelUserLeave) isPayload()  {}
func (MessageBroadcast) isPayload()  {}
func (LogoutReply) isPayload()       {}

// errorReply converts err into the wire rejection for event. Errors outside
// the chat taxonomy are reported as InvalidStateError.
func errorReply(event string, err error) ErrorReply {
	body := ErrorBody{Type: KindInvalidState, Message: err.Error()}
	var chatErr *Error
	if errors.As(err, &chatErr) {
		body = ErrorBody{Type: chatErr.Kind, Message: chatErr.Message, Channel: chatErr.Channel}
	}
	return ErrorReply{Event: event, Error: body}
}
