package chat

// Event names shared by inbound events and their replies.
const (
	EventLogin            = "login"
	EventChannelJoin      = "channelJoin"
	EventChannelLeave     = "channelLeave"
	EventMessage          = "message"
	EventLogout           = "logout"
	EventChannelUserEnter = "channelUserEnter"
	EventChannelUserLeave = "channelUserLeave"
)

// Event is an inbound client event, already decoded and typed by the
// transport. The set of variants is closed.
type Event interface {
	Name() string
	isEvent()
}

type Login struct {
	Username string       `json:"username"`
	Channels []ChannelRef `json:"channels"`
}

type ChannelJoin struct {
	Channels []ChannelRef `json:"channels"`
}

type ChannelLeave struct {
	Channels []ChannelRef `json:"channels"`
}

type PostMessage struct {
	Content string     `json:"content"`
	Channel ChannelRef `json:"channel"`
}

type Logout struct{}

func (Login) Name() string        { return EventLogin }
func (ChannelJoin) Name() string  { return EventChannelJoin }
func (ChannelLeave) Name() string { return EventChannelLeave }
func (PostMessage) Name() string  { return EventMessage }
func (Logout) Name() string       { return EventLogout }

func (Login) isEvent()        {}
func (ChannelJoin) isEvent()  {}
func (ChannelLeave) isEvent() {}
func (PostMessage) isEvent()  {}
func (Logout) isEvent()       {}
