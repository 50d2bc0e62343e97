package chat

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
)

// State is the lifecycle position of one connection.
type State int

const (
	Anonymous State = iota
	Authenticated
	Closed
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Censor rewrites message content before it is stored.
type Censor interface {
	Censor(content string) string
}

// Stats is a point-in-time view of the hub's presence data.
type Stats struct {
	Connections int
	Users       int
	Channels    int
}

// Dispatcher is the single mutation path for presence state. It is not safe
// for concurrent use: the owner must feed it one event at a time.
type Dispatcher struct {
	store    *Store
	registry *Registry
	fanout   *Fanout
	states   map[ConnID]State
	censor   Censor
	now      func() time.Time
	entropy  io.Reader
	log      *slog.Logger
}

type Option func(*Dispatcher)

func WithCensor(c Censor) Option {
	return func(d *Dispatcher) { d.censor = c }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(log *slog.Logger, sender Sender, opts ...Option) *Dispatcher {
	store := NewStore()
	registry := NewRegistry()
	d := &Dispatcher{
		store:    store,
		registry: registry,
		fanout:   NewFanout(log, store.Channels, registry, sender),
		states:   make(map[ConnID]State),
		now:      time.Now,
		entropy:  ulid.Monotonic(rand.Reader, 0),
		log:      log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect registers a fresh, anonymous connection.
func (d *Dispatcher) Connect(conn ConnID) {
	d.states[conn] = Anonymous
}

// State returns Anonymous for connections it has never seen.
func (d *Dispatcher) State(conn ConnID) State {
	return d.states[conn]
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Connections: len(d.states),
		Users:       d.store.Users.Len(),
		Channels:    d.store.Channels.Len(),
	}
}

// Handle processes one inbound event to completion: validation, mutation,
// fanout and the direct reply.
func (d *Dispatcher) Handle(conn ConnID, evt Event) {
	d.log.Debug("Handling event", "conn", conn, "event", evt.Name(), "state", d.State(conn))

	switch e := evt.(type) {
	case Login:
		d.login(conn, e)
	case ChannelJoin:
		d.channelJoin(conn, e)
	case ChannelLeave:
		d.channelLeave(conn, e)
	case PostMessage:
		d.message(conn, e)
	case Logout:
		d.logout(conn)
	default:
		d.log.Warn("Unhandled event type", "conn", conn, "event", evt.Name())
	}
}

// Disconnect runs the logout cascade without a reply. Calling it for an
// unknown or already closed connection does nothing.
func (d *Dispatcher) Disconnect(conn ConnID) {
	state, ok := d.states[conn]
	delete(d.states, conn)
	if !ok || state != Authenticated {
		return
	}
	if username, bound := d.registry.UsernameOf(conn); bound {
		d.leaveAll(conn, username)
		d.log.Info("User disconnected", "conn", conn, "username", username)
	}
}

func (d *Dispatcher) reject(conn ConnID, event string, err error) {
	d.log.Warn("Event rejected", "conn", conn, "event", event, "error", err)
	d.fanout.ReplyTo(conn, errorReply(event, err))
}

// authenticated returns the username behind conn, or rejects the event.
func (d *Dispatcher) authenticated(conn ConnID, event string) (string, bool) {
	if state := d.State(conn); state != Authenticated {
		d.reject(conn, event, newError(KindInvalidState, "", "%s is not allowed while %s", event, state))
		return "", false
	}
	username, ok := d.registry.UsernameOf(conn)
	if !ok {
		d.log.Error("Authenticated connection without binding", "conn", conn)
		d.reject(conn, event, newError(KindInvalidState, "", "connection is not logged in"))
		return "", false
	}
	return username, true
}

func (d *Dispatcher) login(conn ConnID, evt Login) {
	if state := d.State(conn); state != Anonymous {
		d.reject(conn, EventLogin, newError(KindInvalidState, "", "login is not allowed while %s", state))
		return
	}
	if err := ValidateUsername(evt.Username, d.store.Users); err != nil {
		d.reject(conn, EventLogin, err)
		return
	}
	names := lo.Uniq(channelNames(evt.Channels))
	for _, name := range names {
		if err := ValidateChannelName(name); err != nil {
			d.reject(conn, EventLogin, err)
			return
		}
	}

	if err := d.registry.Bind(conn, evt.Username); err != nil {
		d.reject(conn, EventLogin, newError(KindInvalidState, "", "%v", err))
		return
	}
	d.store.AddUser(evt.Username, conn)
	d.states[conn] = Authenticated

	reply := LoginReply{Channels: make(map[string]ChannelSnapshot, len(names))}
	for _, name := range names {
		if err := d.join(conn, name, evt.Username); err != nil {
			d.log.Error("Join failed after validation", "conn", conn, "channel", name, "error", err)
			continue
		}
		reply.Channels[name] = d.store.Channels.Snapshot(name)
	}
	d.log.Info("User logged in", "conn", conn, "username", evt.Username, "channels", len(reply.Channels))
	d.fanout.ReplyTo(conn, reply)
}

// channelJoin stops at the first failing entry. Entries before it stay joined.
func (d *Dispatcher) channelJoin(conn ConnID, evt ChannelJoin) {
	username, ok := d.authenticated(conn, EventChannelJoin)
	if !ok {
		return
	}
	reply := ChannelJoinReply{Channels: make([]ChannelSnapshot, 0, len(evt.Channels))}
	for _, name := range channelNames(evt.Channels) {
		if err := ValidateChannelName(name); err != nil {
			d.reject(conn, EventChannelJoin, err)
			return
		}
		if err := d.join(conn, name, username); err != nil {
			d.reject(conn, EventChannelJoin, err)
			return
		}
		reply.Channels = append(reply.Channels, d.store.Channels.Snapshot(name))
	}
	d.fanout.ReplyTo(conn, reply)
}

// channelLeave stops at the first failing entry. Entries before it stay left.
func (d *Dispatcher) channelLeave(conn ConnID, evt ChannelLeave) {
	username, ok := d.authenticated(conn, EventChannelLeave)
	if !ok {
		return
	}
	reply := ChannelLeaveReply{Channels: make([]ChannelSnapshot, 0, len(evt.Channels))}
	for _, name := range channelNames(evt.Channels) {
		if err := ValidateChannelName(name); err != nil {
			d.reject(conn, EventChannelLeave, err)
			return
		}
		if err := d.leave(name, username); err != nil {
			d.reject(conn, EventChannelLeave, err)
			return
		}
		reply.Channels = append(reply.Channels, d.store.Channels.Snapshot(name))
	}
	d.fanout.ReplyTo(conn, reply)
}

func (d *Dispatcher) message(conn ConnID, evt PostMessage) {
	username, ok := d.authenticated(conn, EventMessage)
	if !ok {
		return
	}
	name := evt.Channel.Name
	if err := ValidateChannelName(name); err != nil {
		d.reject(conn, EventMessage, err)
		return
	}
	if err := ValidateMessageContent(evt.Content); err != nil {
		d.reject(conn, EventMessage, err)
		return
	}
	if !d.store.Channels.Exists(name) {
		d.reject(conn, EventMessage, newError(KindUnknownChannel, name, "channel %q does not exist", name))
		return
	}
	if !d.store.Channels.IsMember(name, username) {
		d.reject(conn, EventMessage, newError(KindMissingChannel, name, "%q is not a member of %q", username, name))
		return
	}

	content := evt.Content
	if d.censor != nil {
		content = d.censor.Censor(content)
	}
	msg := d.newMessage(username, name, content)
	if err := d.store.Channels.Post(name, msg); err != nil {
		d.log.Error("Post failed on a live channel", "conn", conn, "channel", name, "error", err)
		d.reject(conn, EventMessage, err)
		return
	}
	d.fanout.NotifyChannel(name, MessageBroadcast{Message: msg})
}

func (d *Dispatcher) logout(conn ConnID) {
	username, ok := d.authenticated(conn, EventLogout)
	if !ok {
		return
	}
	d.leaveAll(conn, username)
	d.states[conn] = Closed
	d.log.Info("User logged out", "conn", conn, "username", username)
	d.fanout.ReplyTo(conn, LogoutReply{})
}

// join adds the member and tells the members already present.
func (d *Dispatcher) join(conn ConnID, name, username string) error {
	created, err := d.store.Join(name, username)
	if err != nil {
		return err
	}
	if created {
		d.log.Info("Channel created", "channel", name)
		return nil
	}
	d.fanout.NotifyChannelExcept(name, ChannelUserEnter{Username: username, Channel: ChannelRef{Name: name}}, conn)
	return nil
}

// leave removes the member. When others remain, a system notice is logged and
// they are told; the last member leaving deletes the channel silently.
func (d *Dispatcher) leave(name, username string) error {
	deleted, err := d.store.Leave(name, username)
	if err != nil {
		return err
	}
	if deleted {
		d.log.Info("Channel deleted", "channel", name)
		return nil
	}
	notice := d.newMessage(SystemUsername, name, fmt.Sprintf("%s left the channel", username))
	if err := d.store.Channels.Post(name, notice); err != nil {
		d.log.Error("Leave notice not stored", "channel", name, "error", err)
	}
	d.fanout.NotifyChannel(name, ChannelUserLeave{Username: username, Channel: ChannelRef{Name: name}})
	return nil
}

func (d *Dispatcher) leaveAll(conn ConnID, username string) {
	for _, name := range d.store.Users.ChannelsOf(username) {
		if err := d.leave(name, username); err != nil {
			d.log.Error("Leave failed during logout", "conn", conn, "channel", name, "error", err)
		}
	}
	d.registry.Unbind(conn)
	if err := d.store.RemoveUser(username); err != nil {
		d.log.Error("User not removed", "username", username, "error", err)
	}
}

func (d *Dispatcher) newMessage(author, channel, content string) Message {
	now := d.now()
	return Message{
		ID:        ulid.MustNew(ulid.Timestamp(now), d.entropy),
		Author:    author,
		Channel:   ChannelRef{Name: channel},
		Content:   content,
		Timestamp: now,
	}
}

func channelNames(refs []ChannelRef) []string {
	return lo.Map(refs, func(ref ChannelRef, _ int) string { return ref.Name })
}
