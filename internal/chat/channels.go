package chat

import (
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
)

// ChannelRef is how channels are referenced on the wire.
type ChannelRef struct {
	Name string `json:"name"`
}

// Message is one entry of a channel log. Join/leave notices are authored by
// SystemUsername.
type Message struct {
	ID        ulid.ULID  `json:"id"`
	Author    string     `json:"author"`
	Channel   ChannelRef `json:"channel"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// ChannelSnapshot is the view of a channel handed back to clients.
type ChannelSnapshot struct {
	Name     string    `json:"name"`
	Members  []string  `json:"members"`
	Messages []Message `json:"messages"`
}

type channel struct {
	name     string
	members  map[string]struct{}
	messages []Message
}

func (c *channel) snapshot() ChannelSnapshot {
	return ChannelSnapshot{
		Name:     c.name,
		Members:  sortedKeys(c.members),
		Messages: append([]Message{}, c.messages...),
	}
}

// ChannelStore owns channel records and their logs. A channel lives exactly
// as long as it has members.
type ChannelStore struct {
	channels map[string]*channel
}

func NewChannelStore() *ChannelStore {
	return &ChannelStore{channels: make(map[string]*channel)}
}

// join creates the channel when absent. created reports whether it did.
func (s *ChannelStore) join(name, username string) (created bool, err error) {
	ch, ok := s.channels[name]
	if !ok {
		ch = &channel{name: name, members: make(map[string]struct{})}
		s.channels[name] = ch
		created = true
	}
	if _, member := ch.members[username]; member {
		return false, newError(KindDuplicateChannel, name, "%q is already a member of %q", username, name)
	}
	ch.members[username] = struct{}{}
	return created, nil
}

// leave removes the member and deletes the channel with its log once empty.
func (s *ChannelStore) leave(name, username string) (deleted bool, err error) {
	ch, ok := s.channels[name]
	if !ok {
		return false, newError(KindMissingChannel, name, "%q is not a member of %q", username, name)
	}
	if _, member := ch.members[username]; !member {
		return false, newError(KindMissingChannel, name, "%q is not a member of %q", username, name)
	}
	delete(ch.members, username)
	if len(ch.members) == 0 {
		delete(s.channels, name)
		return true, nil
	}
	return false, nil
}

// Post appends to the channel log in arrival order.
func (s *ChannelStore) Post(name string, msg Message) error {
	ch, ok := s.channels[name]
	if !ok {
		return newError(KindUnknownChannel, name, "channel %q does not exist", name)
	}
	ch.messages = append(ch.messages, msg)
	return nil
}

// MembersOf returns the sorted member list, empty when the channel is gone.
func (s *ChannelStore) MembersOf(name string) []string {
	ch, ok := s.channels[name]
	if !ok {
		return []string{}
	}
	return sortedKeys(ch.members)
}

func (s *ChannelStore) IsMember(name, username string) bool {
	ch, ok := s.channels[name]
	if !ok {
		return false
	}
	_, member := ch.members[username]
	return member
}

func (s *ChannelStore) Exists(name string) bool {
	_, ok := s.channels[name]
	return ok
}

// Snapshot of a deleted channel carries no members and no messages.
func (s *ChannelStore) Snapshot(name string) ChannelSnapshot {
	ch, ok := s.channels[name]
	if !ok {
		return ChannelSnapshot{Name: name, Members: []string{}, Messages: []Message{}}
	}
	return ch.snapshot()
}

func (s *ChannelStore) Len() int {
	return len(s.channels)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := lo.Keys(set)
	slices.Sort(keys)
	return keys
}
