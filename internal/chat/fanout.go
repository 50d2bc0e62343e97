//go:generate go run go.uber.org/mock/mockgen -source=fanout.go -destination=mocks/mock_sender.go -package=mocks
package chat

import "log/slog"

// Sender is the transport's send primitive. Implementations must not block:
// delivery is best-effort and fire-and-forget.
type Sender interface {
	Send(conn ConnID, payload Payload)
}

// Fanout resolves channel members to live connections and hands payloads to
// the Sender.
type Fanout struct {
	channels *ChannelStore
	registry *Registry
	sender   Sender
	log      *slog.Logger
}

func NewFanout(log *slog.Logger, channels *ChannelStore, registry *Registry, sender Sender) *Fanout {
	return &Fanout{channels: channels, registry: registry, sender: sender, log: log}
}

// NotifyChannel sends payload to every member of the channel and returns the
// number of connections it was handed to.
func (f *Fanout) NotifyChannel(channelName string, payload Payload) int {
	return f.NotifyChannelExcept(channelName, payload, "")
}

// NotifyChannelExcept skips the exclude connection. Members without a bound
// connection are skipped silently.
func (f *Fanout) NotifyChannelExcept(channelName string, payload Payload, exclude ConnID) int {
	delivered := 0
	for _, username := range f.channels.MembersOf(channelName) {
		conn, ok := f.registry.ConnectionOf(username)
		if !ok {
			f.log.Debug("Skipping member without connection", "channel", channelName, "username", username)
			continue
		}
		if exclude != "" && conn == exclude {
			continue
		}
		f.sender.Send(conn, payload)
		delivered++
	}
	f.log.Debug("Channel fanout", "channel", channelName, "event", payload.Name(), "targets", delivered)
	return delivered
}

// ReplyTo answers the originating connection directly.
func (f *Fanout) ReplyTo(conn ConnID, payload Payload) {
	f.sender.Send(conn, payload)
}
