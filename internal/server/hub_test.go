package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/robflop/chatron-server/internal/chat"
	"github.com/stretchr/testify/require"
)

// startHub runs a hub whose clients have no socket, so tests can read the
// encoded frames straight off each client's queue.
func startHub(t *testing.T, cfg Config, opts ...chat.Option) *Hub {
	t.Helper()
	hub := NewHub(testLogger(), cfg, opts...)
	go hub.Run()
	t.Cleanup(func() {
		_ = hub.Shutdown(time.Second)
	})
	return hub
}

func registerClient(t *testing.T, hub *Hub, addr string) *Client {
	t.Helper()
	client := NewClient(nil, hub, addr)
	require.True(t, hub.Register(client))
	return client
}

func nextEnvelope(t *testing.T, client *Client) envelope {
	t.Helper()
	select {
	case raw, ok := <-client.GetSendChan():
		require.True(t, ok, "send queue closed")
		var env envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
		return envelope{}
	}
}

func login(t *testing.T, hub *Hub, client *Client, username string, channels ...string) {
	t.Helper()
	refs := make([]chat.ChannelRef, 0, len(channels))
	for _, name := range channels {
		refs = append(refs, chat.ChannelRef{Name: name})
	}
	require.True(t, hub.submit(client, chat.Login{Username: username, Channels: refs}))
	require.Equal(t, chat.EventLogin, nextEnvelope(t, client).Event)
}

// TestNewHub verifies the hub takes its sizes from the sanitized config.
func TestNewHub(t *testing.T) {
	hub := NewHub(testLogger(), Config{SendBufferSize: 4})

	require.NotNil(t, hub.dispatcher)
	require.Equal(t, 4, hub.sendBufferSize)
	require.Equal(t, int64(defaultMaxMessageSize), hub.maxMessageSize)
	require.Zero(t, hub.ClientCount())
}

// TestHubRegisterAndUnregister verifies registration bookkeeping and that an
// unregistered client's queue is closed.
func TestHubRegisterAndUnregister(t *testing.T) {
	hub := startHub(t, *NewConfig())
	client := registerClient(t, hub, "alice-addr")

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.leave(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.GetSendChan()
	require.False(t, ok)
}

// TestHubDispatchesEventsInOrder verifies login, join and message flow
// through the hub to the right queues.
func TestHubDispatchesEventsInOrder(t *testing.T) {
	hub := startHub(t, *NewConfig())
	alice := registerClient(t, hub, "alice-addr")
	bob := registerClient(t, hub, "bob-addr")

	login(t, hub, alice, "alice", "general")
	login(t, hub, bob, "bob", "general")

	enter := nextEnvelope(t, alice)
	require.Equal(t, chat.EventChannelUserEnter, enter.Event)
	require.JSONEq(t, `{"username":"bob","channel":{"name":"general"}}`, string(enter.Data))

	require.True(t, hub.submit(bob, chat.PostMessage{Content: "hi", Channel: chat.ChannelRef{Name: "general"}}))
	for _, client := range []*Client{alice, bob} {
		env := nextEnvelope(t, client)
		require.Equal(t, chat.EventMessage, env.Event)

		var msg chat.Message
		require.NoError(t, json.Unmarshal(env.Data, &msg))
		require.Equal(t, "bob", msg.Author)
		require.Equal(t, "hi", msg.Content)
	}
}

// TestHubDisconnectRunsLeaveCascade verifies unregistering a logged in client
// notifies the channels it was in.
func TestHubDisconnectRunsLeaveCascade(t *testing.T) {
	hub := startHub(t, *NewConfig())
	alice := registerClient(t, hub, "alice-addr")
	bob := registerClient(t, hub, "bob-addr")

	login(t, hub, alice, "alice", "general")
	login(t, hub, bob, "bob", "general")
	nextEnvelope(t, alice) // bob's channelUserEnter

	hub.leave(bob)

	leave := nextEnvelope(t, alice)
	require.Equal(t, chat.EventChannelUserLeave, leave.Event)
	require.JSONEq(t, `{"username":"bob","channel":{"name":"general"}}`, string(leave.Data))
}

// TestHubIgnoresEventsFromUnregisteredClients verifies a late event from a
// departed client is dropped.
func TestHubIgnoresEventsFromUnregisteredClients(t *testing.T) {
	hub := startHub(t, *NewConfig())
	ghost := NewClient(nil, hub, "ghost-addr")
	alice := registerClient(t, hub, "alice-addr")

	require.True(t, hub.submit(ghost, chat.Login{Username: "ghost"}))
	login(t, hub, alice, "alice", "general")

	require.Equal(t, 1, hub.dispatcher.Stats().Users)
	require.Empty(t, ghost.GetSendChan())
}

// TestHubSendNeverBlocksOnFullQueue verifies a slow consumer cannot stall the
// hub loop.
func TestHubSendNeverBlocksOnFullQueue(t *testing.T) {
	cfg := *NewConfig()
	cfg.SendBufferSize = 1
	hub := startHub(t, cfg)
	slow := registerClient(t, hub, "slow-addr")
	fast := registerClient(t, hub, "fast-addr")

	// slow's login reply fills its queue and is never drained.
	require.True(t, hub.submit(slow, chat.Login{Username: "slow", Channels: []chat.ChannelRef{{Name: "general"}}}))
	login(t, hub, fast, "fast", "general")

	for range 3 {
		require.True(t, hub.submit(fast, chat.PostMessage{Content: "ping", Channel: chat.ChannelRef{Name: "general"}}))
		require.Equal(t, chat.EventMessage, nextEnvelope(t, fast).Event)
	}
	require.Len(t, slow.GetSendChan(), 1)
}

// TestHubSendToUnknownConnection verifies payloads for departed connections
// are dropped without panicking.
func TestHubSendToUnknownConnection(t *testing.T) {
	hub := NewHub(testLogger(), *NewConfig())

	require.NotPanics(t, func() {
		hub.Send("nobody", chat.LogoutReply{})
	})
}

// TestHubShutdownDisconnectsClients verifies Shutdown closes every queue and
// refuses later registrations.
func TestHubShutdownDisconnectsClients(t *testing.T) {
	hub := NewHub(testLogger(), *NewConfig())
	go hub.Run()

	alice := registerClient(t, hub, "alice-addr")
	login(t, hub, alice, "alice", "general")

	require.NoError(t, hub.Shutdown(time.Second))
	require.Zero(t, hub.ClientCount())
	require.Zero(t, hub.dispatcher.Stats().Channels)

	_, ok := <-alice.GetSendChan()
	require.False(t, ok)
	require.False(t, hub.Register(NewClient(nil, hub, "late-addr")))
}
