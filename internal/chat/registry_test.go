package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_BindAndLookup(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	req.NoError(r.Bind("c1", "alice"))

	username, ok := r.UsernameOf("c1")
	req.True(ok)
	req.Equal("alice", username)

	conn, ok := r.ConnectionOf("alice")
	req.True(ok)
	req.Equal(ConnID("c1"), conn)
	req.Equal(1, r.Len())
}

func TestRegistry_Bind_RejectsRebinding(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	req.NoError(r.Bind("c1", "alice"))

	req.Error(r.Bind("c1", "bob"))
	req.Error(r.Bind("c2", "alice"))

	_, ok := r.ConnectionOf("bob")
	req.False(ok)
	req.Equal(1, r.Len())
}

func TestRegistry_Unbind_IsIdempotent(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	req.NoError(r.Bind("c1", "alice"))

	username, ok := r.Unbind("c1")
	req.True(ok)
	req.Equal("alice", username)

	_, ok = r.Unbind("c1")
	req.False(ok)

	_, ok = r.ConnectionOf("alice")
	req.False(ok)
	req.Zero(r.Len())
}
