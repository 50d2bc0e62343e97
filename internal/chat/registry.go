package chat

import "fmt"

// ConnID is the opaque identifier the transport assigns to a connection.
type ConnID string

// Registry maps connections to logged-in usernames in both directions. It is
// the single source of truth for who is reachable right now.
type Registry struct {
	byConn map[ConnID]string
	byUser map[string]ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[ConnID]string),
		byUser: make(map[string]ConnID),
	}
}

// Bind fails when the connection or the username is already bound.
func (r *Registry) Bind(conn ConnID, username string) error {
	if existing, ok := r.byConn[conn]; ok {
		return fmt.Errorf("connection %s already bound to %q", conn, existing)
	}
	if existing, ok := r.byUser[username]; ok {
		return fmt.Errorf("username %q already bound to connection %s", username, existing)
	}
	r.byConn[conn] = username
	r.byUser[username] = conn
	return nil
}

// Unbind is idempotent and returns the username that was bound, if any.
func (r *Registry) Unbind(conn ConnID) (string, bool) {
	username, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)
	delete(r.byUser, username)
	return username, true
}

func (r *Registry) UsernameOf(conn ConnID) (string, bool) {
	username, ok := r.byConn[conn]
	return username, ok
}

func (r *Registry) ConnectionOf(username string) (ConnID, bool) {
	conn, ok := r.byUser[username]
	return conn, ok
}

func (r *Registry) Len() int {
	return len(r.byConn)
}
