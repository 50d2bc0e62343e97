package chat

// User is a logged-in identity and the channels it currently belongs to.
type User struct {
	Username string
	Conn     ConnID
	channels map[string]struct{}
}

// Channels returns the user's channel names in sorted order.
func (u *User) Channels() []string {
	return sortedKeys(u.channels)
}

// UserDirectory owns User records. Its channel sets mirror the ChannelStore
// and are only changed through Store.
type UserDirectory struct {
	users map[string]*User
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{users: make(map[string]*User)}
}

func (d *UserDirectory) add(username string, conn ConnID) *User {
	u := &User{Username: username, Conn: conn, channels: make(map[string]struct{})}
	d.users[username] = u
	return u
}

func (d *UserDirectory) remove(username string) {
	delete(d.users, username)
}

func (d *UserDirectory) Get(username string) (*User, bool) {
	u, ok := d.users[username]
	return u, ok
}

func (d *UserDirectory) Exists(username string) bool {
	_, ok := d.users[username]
	return ok
}

func (d *UserDirectory) ChannelsOf(username string) []string {
	u, ok := d.users[username]
	if !ok {
		return []string{}
	}
	return u.Channels()
}

func (d *UserDirectory) Len() int {
	return len(d.users)
}
