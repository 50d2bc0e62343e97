package chat

// Store pairs the ChannelStore and the UserDirectory so that membership is
// always changed on both sides in one call.
type Store struct {
	Channels *ChannelStore
	Users    *UserDirectory
}

func NewStore() *Store {
	return &Store{
		Channels: NewChannelStore(),
		Users:    NewUserDirectory(),
	}
}

// AddUser creates the user record. Callers validate the username first.
func (s *Store) AddUser(username string, conn ConnID) *User {
	return s.Users.add(username, conn)
}

// RemoveUser drops a user that no longer belongs to any channel.
func (s *Store) RemoveUser(username string) error {
	u, ok := s.Users.Get(username)
	if !ok {
		return nil
	}
	if len(u.channels) > 0 {
		return newError(KindInvalidState, "", "user %q still belongs to %d channels", username, len(u.channels))
	}
	s.Users.remove(username)
	return nil
}

// Join adds username to the channel, creating the channel when absent.
func (s *Store) Join(channelName, username string) (created bool, err error) {
	u, ok := s.Users.Get(username)
	if !ok {
		return false, newError(KindInvalidState, channelName, "user %q is not logged in", username)
	}
	created, err = s.Channels.join(channelName, username)
	if err != nil {
		return false, err
	}
	u.channels[channelName] = struct{}{}
	return created, nil
}

// Leave removes username from the channel. deleted reports that the channel
// lost its last member and is gone together with its log.
func (s *Store) Leave(channelName, username string) (deleted bool, err error) {
	u, ok := s.Users.Get(username)
	if !ok {
		return false, newError(KindMissingChannel, channelName, "user %q is not logged in", username)
	}
	deleted, err = s.Channels.leave(channelName, username)
	if err != nil {
		return false, err
	}
	delete(u.channels, channelName)
	return deleted, nil
}
