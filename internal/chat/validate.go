package chat

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinNameLength    = 2
	MaxNameLength    = 32
	MaxContentLength = 2000

	// SystemUsername authors join/leave notices and can never be claimed.
	SystemUsername = "system"
)

var validate = validator.New()

const (
	nameRule    = "min=2,max=32"
	contentRule = "max=2000"
)

// nameLookup is the part of the user directory the validator needs.
type nameLookup interface {
	Exists(username string) bool
}

// ValidateUsername checks length first, then uniqueness against the directory
// and the reserved system identity.
func ValidateUsername(name string, users nameLookup) error {
	if err := validate.Var(name, nameRule); err != nil {
		return newError(KindUsernameLength, "",
			"username must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	if strings.EqualFold(name, SystemUsername) {
		return newError(KindDuplicateUsername, "", "username %q is reserved", name)
	}
	if users != nil && users.Exists(name) {
		return newError(KindDuplicateUsername, "", "username %q is already taken", name)
	}
	return nil
}

func ValidateChannelName(name string) error {
	if err := validate.Var(name, nameRule); err != nil {
		return newError(KindChannelNameLength, name,
			"channel name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	return nil
}

func ValidateMessageContent(text string) error {
	if err := validate.Var(text, "required"); err != nil {
		return newError(KindEmptyMessage, "", "message content is empty")
	}
	if err := validate.Var(text, contentRule); err != nil {
		return newError(KindMaxCharLimit, "",
			"message content exceeds %d characters", MaxContentLength)
	}
	return nil
}
