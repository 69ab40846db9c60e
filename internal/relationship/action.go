package relationship

import (
	"strings"

	"github.com/mroshb/moodgram/pkg/errors"
)

// Action is something one user does to their relationship with another.
type Action int

const (
	ActionFollow Action = iota + 1
	ActionUnfollow
	ActionBlock
	ActionUnblock
	// ActionApprove and ActionIgnore answer a pending request: the acting
	// user is the one who received it, the target is the requester.
	ActionApprove
	ActionIgnore
)

var actionNames = map[Action]string{
	ActionFollow:   "follow",
	ActionUnfollow: "unfollow",
	ActionBlock:    "block",
	ActionUnblock:  "unblock",
	ActionApprove:  "approve",
	ActionIgnore:   "ignore",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// ParseAction maps a wire name such as "follow" to its Action.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return 0, errors.New(errors.ErrCodeValidation, "unknown relationship action: "+s)
}
