package session

import "fmt"

// State represents the lifecycle state of a Session.
type State int

const (
	// StateDisconnected indicates no transport is open.
	StateDisconnected State = iota
	// StateConnected indicates an open transport without a login.
	StateConnected
	// StateLoggedIn indicates an authenticated session that accepts every command.
	StateLoggedIn
	// StateLoggedOut indicates the account logged out while the transport stayed open.
	StateLoggedOut
)

// String returns the string representation of the State.
func (s State) String() string {
	if s < StateDisconnected || s > StateLoggedOut {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return [...]string{"DISCONNECTED", "CONNECTED", "LOGGED_IN", "LOGGED_OUT"}[s]
}
