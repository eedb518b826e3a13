// game/errors.go
package game

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
)

// InvalidStateError reports an action that is not legal in the current
// room/game status. The reason is safe to report back to the client.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

var (
	ErrNotEnoughPlayers = &InvalidStateError{Reason: "not enough players"}
	ErrNotAllReady      = &InvalidStateError{Reason: "not all players are ready"}
	ErrAlreadyStarted   = &InvalidStateError{Reason: "game already started"}
	ErrAlreadyFinished  = &InvalidStateError{Reason: "game is already finished"}
	ErrNotStarted       = &InvalidStateError{Reason: "game has not started"}
	ErrNotYourTurn      = &InvalidStateError{Reason: "not your turn"}
	ErrNotInRoom        = &InvalidStateError{Reason: "player is not in this room"}
)

// ValidationError reports malformed input, e.g. an out-of-range guess.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func IsInvalidState(err error) bool {
	var e *InvalidStateError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
