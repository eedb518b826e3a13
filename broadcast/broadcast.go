// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/denred/multi-player-guess-number/session"
)

var ErrSessionNotFound = errors.New("session not found")

// Broadcaster fans events out to live connections. Scopes follow the
// protocol rules: room events to the room's subscribers, lobby events to
// everyone, errors and snapshots to a single session.
type Broadcaster interface {
	ToRoom(roomID, event string, payload interface{}) error
	ToAll(event string, payload interface{}) error
	ToSession(sessionID, event string, payload interface{}) error
}

// SessionBroadcaster resolves scopes through the live session table.
type SessionBroadcaster struct {
	sessions *session.Manager
}

func NewSessionBroadcaster(sessions *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{sessions: sessions}
}

func (b *SessionBroadcaster) ToRoom(roomID, event string, payload interface{}) error {
	for _, s := range b.sessions.GetByRoomID(roomID) {
		if err := s.Send(event, payload); err != nil {
			// Send failures surface as read errors on the connection's
			// own loop; skip the session rather than abort the fan-out.
			continue
		}
	}
	return nil
}

func (b *SessionBroadcaster) ToAll(event string, payload interface{}) error {
	for _, s := range b.sessions.All() {
		if err := s.Send(event, payload); err != nil {
			continue
		}
	}
	return nil
}

func (b *SessionBroadcaster) ToSession(sessionID, event string, payload interface{}) error {
	sess, exists := b.sessions.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return sess.Send(event, payload)
}
