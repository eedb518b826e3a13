// game/locks.go
package game

import "sync"

// roomLocks hands out one mutex per room. The lock is held across the
// whole read-evaluate-write sequence of game start and guess handling,
// which is the serialization point that resolves concurrent guesses: the
// store itself only offers plain primitives, so exactly one contender
// observes the turn it expects and every other one fails the turn check.
type roomLocks struct {
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *roomLocks) forRoom(roomID string) *sync.Mutex {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	lock, exists := l.locks[roomID]
	if !exists {
		lock = &sync.Mutex{}
		l.locks[roomID] = lock
	}
	return lock
}

// release drops the lock entry for a deleted room.
func (l *roomLocks) release(roomID string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	delete(l.locks, roomID)
}
