package services

import "sync"

// RoomLocks serializes mutations per room. Every operation that reads room
// or ledger state and then writes a decision (arm or cancel the countdown,
// transition the state machine, swap roles) takes the room's lock first, so
// completeness is always evaluated against a consistent snapshot. Rooms are
// independent; there is no global lock.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewRoomLocks() *RoomLocks {
	return &RoomLocks{locks: make(map[uint]*sync.Mutex)}
}

// Lock acquires the lock for roomID and returns the unlock func.
func (l *RoomLocks) Lock(roomID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[roomID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Forget drops the lock entry for a deleted room.
func (l *RoomLocks) Forget(roomID uint) {
	l.mu.Lock()
	delete(l.locks, roomID)
	l.mu.Unlock()
}
