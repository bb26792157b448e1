package room

import (
	"log/slog"
	"sync"
)

// Broadcaster fans events out to live sessions. Delivery order across
// recipients is unspecified; a failed send to one session never blocks
// or fails the others.
type Broadcaster struct {
	logger *slog.Logger

	mutex    sync.RWMutex
	sessions map[string]*Session
}

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

func (that *Broadcaster) Register(session *Session) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.sessions[session.id] = session
}

func (that *Broadcaster) Unregister(session *Session) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	delete(that.sessions, session.id)
}

// Emit sends an event to a single session only.
func (that *Broadcaster) Emit(session *Session, action string, payload any) {
	if err := session.conn.Send(action, payload); err != nil {
		that.logger.Error("failed to emit event", "action", action, "sessionID", session.id, "error", err)
	}
}

// BroadcastAll sends an event to every live session, the sender included.
func (that *Broadcaster) BroadcastAll(action string, payload any) {
	for _, session := range that.snapshot() {
		that.Emit(session, action, payload)
	}
}

// BroadcastExcept sends an event to every live session but the given one.
func (that *Broadcaster) BroadcastExcept(except *Session, action string, payload any) {
	for _, session := range that.snapshot() {
		if session.id == except.id {
			continue
		}
		that.Emit(session, action, payload)
	}
}

func (that *Broadcaster) snapshot() []*Session {
	that.mutex.RLock()
	defer that.mutex.RUnlock()

	sessions := make([]*Session, 0, len(that.sessions))
	for _, session := range that.sessions {
		sessions = append(sessions, session)
	}

	return sessions
}
