package room

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gamblorhq/gamblor-backend/internal/entity"
)

// Conn is the transport half of a session: a way to push one event to
// one connected client. Implementations must be safe for concurrent use
// since broadcasts run on other sessions' goroutines.
type Conn interface {
	Send(action string, payload any) error
}

// Session is one live connection. A session with no user identity is
// anonymous: it still receives broadcasts but none of its inbound
// events mutate shared state.
type Session struct {
	id   string
	conn Conn

	mutex sync.Mutex
	user  *entity.User
}

func newSession(conn Conn) *Session {
	return &Session{
		id:   uuid.NewString(),
		conn: conn,
	}
}

func (that *Session) ID() string {
	return that.id
}

// Identity returns the session's user record and whether the session is
// identified. The record is the single shared instance also held by the
// presence store path, not a copy.
func (that *Session) Identity() (*entity.User, bool) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.user, that.user != nil
}

func (that *Session) identify(user *entity.User) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.user = user
}

// mergePosition folds a move event into the user record in place.
// Absent fields keep their current value.
func (that *Session) mergePosition(x, y *int) (*entity.User, bool) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	if that.user == nil {
		return nil, false
	}

	if x != nil {
		that.user.X = *x
	}
	if y != nil {
		that.user.Y = *y
	}

	return that.user, true
}
