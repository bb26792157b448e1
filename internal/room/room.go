package room

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"

	"github.com/gamblorhq/gamblor-backend/internal/entity"
	"github.com/gamblorhq/gamblor-backend/internal/game"
	"github.com/gamblorhq/gamblor-backend/internal/service"
)

// Spawn box for newly identified users.
const (
	spawnXMin  = 780
	spawnXSpan = 200
	spawnYMin  = 100
	spawnYSpan = 200
)

const noticeInsufficientFunds = "You don't have that amount to bet"

type presenceStore interface {
	Put(ctx context.Context, user *entity.User) error
	Remove(ctx context.Context, id int64) error
	Values(ctx context.Context) ([]*entity.User, error)
}

type authenticator interface {
	ResolveToken(ctx context.Context, token string) (*entity.User, error)
}

type bettor interface {
	PlaceBet(ctx context.Context, userID int64, gameName, amount string, args json.RawMessage) (*service.BetResult, error)
}

// Room ties presence, games, and betting together for one shared space.
// Every inbound handler may run concurrently with handlers of other
// sessions; shared state lives behind the presence store, the games'
// own rosters, and the betting coordinator's per-identity locks.
type Room struct {
	logger      *slog.Logger
	auth        authenticator
	presence    presenceStore
	betting     bettor
	games       *game.Registry
	broadcaster *Broadcaster
}

func New(logger *slog.Logger, auth authenticator, presence presenceStore, betting bettor, games *game.Registry) *Room {
	return &Room{
		logger:      logger.With("component", "room"),
		auth:        auth,
		presence:    presence,
		betting:     betting,
		games:       games,
		broadcaster: NewBroadcaster(logger),
	}
}

// Connect performs the start handshake for a new connection: resolve
// the credential, register presence, announce the join to everyone
// else, and send the newcomer the current roster plus a snapshot of
// every non-empty game table. A failed credential lookup degrades the
// session to anonymous without surfacing anything to the peer.
func (that *Room) Connect(ctx context.Context, token string, conn Conn) *Session {
	log := that.logger.With("method", "Connect")

	session := newSession(conn)
	that.broadcaster.Register(session)

	// Roster snapshot is taken before this user lands in the store, so
	// a first connection sees an empty room rather than itself.
	roster, err := that.presence.Values(ctx)
	if err != nil {
		log.Error("failed to read roster", "error", err)
		roster = nil
	}

	user, err := that.auth.ResolveToken(ctx, token)
	if err != nil {
		log.Debug("anonymous session", "sessionID", session.id, "error", err)
	} else {
		user.X = spawnXMin + rand.Intn(spawnXSpan) //nolint:gosec // spawn position, not security sensitive
		user.Y = spawnYMin + rand.Intn(spawnYSpan) //nolint:gosec // spawn position, not security sensitive

		session.identify(user)

		if err = that.presence.Put(ctx, user); err != nil {
			log.Error("failed to store presence", "userID", user.ID, "error", err)
		}

		that.broadcaster.BroadcastExcept(session, ActionJoin, user)

		log.Info("user joined", "userID", user.ID, "name", user.Name)
	}

	that.broadcaster.Emit(session, ActionUsers, roster)

	for _, g := range that.games.All() {
		players := g.Players()
		if len(players) == 0 {
			continue
		}
		that.broadcaster.Emit(session, ActionGameUsers, GameUsersEvent{Game: g.Name(), Players: players})
	}

	return session
}

// Chat relays a message to every session, the sender included.
func (that *Room) Chat(_ context.Context, session *Session, message string) {
	user, ok := session.Identity()
	if !ok {
		return
	}

	that.broadcaster.BroadcastAll(ActionChat, ChatEvent{User: user, Message: message})
}

// Move merges the new position into the user record, persists it, and
// tells everyone else. The sender needs no echo of its own move.
func (that *Room) Move(ctx context.Context, session *Session, x, y *int) {
	log := that.logger.With("method", "Move")

	user, ok := session.mergePosition(x, y)
	if !ok {
		return
	}

	if err := that.presence.Put(ctx, user); err != nil {
		log.Error("failed to store presence", "userID", user.ID, "error", err)
	}

	that.broadcaster.BroadcastExcept(session, ActionMove, user)
}

// Bet forwards a bet to the coordinator and fans out the outcome.
// Validation failures stay silent; an insufficient balance is signaled
// to the bettor alone; any settled attempt, accepted or not, broadcasts
// the game roster so all clients stay in sync.
func (that *Room) Bet(ctx context.Context, session *Session, gameName, amount string, args json.RawMessage) {
	log := that.logger.With("method", "Bet")

	user, ok := session.Identity()
	if !ok {
		return
	}

	result, err := that.betting.PlaceBet(ctx, user.ID, gameName, amount, args)
	if err != nil {
		log.Error("failed to settle bet", "userID", user.ID, "game", gameName, "error", err)
		return
	}

	switch result.Status {
	case service.BetRejectedInput:
		// Fail closed: no event, no state change.
	case service.BetInsufficientFunds:
		that.broadcaster.Emit(session, ActionNotice, noticeInsufficientFunds)
	case service.BetAccepted, service.BetRejectedByGame:
		that.broadcaster.BroadcastAll(ActionGameUsers, GameUsersEvent{Game: result.Game, Players: result.Players})
	}
}

// Disconnect tears the session down. An identified session leaves the
// presence store and its departure is announced; an anonymous one goes
// away without side effects.
func (that *Room) Disconnect(ctx context.Context, session *Session) {
	log := that.logger.With("method", "Disconnect")

	that.broadcaster.Unregister(session)

	user, ok := session.Identity()
	if !ok {
		return
	}

	if err := that.presence.Remove(ctx, user.ID); err != nil {
		log.Error("failed to remove presence", "userID", user.ID, "error", err)
	}

	that.broadcaster.BroadcastExcept(session, ActionLeave, user)

	log.Info("user left", "userID", user.ID)
}
