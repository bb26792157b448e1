package room

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamblorhq/gamblor-backend/internal/apperror"
	"github.com/gamblorhq/gamblor-backend/internal/entity"
	"github.com/gamblorhq/gamblor-backend/internal/game"
	"github.com/gamblorhq/gamblor-backend/internal/service"
)

type recordedEvent struct {
	action  string
	payload any
}

type fakeConn struct {
	mutex  sync.Mutex
	events []recordedEvent
}

func (that *fakeConn) Send(action string, payload any) error {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.events = append(that.events, recordedEvent{action: action, payload: payload})

	return nil
}

func (that *fakeConn) byAction(action string) []any {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	var payloads []any
	for _, event := range that.events {
		if event.action == action {
			payloads = append(payloads, event.payload)
		}
	}

	return payloads
}

type fakePresence struct {
	mutex sync.Mutex
	users map[int64]*entity.User
}

func newFakePresence() *fakePresence {
	return &fakePresence{users: make(map[int64]*entity.User)}
}

func (that *fakePresence) Put(_ context.Context, user *entity.User) error {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.users[user.ID] = user

	return nil
}

func (that *fakePresence) Remove(_ context.Context, id int64) error {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	delete(that.users, id)

	return nil
}

func (that *fakePresence) Values(_ context.Context) ([]*entity.User, error) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	users := make([]*entity.User, 0, len(that.users))
	for _, user := range that.users {
		users = append(users, user)
	}

	return users, nil
}

type fakeAuth struct {
	identities map[string]entity.User
}

func (that *fakeAuth) ResolveToken(_ context.Context, token string) (*entity.User, error) {
	identity, ok := that.identities[token]
	if !ok {
		return nil, apperror.ErrUnauthenticated
	}

	user := identity

	return &user, nil
}

type fakeBettor struct {
	result *service.BetResult
	err    error

	mutex sync.Mutex
	calls int
}

func (that *fakeBettor) PlaceBet(_ context.Context, _ int64, _, _ string, _ json.RawMessage) (*service.BetResult, error) {
	that.mutex.Lock()
	that.calls++
	that.mutex.Unlock()

	return that.result, that.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRoom(bettor *fakeBettor, games *game.Registry) (*Room, *fakePresence) {
	presence := newFakePresence()
	auth := &fakeAuth{identities: map[string]entity.User{
		"alice-token": {ID: 1, Name: "alice"},
		"bob-token":   {ID: 2, Name: "bob"},
	}}

	if games == nil {
		games = game.NewRegistry()
	}
	if bettor == nil {
		bettor = &fakeBettor{result: &service.BetResult{Status: service.BetRejectedInput}}
	}

	return New(testLogger(), auth, presence, bettor, games), presence
}

func TestRoom_Connect(t *testing.T) {
	ctx := context.Background()

	gameRoom, presence := newTestRoom(nil, nil)

	// Given: alice connects to an empty room
	aliceConn := &fakeConn{}
	aliceSession := gameRoom.Connect(ctx, "alice-token", aliceConn)

	// Then: she is identified, spawned inside the spawn box, and sees
	// an empty roster
	alice, ok := aliceSession.Identity()
	require.True(t, ok)
	assert.GreaterOrEqual(t, alice.X, spawnXMin)
	assert.Less(t, alice.X, spawnXMin+spawnXSpan)
	assert.GreaterOrEqual(t, alice.Y, spawnYMin)
	assert.Less(t, alice.Y, spawnYMin+spawnYSpan)

	aliceRosters := aliceConn.byAction(ActionUsers)
	require.Len(t, aliceRosters, 1)
	assert.Empty(t, aliceRosters[0].([]*entity.User))

	// When: bob connects second
	bobConn := &fakeConn{}
	bobSession := gameRoom.Connect(ctx, "bob-token", bobConn)

	// Then: bob's roster holds alice's record, alice hears bob join,
	// and bob gets no echo of his own join
	bobRosters := bobConn.byAction(ActionUsers)
	require.Len(t, bobRosters, 1)
	bobView := bobRosters[0].([]*entity.User)
	require.Len(t, bobView, 1)
	assert.Equal(t, alice, bobView[0])

	aliceJoins := aliceConn.byAction(ActionJoin)
	require.Len(t, aliceJoins, 1)
	bob, ok := bobSession.Identity()
	require.True(t, ok)
	assert.Equal(t, bob, aliceJoins[0].(*entity.User))
	assert.Empty(t, bobConn.byAction(ActionJoin))

	// And: presence holds both users
	roster, err := presence.Values(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 2)
}

func TestRoom_Connect_Anonymous(t *testing.T) {
	ctx := context.Background()

	gameRoom, presence := newTestRoom(nil, nil)

	// When: the credential does not resolve
	conn := &fakeConn{}
	session := gameRoom.Connect(ctx, "bad-token", conn)

	// Then: the session is anonymous but still receives the roster
	_, ok := session.Identity()
	assert.False(t, ok)
	assert.Len(t, conn.byAction(ActionUsers), 1)

	roster, err := presence.Values(ctx)
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestRoom_Connect_GameSnapshot(t *testing.T) {
	ctx := context.Background()

	// Given: the dice table already has a player
	dice := game.NewDice()
	require.True(t, dice.PlaceBet(7, 10, json.RawMessage(`{"target":3}`)))

	gameRoom, _ := newTestRoom(nil, game.NewRegistry(dice))

	// When: a new connection arrives
	conn := &fakeConn{}
	gameRoom.Connect(ctx, "alice-token", conn)

	// Then: it receives a snapshot of the non-empty table
	snapshots := conn.byAction(ActionGameUsers)
	require.Len(t, snapshots, 1)
	assert.Equal(t, GameUsersEvent{Game: "dice", Players: []int64{7}}, snapshots[0])
}

func TestRoom_Chat(t *testing.T) {
	ctx := context.Background()

	gameRoom, _ := newTestRoom(nil, nil)

	aliceConn := &fakeConn{}
	aliceSession := gameRoom.Connect(ctx, "alice-token", aliceConn)
	bobConn := &fakeConn{}
	gameRoom.Connect(ctx, "bob-token", bobConn)

	// When: alice chats
	gameRoom.Chat(ctx, aliceSession, "hello")

	// Then: everyone receives it, the sender included
	alice, _ := aliceSession.Identity()
	want := ChatEvent{User: alice, Message: "hello"}

	aliceChats := aliceConn.byAction(ActionChat)
	require.Len(t, aliceChats, 1)
	assert.Equal(t, want, aliceChats[0])

	bobChats := bobConn.byAction(ActionChat)
	require.Len(t, bobChats, 1)
	assert.Equal(t, want, bobChats[0])
}

func TestRoom_Chat_AnonymousDropped(t *testing.T) {
	ctx := context.Background()

	gameRoom, _ := newTestRoom(nil, nil)

	anonConn := &fakeConn{}
	anonSession := gameRoom.Connect(ctx, "bad-token", anonConn)
	bobConn := &fakeConn{}
	gameRoom.Connect(ctx, "bob-token", bobConn)

	gameRoom.Chat(ctx, anonSession, "hello")

	assert.Empty(t, bobConn.byAction(ActionChat))
	assert.Empty(t, anonConn.byAction(ActionChat))
}

func TestRoom_Move(t *testing.T) {
	ctx := context.Background()

	gameRoom, presence := newTestRoom(nil, nil)

	aliceConn := &fakeConn{}
	aliceSession := gameRoom.Connect(ctx, "alice-token", aliceConn)
	bobConn := &fakeConn{}
	gameRoom.Connect(ctx, "bob-token", bobConn)

	alice, _ := aliceSession.Identity()
	oldY := alice.Y

	// When: alice moves on the x axis only
	newX := 500
	gameRoom.Move(ctx, aliceSession, &newX, nil)

	// Then: x changes, y is untouched, presence holds the update
	assert.Equal(t, 500, alice.X)
	assert.Equal(t, oldY, alice.Y)

	stored := presence.users[alice.ID]
	assert.Equal(t, 500, stored.X)

	// And: only the others hear about it
	bobMoves := bobConn.byAction(ActionMove)
	require.Len(t, bobMoves, 1)
	assert.Equal(t, alice, bobMoves[0].(*entity.User))
	assert.Empty(t, aliceConn.byAction(ActionMove))
}

func TestRoom_Disconnect(t *testing.T) {
	ctx := context.Background()

	gameRoom, presence := newTestRoom(nil, nil)

	aliceConn := &fakeConn{}
	aliceSession := gameRoom.Connect(ctx, "alice-token", aliceConn)
	bobConn := &fakeConn{}
	gameRoom.Connect(ctx, "bob-token", bobConn)

	alice, _ := aliceSession.Identity()

	// When: alice disconnects
	gameRoom.Disconnect(ctx, aliceSession)

	// Then: bob hears the leave and alice is out of the presence store
	bobLeaves := bobConn.byAction(ActionLeave)
	require.Len(t, bobLeaves, 1)
	assert.Equal(t, alice, bobLeaves[0].(*entity.User))

	roster, err := presence.Values(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, int64(2), roster[0].ID)
}

func TestRoom_Disconnect_Anonymous(t *testing.T) {
	ctx := context.Background()

	gameRoom, _ := newTestRoom(nil, nil)

	anonConn := &fakeConn{}
	anonSession := gameRoom.Connect(ctx, "bad-token", anonConn)
	bobConn := &fakeConn{}
	gameRoom.Connect(ctx, "bob-token", bobConn)

	gameRoom.Disconnect(ctx, anonSession)

	assert.Empty(t, bobConn.byAction(ActionLeave))
}

func TestRoom_Bet(t *testing.T) {
	ctx := context.Background()

	t.Run("InsufficientFunds_NoticeToBettorOnly", func(t *testing.T) {
		bettor := &fakeBettor{result: &service.BetResult{Status: service.BetInsufficientFunds, Game: "dice"}}
		gameRoom, _ := newTestRoom(bettor, nil)

		aliceConn := &fakeConn{}
		aliceSession := gameRoom.Connect(ctx, "alice-token", aliceConn)
		bobConn := &fakeConn{}
		gameRoom.Connect(ctx, "bob-token", bobConn)

		gameRoom.Bet(ctx, aliceSession, "dice", "10", nil)

		notices := aliceConn.byAction(ActionNotice)
		require.Len(t, notices, 1)
		assert.Equal(t, noticeInsufficientFunds, notices[0])

		assert.Empty(t, bobConn.byAction(ActionNotice))
		assert.Empty(t, aliceConn.byAction(ActionGameUsers))
		assert.Empty(t, bobConn.byAction(ActionGameUsers))
	})

	t.Run("Accepted_RosterBroadcastToAll", func(t *testing.T) {
		bettor := &fakeBettor{result: &service.BetResult{Status: service.BetAccepted, Game: "dice", Players: []int64{1}}}
		gameRoom, _ := newTestRoom(bettor, nil)

		aliceConn := &fakeConn{}
		aliceSession := gameRoom.Connect(ctx, "alice-token", aliceConn)
		bobConn := &fakeConn{}
		gameRoom.Connect(ctx, "bob-token", bobConn)

		gameRoom.Bet(ctx, aliceSession, "dice", "10", json.RawMessage(`{"target":3}`))

		want := GameUsersEvent{Game: "dice", Players: []int64{1}}

		aliceSnapshots := aliceConn.byAction(ActionGameUsers)
		require.Len(t, aliceSnapshots, 1)
		assert.Equal(t, want, aliceSnapshots[0])

		bobSnapshots := bobConn.byAction(ActionGameUsers)
		require.Len(t, bobSnapshots, 1)
		assert.Equal(t, want, bobSnapshots[0])
	})

	t.Run("RejectedByGame_RosterStillBroadcast", func(t *testing.T) {
		bettor := &fakeBettor{result: &service.BetResult{Status: service.BetRejectedByGame, Game: "dice", Players: []int64{1}}}
		gameRoom, _ := newTestRoom(bettor, nil)

		aliceConn := &fakeConn{}
		aliceSession := gameRoom.Connect(ctx, "alice-token", aliceConn)
		bobConn := &fakeConn{}
		gameRoom.Connect(ctx, "bob-token", bobConn)

		gameRoom.Bet(ctx, aliceSession, "dice", "10", nil)

		assert.Len(t, aliceConn.byAction(ActionGameUsers), 1)
		assert.Len(t, bobConn.byAction(ActionGameUsers), 1)
	})

	t.Run("RejectedInput_Silent", func(t *testing.T) {
		bettor := &fakeBettor{result: &service.BetResult{Status: service.BetRejectedInput}}
		gameRoom, _ := newTestRoom(bettor, nil)

		aliceConn := &fakeConn{}
		aliceSession := gameRoom.Connect(ctx, "alice-token", aliceConn)

		gameRoom.Bet(ctx, aliceSession, "dice", "abc", nil)

		assert.Empty(t, aliceConn.byAction(ActionNotice))
		assert.Empty(t, aliceConn.byAction(ActionGameUsers))
	})

	t.Run("Anonymous_NeverReachesCoordinator", func(t *testing.T) {
		bettor := &fakeBettor{result: &service.BetResult{Status: service.BetAccepted, Game: "dice"}}
		gameRoom, _ := newTestRoom(bettor, nil)

		anonConn := &fakeConn{}
		anonSession := gameRoom.Connect(ctx, "bad-token", anonConn)

		gameRoom.Bet(ctx, anonSession, "dice", "10", nil)

		assert.Zero(t, bettor.calls)
		assert.Empty(t, anonConn.byAction(ActionGameUsers))
	})
}
