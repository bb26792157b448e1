package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/gamblorhq/gamblor-backend/internal/game"
)

type BetStatus int

const (
	// BetRejectedInput is the fail-closed outcome: the input never made
	// it past validation and nothing observable happened.
	BetRejectedInput BetStatus = iota
	BetInsufficientFunds
	BetAccepted
	BetRejectedByGame
)

// BetResult is what the transport fans out after a settlement attempt.
// Players carries the game roster for both accepted and game-rejected
// bets so every client's view of the table stays in sync.
type BetResult struct {
	Status  BetStatus
	Game    string
	Players []int64
}

type balanceStore interface {
	GetBalance(ctx context.Context, id int64) (int64, error)
	SetBalance(ctx context.Context, id int64, balance int64) error
}

// BettingCoordinator validates and settles bets. The fetch-debit-persist
// sequence is serialized per identity, otherwise two concurrent bets
// could both pass the balance check against the same stale value.
type BettingCoordinator struct {
	logger   *slog.Logger
	accounts balanceStore
	games    *game.Registry

	locksMutex sync.Mutex
	locks      map[int64]*sync.Mutex
}

func NewBettingCoordinator(logger *slog.Logger, accounts balanceStore, games *game.Registry) *BettingCoordinator {
	return &BettingCoordinator{
		logger:   logger,
		accounts: accounts,
		games:    games,

		locks: make(map[int64]*sync.Mutex),
	}
}

// PlaceBet runs the full settlement for an already-identified user.
// Malformed amounts and unknown games return BetRejectedInput with no
// state change; an insufficient balance returns BetInsufficientFunds
// with the debit discarded. Only an accepted bet persists the debit.
func (that *BettingCoordinator) PlaceBet(ctx context.Context, userID int64, gameName, amount string, args json.RawMessage) (*BetResult, error) {
	log := that.logger.With("method", "PlaceBet", "userID", userID, "game", gameName)

	parsedAmount, ok := parseAmount(amount)
	if !ok {
		log.Debug("bet dropped: malformed amount", "amount", amount)
		return &BetResult{Status: BetRejectedInput}, nil
	}

	g, ok := that.games.Get(gameName)
	if !ok {
		log.Debug("bet dropped: unknown game")
		return &BetResult{Status: BetRejectedInput}, nil
	}

	lock := that.identityLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Fresh read inside the lock; a cached balance could already be
	// stale by the time we get here.
	balance, err := that.accounts.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	debited := balance - parsedAmount
	if debited < 0 {
		return &BetResult{Status: BetInsufficientFunds, Game: gameName}, nil
	}

	if !g.PlaceBet(userID, parsedAmount, args) {
		// Debit never persisted, so the balance stands as it was.
		return &BetResult{
			Status:  BetRejectedByGame,
			Game:    gameName,
			Players: g.Players(),
		}, nil
	}

	if err = that.accounts.SetBalance(ctx, userID, debited); err != nil {
		return nil, fmt.Errorf("failed to persist balance: %w", err)
	}

	log.Info("bet accepted", "amount", parsedAmount, "balance", debited)

	return &BetResult{
		Status:  BetAccepted,
		Game:    gameName,
		Players: g.Players(),
	}, nil
}

func (that *BettingCoordinator) identityLock(userID int64) *sync.Mutex {
	that.locksMutex.Lock()
	defer that.locksMutex.Unlock()

	lock, ok := that.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[userID] = lock
	}

	return lock
}

// parseAmount accepts only a plain non-negative integer literal that is
// strictly greater than zero. Signs, spaces, and fractions all fail.
func parseAmount(amount string) (int64, bool) {
	if amount == "" {
		return 0, false
	}

	for _, r := range amount {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	parsed, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return 0, false
	}

	if parsed <= 0 {
		return 0, false
	}

	return parsed, true
}
