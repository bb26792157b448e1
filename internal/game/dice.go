package game

import (
	"encoding/json"
	"sort"
	"sync"
)

const diceSides = 6

// DiceBet is the per-player bet state for one dice round.
type DiceBet struct {
	Amount int64 `json:"amount"`
	Target int   `json:"target"`
}

type diceArgs struct {
	Target int `json:"target"`
}

// Dice is a dice table: each player calls a single die face for the
// current round. One active bet per player; re-betting before the round
// resolves is rejected.
type Dice struct {
	mutex   sync.Mutex
	players map[int64]*DiceBet
}

func NewDice() *Dice {
	return &Dice{
		players: make(map[int64]*DiceBet),
	}
}

func (that *Dice) Name() string {
	return "dice"
}

func (that *Dice) PlaceBet(userID int64, amount int64, args json.RawMessage) bool {
	var betArgs diceArgs
	if err := json.Unmarshal(args, &betArgs); err != nil {
		return false
	}

	if betArgs.Target < 1 || betArgs.Target > diceSides {
		return false
	}

	that.mutex.Lock()
	defer that.mutex.Unlock()

	if _, ok := that.players[userID]; ok {
		return false
	}

	that.players[userID] = &DiceBet{
		Amount: amount,
		Target: betArgs.Target,
	}

	return true
}

func (that *Dice) Players() []int64 {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	players := make([]int64, 0, len(that.players))
	for id := range that.players {
		players = append(players, id)
	}

	sort.Slice(players, func(i, j int) bool { return players[i] < players[j] })

	return players
}

// ResolveRound clears the roster for the next round and returns the
// identities whose target matched the rolled face.
func (that *Dice) ResolveRound(rolled int) []int64 {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	var winners []int64
	for id, bet := range that.players {
		if bet.Target == rolled {
			winners = append(winners, id)
		}
	}

	that.players = make(map[int64]*DiceBet)

	sort.Slice(winners, func(i, j int) bool { return winners[i] < winners[j] })

	return winners
}
