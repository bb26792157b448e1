package game

import "encoding/json"

// Game is the capability contract every table in the room satisfies.
// A game owns its player roster and decides for itself whether a bet
// is accepted; roster mutation must be internally serialized so two
// concurrent PlaceBet calls can't interleave.
type Game interface {
	Name() string

	// PlaceBet records a validated bet for userID and reports whether
	// the game accepted it. The coordinator has already debited the
	// balance; a false return tells it to roll the debit back.
	PlaceBet(userID int64, amount int64, args json.RawMessage) bool

	// Players returns the identities holding an active bet, in
	// ascending order.
	Players() []int64
}
