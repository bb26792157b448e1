package entity

// User is the presence record of one connected, identified player.
// The owning session mutates X/Y in place on move events.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Account is the durable counterpart of a user: login name plus the
// balance the betting path debits against.
type Account struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}
