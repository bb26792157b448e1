package room

import "github.com/gamblorhq/gamblor-backend/internal/entity"

// Outbound event actions. Inbound actions are owned by the transport;
// these are the names every connected client listens for.
const (
	ActionUsers     = "users"
	ActionJoin      = "join"
	ActionLeave     = "leave"
	ActionChat      = "chat"
	ActionMove      = "move"
	ActionNotice    = "notice"
	ActionGameUsers = "game_users"
)

type ChatEvent struct {
	User    *entity.User `json:"user"`
	Message string       `json:"message"`
}

type GameUsersEvent struct {
	Game    string  `json:"game"`
	Players []int64 `json:"players"`
}
