package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gamblorhq/gamblor-backend/internal/room"
)

// sessionCookieName is the credential cookie the REST login endpoint
// sets and the handshake reads.
const sessionCookieName = "sessionid"

type gameRoom interface {
	Connect(ctx context.Context, token string, conn room.Conn) *room.Session
	Chat(ctx context.Context, session *room.Session, message string)
	Move(ctx context.Context, session *room.Session, x, y *int)
	Bet(ctx context.Context, session *room.Session, gameName, amount string, args json.RawMessage)
	Disconnect(ctx context.Context, session *room.Session)
}

type Server struct {
	logger *slog.Logger
	room   gameRoom
}

func New(logger *slog.Logger, gameRoom gameRoom) *Server {
	return &Server{
		logger: logger,
		room:   gameRoom,
	}
}

// Start - starts the WebSocket server. All game traffic goes through
// the single /ws endpoint; every other path is a plain 404.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket and runs
// the session until the peer goes away.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	token := sessionToken(req)

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking", "error", http.StatusText(http.StatusInternalServerError))
		return
	}

	conn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer conn.Close()

	log.Info("WebSocket connection established")

	wsConn := newConn(bufrw)

	session := that.room.Connect(ctx, token, wsConn)
	defer that.room.Disconnect(ctx, session)

	if err = that.handleMessages(ctx, wsConn, session); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until the
// connection closes. Events from one connection are handled in order.
func (that *Server) handleMessages(ctx context.Context, conn *Conn, session *room.Session) error {
	log := that.logger.With("method", "handleMessages", "sessionID", session.ID())

	for {
		reqBody, err := conn.readRequest()
		if errors.Is(err, ErrConnectionClosed) {
			log.Info("connection closed")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		that.dispatch(ctx, session, &message, log)
	}
}

func (that *Server) dispatch(ctx context.Context, session *room.Session, message *Message, log *slog.Logger) {
	switch message.Action {
	case "chat":
		var payload chatPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			log.Error("failed to unmarshal chat payload", "error", err)
			return
		}
		that.room.Chat(ctx, session, payload.Message)

	case "move":
		var payload movePayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			log.Error("failed to unmarshal move payload", "error", err)
			return
		}
		that.room.Move(ctx, session, payload.X, payload.Y)

	case "bet":
		var payload betPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			log.Error("failed to unmarshal bet payload", "error", err)
			return
		}
		that.room.Bet(ctx, session, payload.Game, amountLiteral(payload.Amount), payload.Args)

	default:
		log.Error("unknown action", "action", message.Action)
	}
}

// amountLiteral normalizes a raw JSON amount to its literal text:
// quoted strings are unwrapped, bare numbers pass through as written.
func amountLiteral(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}

	return string(raw)
}

func sessionToken(req *http.Request) string {
	cookie, err := req.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}

	return cookie.Value
}
