package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gamblorhq/gamblor-backend/internal/apperror"
	"github.com/gamblorhq/gamblor-backend/internal/entity"
)

const (
	sessionCookieName = "sessionid"
	sessionTTL        = 24 * time.Hour

	// startingBalance is the grubstake a brand-new account gets.
	startingBalance = 100
)

type accountStore interface {
	Create(ctx context.Context, name string, balance int64) (*entity.Account, error)
	GetByName(ctx context.Context, name string) (*entity.Account, error)
}

type sessionStore interface {
	Save(ctx context.Context, token string, userID int64, ttl time.Duration) error
}

type loginHandler struct {
	logger   *slog.Logger
	accounts accountStore
	sessions sessionStore
}

func newLoginHandler(logger *slog.Logger, accounts accountStore, sessions sessionStore) *loginHandler {
	return &loginHandler{
		logger:   logger,
		accounts: accounts,
		sessions: sessions,
	}
}

type loginRequest struct {
	Name string `json:"name"`
}

// Login resolves a name to an account (creating one on first sight),
// mints a session token, and sets the cookie the websocket handshake
// later reads.
func (that *loginHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "Login")

	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	account, err := that.accounts.GetByName(ctx, req.Name)
	if errors.Is(err, apperror.ErrAccountNotFound) {
		account, err = that.accounts.Create(ctx, req.Name, startingBalance)
	}
	if err != nil {
		log.Error("failed to resolve account", "name", req.Name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	token := uuid.NewString()
	if err = that.sessions.Save(ctx, token, account.ID, sessionTTL); err != nil {
		log.Error("failed to save session", "accountID", account.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
	})

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(account); err != nil {
		log.Error("failed to write response", "error", err)
	}
}
