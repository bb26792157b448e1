package service

import (
	"context"
	"fmt"

	"github.com/gamblorhq/gamblor-backend/internal/apperror"
	"github.com/gamblorhq/gamblor-backend/internal/entity"
)

type AuthService interface {
	// ResolveToken maps an inbound session token to a user identity.
	// Every failure mode (empty token, expired session, missing
	// account) collapses into ErrUnauthenticated: callers degrade the
	// connection to an anonymous session instead of surfacing an error.
	ResolveToken(ctx context.Context, token string) (*entity.User, error)
}

type sessionRepo interface {
	GetUserID(ctx context.Context, token string) (int64, error)
}

type accountRepo interface {
	GetByID(ctx context.Context, id int64) (*entity.Account, error)
}

type authService struct {
	sessions sessionRepo
	accounts accountRepo
}

func NewAuthService(sessions sessionRepo, accounts accountRepo) AuthService {
	return &authService{
		sessions: sessions,
		accounts: accounts,
	}
}

func (that *authService) ResolveToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, apperror.ErrUnauthenticated
	}

	userID, err := that.sessions.GetUserID(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrUnauthenticated, err)
	}

	account, err := that.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrUnauthenticated, err)
	}

	return &entity.User{
		ID:   account.ID,
		Name: account.Name,
	}, nil
}
