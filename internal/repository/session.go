package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamblorhq/gamblor-backend/internal/apperror"
)

type SessionRepository interface {
	Save(ctx context.Context, token string, userID int64, ttl time.Duration) error
	GetUserID(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func (that *dbSession) Save(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	sessionKey := "session:" + token

	err := that.client.Set(ctx, sessionKey, strconv.FormatInt(userID, 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSession) GetUserID(ctx context.Context, token string) (int64, error) {
	sessionKey := "session:" + token

	response, err := that.client.Get(ctx, sessionKey).Result()

	if errors.Is(err, redis.Nil) {
		return 0, apperror.ErrSessionNotFound
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get session: %w", err)
	}

	userID, err := strconv.ParseInt(response, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse session user id: %w", err)
	}

	return userID, nil
}

func (that *dbSession) Delete(ctx context.Context, token string) error {
	sessionKey := "session:" + token

	err := that.client.Del(ctx, sessionKey).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
