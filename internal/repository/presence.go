package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/gamblorhq/gamblor-backend/internal/apperror"
	"github.com/gamblorhq/gamblor-backend/internal/entity"
)

// usersKey is the redis hash holding every connected user's record,
// keyed by user id. It is shared across workers so a fresh connection
// can learn the full roster from any process.
const usersKey = "gamblor:users"

type PresenceRepository interface {
	Put(ctx context.Context, user *entity.User) error
	Get(ctx context.Context, id int64) (*entity.User, error)
	Remove(ctx context.Context, id int64) error
	Values(ctx context.Context) ([]*entity.User, error)
}

type dbPresence struct {
	client *redis.Client
}

func NewPresenceRepository(client *redis.Client) PresenceRepository {
	return &dbPresence{
		client: client,
	}
}

func (that *dbPresence) Put(ctx context.Context, user *entity.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	err = that.client.HSet(ctx, usersKey, strconv.FormatInt(user.ID, 10), userJSON).Err()
	if err != nil {
		return fmt.Errorf("failed to set user: %w", err)
	}

	return nil
}

func (that *dbPresence) Get(ctx context.Context, id int64) (*entity.User, error) {
	response, err := that.client.HGet(ctx, usersKey, strconv.FormatInt(id, 10)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	var existingUser entity.User
	if err = json.Unmarshal([]byte(response), &existingUser); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return &existingUser, nil
}

func (that *dbPresence) Remove(ctx context.Context, id int64) error {
	err := that.client.HDel(ctx, usersKey, strconv.FormatInt(id, 10)).Err()
	if err != nil {
		return fmt.Errorf("failed to remove user by ID: %w", err)
	}

	return nil
}

func (that *dbPresence) Values(ctx context.Context) ([]*entity.User, error) {
	response, err := that.client.HVals(ctx, usersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*entity.User, 0, len(response))
	for _, raw := range response {
		var user entity.User
		if err = json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user: %w", err)
		}
		users = append(users, &user)
	}

	return users, nil
}
