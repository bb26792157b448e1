package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gamblorhq/gamblor-backend/internal/apperror"
	"github.com/gamblorhq/gamblor-backend/internal/entity"
)

type AccountRepository interface {
	Create(ctx context.Context, name string, balance int64) (*entity.Account, error)
	GetByID(ctx context.Context, id int64) (*entity.Account, error)
	GetByName(ctx context.Context, name string) (*entity.Account, error)
	GetBalance(ctx context.Context, id int64) (int64, error)
	SetBalance(ctx context.Context, id int64, balance int64) error
}

type accountRepository struct {
	conn *sql.DB
}

func NewAccountRepository(conn *sql.DB) AccountRepository {
	return &accountRepository{
		conn: conn,
	}
}

func (that *accountRepository) Create(ctx context.Context, name string, balance int64) (*entity.Account, error) {
	query := `INSERT INTO accounts (name, balance) VALUES (?, ?)`

	result, err := that.conn.ExecContext(ctx, query, name, balance)
	if err != nil {
		return nil, fmt.Errorf("can't create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("can't read account id: %w", err)
	}

	return &entity.Account{ID: id, Name: name, Balance: balance}, nil
}

func (that *accountRepository) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	query := `SELECT id, name, balance FROM accounts WHERE id = ?`

	var account entity.Account

	err := that.conn.QueryRowContext(ctx, query, id).Scan(&account.ID, &account.Name, &account.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find account: %w", err)
	}

	return &account, nil
}

func (that *accountRepository) GetByName(ctx context.Context, name string) (*entity.Account, error) {
	query := `SELECT id, name, balance FROM accounts WHERE name = ?`

	var account entity.Account

	err := that.conn.QueryRowContext(ctx, query, name).Scan(&account.ID, &account.Name, &account.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find account: %w", err)
	}

	return &account, nil
}

func (that *accountRepository) GetBalance(ctx context.Context, id int64) (int64, error) {
	query := `SELECT balance FROM accounts WHERE id = ?`

	var balance int64

	err := that.conn.QueryRowContext(ctx, query, id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperror.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("can't read balance: %w", err)
	}

	return balance, nil
}

func (that *accountRepository) SetBalance(ctx context.Context, id int64, balance int64) error {
	query := `UPDATE accounts SET balance = ? WHERE id = ?`

	result, err := that.conn.ExecContext(ctx, query, balance, id)
	if err != nil {
		return fmt.Errorf("can't update balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read update result: %w", err)
	}

	if affected == 0 {
		return apperror.ErrAccountNotFound
	}

	return nil
}
