package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kyccodes/internal/models"
)

type UserRepository interface {
	GetActiveByUID(ctx context.Context, uid string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) GetActiveByUID(ctx context.Context, uid string) (*models.User, error) {
	const q = `
		SELECT id, uid, email, state, created_at
		FROM users
		WHERE uid = $1 AND state = $2
	`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, strings.TrimSpace(uid), models.UserStateActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active user by uid: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `
		SELECT id, uid, email, state, created_at
		FROM users
		WHERE id = $1
	`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u     models.User
		email sql.NullString
	)
	if err := row.Scan(&u.ID, &u.UID, &email, &u.State, &u.CreatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		u.Email = email.String
	}
	return &u, nil
}
