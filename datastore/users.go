package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coreybb/weconnect/models"
)

const userColumns = `id, created_at, username, email, password, activation_token`

// UserRepository is the Postgres implementation of Users.
type UserRepository struct {
	db *sql.DB // The actual database connection pool
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) SaveUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, created_at, username, email, password, activation_token)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.CreatedAt, user.Username, user.Email, user.Password, NewNullString(user.ActivationToken))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, newPassword string) error {
	if !isUUID(userID) {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `UPDATE users SET password = $1 WHERE id = $2`, newPassword, userID)
	if err != nil {
		return fmt.Errorf("failed to update password for user %s: %w", userID, err)
	}
	return nil
}

func (r *UserRepository) ActivateUser(ctx context.Context, userID string) error {
	if !isUUID(userID) {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `UPDATE users SET activation_token = NULL WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to activate user %s: %w", userID, err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	if !isUUID(userID) {
		return nil, fmt.Errorf("user with id %q: %w", userID, ErrNotFound)
	}
	return r.getUserWhere(ctx, "id", userID)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUserWhere(ctx, "email", email)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUserWhere(ctx, "username", username)
}

func (r *UserRepository) GetUserByActivationToken(ctx context.Context, activationToken string) (*models.User, error) {
	if activationToken == "" {
		return nil, fmt.Errorf("user with empty activation token: %w", ErrNotFound)
	}
	return r.getUserWhere(ctx, "activation_token", activationToken)
}

// column is always one of the literals above, never user input.
func (r *UserRepository) getUserWhere(ctx context.Context, column string, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with %s %q: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return user, nil
}

func (r *UserRepository) GetUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var activationToken sql.NullString
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.Username, &user.Email, &user.Password, &activationToken); err != nil {
		return nil, err
	}
	user.ActivationToken = activationToken.String
	return &user, nil
}
