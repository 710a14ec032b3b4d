package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/weconnect/models"
)

// TokenRepository keeps auth tokens in the auth_tokens table.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) SaveToken(ctx context.Context, token *models.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (access_token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, token.AccessToken, token.UserID, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert auth token: %w", err)
	}
	return nil
}

// RemoveToken deletes a single row, matching the in-memory Store which
// removes one occurrence.
func (r *TokenRepository) RemoveToken(ctx context.Context, accessToken string) error {
	query := `
		DELETE FROM auth_tokens
		WHERE ctid IN (SELECT ctid FROM auth_tokens WHERE access_token = $1 LIMIT 1)
	`
	result, err := r.db.ExecContext(ctx, query, accessToken)
	if err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for auth token delete: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) TokenExists(ctx context.Context, accessToken string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM auth_tokens WHERE access_token = $1)`
	if err := r.db.QueryRowContext(ctx, query, accessToken).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check auth token: %w", err)
	}
	return exists, nil
}
