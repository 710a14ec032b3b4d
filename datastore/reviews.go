package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/weconnect/models"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) SaveReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, created_at, business_id, user_id, body)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, review.ID, review.CreatedAt, review.BusinessID, review.UserID, review.Body)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetReviewsByBusinessID(ctx context.Context, businessID string) ([]models.Review, error) {
	if !isUUID(businessID) {
		return []models.Review{}, nil
	}
	query := `
		SELECT id, created_at, business_id, user_id, body
		FROM reviews
		WHERE business_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews for business %s: %w", businessID, err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.CreatedAt, &rv.BusinessID, &rv.UserID, &rv.Body); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}
	return reviews, nil
}
