package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/coreybb/weconnect/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// BusinessRepository handles database operations for businesses.
type BusinessRepository struct {
	db *sql.DB
}

func NewBusinessRepository(db *sql.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

func (r *BusinessRepository) SaveBusiness(ctx context.Context, business *models.Business) error {
	if _, err := uuid.Parse(business.ID); err != nil {
		return fmt.Errorf("invalid business ID format: %w", err)
	}
	if business.Name == "" {
		return fmt.Errorf("business name cannot be empty")
	}

	query := `
		INSERT INTO businesses (id, created_at, user_id, name, description, category, country, city)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		business.ID, business.CreatedAt, business.UserID, business.Name,
		business.Description, business.Category, business.Country, business.City)
	if err != nil {
		return fmt.Errorf("failed to insert business: %w", err)
	}
	return nil
}

func (r *BusinessRepository) UpdateBusiness(ctx context.Context, business *models.Business) error {
	if !isUUID(business.ID) {
		return nil
	}
	query := `
		UPDATE businesses
		SET name = $1,
		    description = $2,
		    category = $3,
		    country = $4,
		    city = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		business.Name, business.Description, business.Category, business.Country, business.City, business.ID)
	if err != nil {
		return fmt.Errorf("failed to update business with ID %s: %w", business.ID, err)
	}
	return nil
}

func (r *BusinessRepository) DeleteBusiness(ctx context.Context, businessID string) error {
	if !isUUID(businessID) {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = $1`, businessID)
	if err != nil {
		return fmt.Errorf("failed to delete business with ID %s: %w", businessID, err)
	}
	return nil
}

func (r *BusinessRepository) GetBusinessByID(ctx context.Context, businessID string) (*models.Business, error) {
	if !isUUID(businessID) {
		return nil, fmt.Errorf("business %q: %w", businessID, ErrNotFound)
	}
	query := `
		SELECT id, created_at, user_id, name, description, category, country, city
		FROM businesses WHERE id = $1
	`
	var b models.Business
	row := r.db.QueryRowContext(ctx, query, businessID)
	err := row.Scan(&b.ID, &b.CreatedAt, &b.UserID, &b.Name, &b.Description, &b.Category, &b.Country, &b.City)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("business %q: %w", businessID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get business by ID: %w", err)
	}
	return &b, nil
}

func (r *BusinessRepository) GetBusinesses(ctx context.Context, filter BusinessFilter) ([]models.Business, error) {
	query, args, err := businessListQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build business query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query businesses: %w", err)
	}
	defer rows.Close()

	businesses := []models.Business{}
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.UserID, &b.Name, &b.Description, &b.Category, &b.Country, &b.City); err != nil {
			return nil, fmt.Errorf("failed to scan business row: %w", err)
		}
		businesses = append(businesses, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating business rows: %w", err)
	}
	return businesses, nil
}

func businessListQuery(filter BusinessFilter) sq.SelectBuilder {
	q := psql.Select("id", "created_at", "user_id", "name", "description", "category", "country", "city").
		From("businesses").
		OrderBy("created_at ASC")

	if filter.Category != "" {
		q = q.Where(sq.Eq{"lower(category)": strings.ToLower(filter.Category)})
	}
	if filter.Country != "" {
		q = q.Where(sq.Eq{"lower(country)": strings.ToLower(filter.Country)})
	}
	if filter.City != "" {
		q = q.Where(sq.Eq{"lower(city)": strings.ToLower(filter.City)})
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where(sq.Or{
			sq.Expr("name ILIKE ?", pattern),
			sq.Expr("description ILIKE ?", pattern),
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}
