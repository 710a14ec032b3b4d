package datastore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/coreybb/weconnect/models"
)

var (
	// ErrNotFound is returned (wrapped) by lookups that match no record.
	ErrNotFound = errors.New("record not found")

	// ErrTokenNotFound is returned by RemoveToken when the token is not stored.
	ErrTokenNotFound = errors.New("auth token not found")
)

// Users is the user persistence contract shared by the in-memory Store and
// the Postgres UserRepository.
type Users interface {
	SaveUser(ctx context.Context, user *models.User) error
	// UpdatePassword is a no-op when no user has the given ID.
	UpdatePassword(ctx context.Context, userID string, newPassword string) error
	ActivateUser(ctx context.Context, userID string) error
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByActivationToken(ctx context.Context, activationToken string) (*models.User, error)
}

// Tokens stores the access tokens of logged-in users.
type Tokens interface {
	SaveToken(ctx context.Context, token *models.AuthToken) error
	// RemoveToken removes one stored token equal to accessToken, or returns
	// ErrTokenNotFound.
	RemoveToken(ctx context.Context, accessToken string) error
	TokenExists(ctx context.Context, accessToken string) (bool, error)
}

type Businesses interface {
	SaveBusiness(ctx context.Context, business *models.Business) error
	UpdateBusiness(ctx context.Context, business *models.Business) error
	// DeleteBusiness is a no-op when no business has the given ID.
	DeleteBusiness(ctx context.Context, businessID string) error
	GetBusinessByID(ctx context.Context, businessID string) (*models.Business, error)
	GetBusinesses(ctx context.Context, filter BusinessFilter) ([]models.Business, error)
}

type Reviews interface {
	SaveReview(ctx context.Context, review *models.Review) error
	GetReviewsByBusinessID(ctx context.Context, businessID string) ([]models.Review, error)
}

// BusinessFilter narrows a business listing. Empty fields match everything.
// Category, Country and City compare case-insensitively; Query is a
// case-insensitive substring match on name or description.
type BusinessFilter struct {
	Query    string
	Category string
	Country  string
	City     string
	Limit    int // 0 means no limit
	Offset   int
}

// Matches reports whether b satisfies every non-empty field of the filter.
func (f BusinessFilter) Matches(b models.Business) bool {
	if f.Category != "" && !strings.EqualFold(b.Category, f.Category) {
		return false
	}
	if f.Country != "" && !strings.EqualFold(b.Country, f.Country) {
		return false
	}
	if f.City != "" && !strings.EqualFold(b.City, f.City) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(b.Name), q) && !strings.Contains(strings.ToLower(b.Description), q) {
			return false
		}
	}
	return true
}

// window returns the [start, end) bounds of the requested page within n items.
func (f BusinessFilter) window(n int) (int, int) {
	start := min(max(f.Offset, 0), n)
	end := n
	if f.Limit > 0 {
		end = min(start+f.Limit, n)
	}
	return start, end
}

func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUUID reports whether id can match a UUID primary key. The Postgres
// repositories treat anything else as matching no row.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
