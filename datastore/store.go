package datastore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/coreybb/weconnect/models"
)

// Store keeps users, businesses, reviews and auth tokens in ordered in-memory
// slices. Every operation is a linear scan. Records are copied in and out, so
// callers never alias the stored values.
//
// Store satisfies Users, Tokens, Businesses and Reviews.
type Store struct {
	mu         sync.RWMutex
	users      []models.User
	businesses []models.Business
	reviews    []models.Review
	authTokens []models.AuthToken
}

func NewStore() *Store {
	return &Store{}
}

// --- Users ---

// SaveUser appends the user. Uniqueness is the caller's concern.
func (s *Store) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, *user)
	return nil
}

// UpdatePassword sets the password of the first user with the given ID.
func (s *Store) UpdatePassword(_ context.Context, userID string, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].Password = newPassword
			break
		}
	}
	return nil
}

// ActivateUser clears the activation token of the first user with the given ID.
func (s *Store) ActivateUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].ActivationToken = ""
			break
		}
	}
	return nil
}

func (s *Store) GetUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, len(s.users))
	copy(users, s.users)
	return users, nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == userID }, "id", userID)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email }, "email", email)
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username }, "username", username)
}

func (s *Store) GetUserByActivationToken(_ context.Context, activationToken string) (*models.User, error) {
	if activationToken == "" {
		return nil, fmt.Errorf("user with empty activation token: %w", ErrNotFound)
	}
	return s.findUser(func(u models.User) bool { return u.ActivationToken == activationToken }, "activation token", activationToken)
}

func (s *Store) findUser(match func(models.User) bool, field, value string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.users, match)
	if i < 0 {
		return nil, fmt.Errorf("user with %s %q: %w", field, value, ErrNotFound)
	}
	user := s.users[i]
	return &user, nil
}

// --- Auth tokens ---

func (s *Store) SaveToken(_ context.Context, token *models.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authTokens = append(s.authTokens, *token)
	return nil
}

// RemoveToken removes the first stored token whose access token equals
// accessToken.
func (s *Store) RemoveToken(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.authTokens, func(t models.AuthToken) bool { return t.AccessToken == accessToken })
	if i < 0 {
		return ErrTokenNotFound
	}
	s.authTokens = slices.Delete(s.authTokens, i, i+1)
	return nil
}

func (s *Store) TokenExists(_ context.Context, accessToken string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.authTokens, func(t models.AuthToken) bool { return t.AccessToken == accessToken }), nil
}

// --- Businesses ---

func (s *Store) SaveBusiness(_ context.Context, business *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses = append(s.businesses, *business)
	return nil
}

// UpdateBusiness replaces the editable fields of the first business with the
// same ID. Owner and creation time are kept.
func (s *Store) UpdateBusiness(_ context.Context, business *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.businesses {
		b := &s.businesses[i]
		if b.ID == business.ID {
			b.Name = business.Name
			b.Description = business.Description
			b.Category = business.Category
			b.Country = business.Country
			b.City = business.City
			break
		}
	}
	return nil
}

// DeleteBusiness drops every business with the given ID.
func (s *Store) DeleteBusiness(_ context.Context, businessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses = slices.DeleteFunc(s.businesses, func(b models.Business) bool { return b.ID == businessID })
	return nil
}

func (s *Store) GetBusinessByID(_ context.Context, businessID string) (*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.businesses, func(b models.Business) bool { return b.ID == businessID })
	if i < 0 {
		return nil, fmt.Errorf("business %q: %w", businessID, ErrNotFound)
	}
	business := s.businesses[i]
	return &business, nil
}

// GetBusinesses returns the businesses matching filter in insertion order.
func (s *Store) GetBusinesses(_ context.Context, filter BusinessFilter) ([]models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []models.Business{}
	for _, b := range s.businesses {
		if filter.Matches(b) {
			matched = append(matched, b)
		}
	}
	start, end := filter.window(len(matched))
	return matched[start:end], nil
}

// --- Reviews ---

func (s *Store) SaveReview(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, *review)
	return nil
}

func (s *Store) GetReviewsByBusinessID(_ context.Context, businessID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reviews := []models.Review{}
	for _, r := range s.reviews {
		if r.BusinessID == businessID {
			reviews = append(reviews, r)
		}
	}
	return reviews, nil
}
