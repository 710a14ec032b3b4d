package datastore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreybb/weconnect/models"
)

const removeTokenSQL = `DELETE FROM auth_tokens WHERE ctid IN (SELECT ctid FROM auth_tokens WHERE access_token = $1 LIMIT 1)`

func newMockDB(t *testing.T) (*TokenRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewTokenRepository(db), mock
}

func TestTokenRepository_SaveToken(t *testing.T) {
	repo, mock := newMockDB(t)
	token := &models.AuthToken{
		UserID:      "0b0f8d5e-7c1a-4a53-9d53-1f0b3c2b8f11",
		AccessToken: "tok",
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO auth_tokens")).
		WithArgs(token.AccessToken, token.UserID, token.CreatedAt, token.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveToken(context.Background(), token))
}

func TestTokenRepository_RemoveToken(t *testing.T) {
	repo, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(removeTokenSQL)).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RemoveToken(context.Background(), "tok"))
}

func TestTokenRepository_RemoveTokenAbsent(t *testing.T) {
	repo, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(removeTokenSQL)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenRepository_RemoveTokenDBError(t *testing.T) {
	repo, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(removeTokenSQL)).
		WithArgs("tok").
		WillReturnError(errors.New("connection reset"))

	err := repo.RemoveToken(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenRepository_TokenExists(t *testing.T) {
	repo, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM auth_tokens WHERE access_token = $1)")).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.TokenExists(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TokenExists(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Rows are keyed by UUID, so other IDs match nothing and must not reach the
// database.
func TestRepositories_NonUUIDIDsMatchNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	users := NewUserRepository(db)
	businesses := NewBusinessRepository(db)
	reviews := NewReviewRepository(db)

	assert.NoError(t, users.UpdatePassword(ctx, "abc", "hash"))
	assert.NoError(t, users.ActivateUser(ctx, "abc"))
	assert.NoError(t, businesses.UpdateBusiness(ctx, &models.Business{ID: "abc", Name: "KFC"}))
	assert.NoError(t, businesses.DeleteBusiness(ctx, "abc"))

	_, err = users.GetUserByID(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = businesses.GetBusinessByID(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := reviews.GetReviewsByBusinessID(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBusinessRepository_DeleteBusiness(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := "6f1c2a9e-3b7d-4e58-a1c4-2d9e8f7b6a50"
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM businesses WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// No matching row is not an error.
	assert.NoError(t, NewBusinessRepository(db).DeleteBusiness(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
