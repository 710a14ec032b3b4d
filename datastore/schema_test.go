package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreybb/weconnect/models"
)

// Deleting a business leaves its reviews in place in both backends.
func TestSchema_ReviewsNotTiedToBusinessRows(t *testing.T) {
	assert.NotContains(t, schemaSQL, "REFERENCES businesses")
	assert.NotContains(t, schemaSQL, "ON DELETE CASCADE")
}

func TestStore_DeleteBusinessKeepsReviews(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.SaveBusiness(ctx, &models.Business{ID: "b1", Name: "KFC"}))
	require.NoError(t, s.SaveReview(ctx, &models.Review{ID: "r1", BusinessID: "b1", Body: "Great"}))

	require.NoError(t, s.DeleteBusiness(ctx, "b1"))

	reviews, err := s.GetReviewsByBusinessID(ctx, "b1")
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}
