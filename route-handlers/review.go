package routehandlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coreybb/weconnect/datastore"
	"github.com/coreybb/weconnect/models"
	"github.com/coreybb/weconnect/webutil"
)

type ReviewHandler struct {
	Repo       datastore.Reviews
	Businesses datastore.Businesses
}

func NewReviewHandler(repo datastore.Reviews, businesses datastore.Businesses) *ReviewHandler {
	return &ReviewHandler{Repo: repo, Businesses: businesses}
}

type createReviewRequest struct {
	Review string `json:"review"`
}

func (h *ReviewHandler) HandleGetReviews(w http.ResponseWriter, r *http.Request) error {
	business, err := h.business(r)
	if err != nil {
		return err
	}

	reviews, err := h.Repo.GetReviewsByBusinessID(r.Context(), business.ID)
	if err != nil {
		return webutil.ErrInternalServerWrap("Failed to retrieve reviews", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, reviews)
	return nil
}

func (h *ReviewHandler) HandleCreateReview(w http.ResponseWriter, r *http.Request) error {
	userID, ok := webutil.UserIDFromContext(r.Context())
	if !ok {
		return webutil.ErrUnauthorized("Token required")
	}

	business, err := h.business(r)
	if err != nil {
		return err
	}
	if business.UserID == userID {
		return webutil.ErrForbidden("You cannot review your own business")
	}

	var req createReviewRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		return err
	}
	body := strings.TrimSpace(req.Review)
	if body == "" {
		return webutil.ErrBadRequest("Review is required")
	}

	review := models.Review{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		BusinessID: business.ID,
		UserID:     userID,
		Body:       body,
	}
	if err := h.Repo.SaveReview(r.Context(), &review); err != nil {
		return webutil.ErrInternalServerWrap("Failed to save review", err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, review)
	return nil
}

func (h *ReviewHandler) business(r *http.Request) (*models.Business, error) {
	businessID := chi.URLParam(r, "id")
	business, err := h.Businesses.GetBusinessByID(r.Context(), businessID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return nil, webutil.ErrNotFound("Business not found")
		}
		return nil, webutil.ErrInternalServerWrap("Failed to retrieve business", err)
	}
	return business, nil
}
