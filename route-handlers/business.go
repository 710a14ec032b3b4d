package routehandlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coreybb/weconnect/datastore"
	"github.com/coreybb/weconnect/models"
	"github.com/coreybb/weconnect/webutil"
)

const maxBusinessPageSize = 100

// BusinessHandler holds dependencies for business route handlers.
type BusinessHandler struct {
	Repo datastore.Businesses
}

func NewBusinessHandler(repo datastore.Businesses) *BusinessHandler {
	return &BusinessHandler{Repo: repo}
}

type createBusinessRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Country     string `json:"country"`
	City        string `json:"city"`
}

// updateBusinessRequest fields are optional; absent fields keep their value.
type updateBusinessRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Country     *string `json:"country"`
	City        *string `json:"city"`
}

func (h *BusinessHandler) HandleCreateBusiness(w http.ResponseWriter, r *http.Request) error {
	userID, ok := webutil.UserIDFromContext(r.Context())
	if !ok {
		return webutil.ErrUnauthorized("Token required")
	}

	var req createBusinessRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		return err
	}

	newBusiness := models.Business{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Country:     strings.TrimSpace(req.Country),
		City:        strings.TrimSpace(req.City),
	}
	if newBusiness.Name == "" || newBusiness.Category == "" || newBusiness.Country == "" || newBusiness.City == "" {
		return webutil.ErrBadRequest("Missing required fields (name, category, country, city)")
	}

	if err := h.Repo.SaveBusiness(r.Context(), &newBusiness); err != nil {
		return webutil.ErrInternalServerWrap("Failed to create business", err)
	}

	log.Printf("INFO: Business created: ID=%s, Name=%s, Owner=%s", newBusiness.ID, newBusiness.Name, userID)
	webutil.RespondWithJSON(w, http.StatusCreated, newBusiness)
	return nil
}

func (h *BusinessHandler) HandleGetBusinesses(w http.ResponseWriter, r *http.Request) error {
	filter, err := parseBusinessFilter(r.URL.Query())
	if err != nil {
		return err
	}

	businesses, err := h.Repo.GetBusinesses(r.Context(), filter)
	if err != nil {
		return webutil.ErrInternalServerWrap("Failed to retrieve businesses", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, businesses)
	return nil
}

func parseBusinessFilter(q url.Values) (datastore.BusinessFilter, error) {
	filter := datastore.BusinessFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Country:  strings.TrimSpace(q.Get("country")),
		City:     strings.TrimSpace(q.Get("city")),
	}

	var err error
	if filter.Limit, err = parseNonNegative(q, "limit"); err != nil {
		return filter, err
	}
	if filter.Limit > maxBusinessPageSize {
		filter.Limit = maxBusinessPageSize
	}
	if filter.Offset, err = parseNonNegative(q, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseNonNegative(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, webutil.ErrBadRequest(fmt.Sprintf("Invalid %s value", key))
	}
	return n, nil
}

func (h *BusinessHandler) HandleGetBusiness(w http.ResponseWriter, r *http.Request) error {
	businessID := chi.URLParam(r, "id")
	business, err := h.Repo.GetBusinessByID(r.Context(), businessID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrNotFound("Business not found")
		}
		return webutil.ErrInternalServerWrap("Failed to retrieve business", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, business)
	return nil
}

func (h *BusinessHandler) HandleUpdateBusiness(w http.ResponseWriter, r *http.Request) error {
	business, err := h.ownedBusiness(r)
	if err != nil {
		return err
	}

	var req updateBusinessRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		return err
	}
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{req.Name, &business.Name},
		{req.Description, &business.Description},
		{req.Category, &business.Category},
		{req.Country, &business.Country},
		{req.City, &business.City},
	} {
		if f.src != nil {
			*f.dst = strings.TrimSpace(*f.src)
		}
	}
	if business.Name == "" || business.Category == "" || business.Country == "" || business.City == "" {
		return webutil.ErrBadRequest("Name, category, country and city cannot be empty")
	}

	if err := h.Repo.UpdateBusiness(r.Context(), business); err != nil {
		return webutil.ErrInternalServerWrap("Failed to update business", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, business)
	return nil
}

func (h *BusinessHandler) HandleDeleteBusiness(w http.ResponseWriter, r *http.Request) error {
	business, err := h.ownedBusiness(r)
	if err != nil {
		return err
	}

	if err := h.Repo.DeleteBusiness(r.Context(), business.ID); err != nil {
		return webutil.ErrInternalServerWrap("Failed to delete business", err)
	}

	log.Printf("INFO: Business deleted: ID=%s", business.ID)
	webutil.RespondWithMessage(w, http.StatusOK, "Business deleted")
	return nil
}

// ownedBusiness loads the business named in the path and checks that the
// authenticated user owns it.
func (h *BusinessHandler) ownedBusiness(r *http.Request) (*models.Business, error) {
	userID, ok := webutil.UserIDFromContext(r.Context())
	if !ok {
		return nil, webutil.ErrUnauthorized("Token required")
	}

	businessID := chi.URLParam(r, "id")
	business, err := h.Repo.GetBusinessByID(r.Context(), businessID)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return nil, webutil.ErrNotFound("Business not found")
		}
		return nil, webutil.ErrInternalServerWrap("Failed to retrieve business", err)
	}
	if business.UserID != userID {
		return nil, webutil.ErrForbidden("Only the owner can modify this business")
	}
	return business, nil
}
