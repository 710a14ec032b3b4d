package routehandlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coreybb/weconnect/datastore"
	"github.com/coreybb/weconnect/webutil"
)

type UserHandler struct {
	Repo datastore.Users
}

func NewUserHandler(repo datastore.Users) *UserHandler {
	return &UserHandler{Repo: repo}
}

func (h *UserHandler) HandleGetUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.Repo.GetUsers(r.Context())
	if err != nil {
		return fmt.Errorf("failed to retrieve users: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, users)
	return nil
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")

	user, err := h.Repo.GetUserByID(r.Context(), userID)
	if err != nil {
		// ErrNotFound becomes a 404 in MakeHandler.
		return fmt.Errorf("failed to retrieve user %s: %w", userID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}
