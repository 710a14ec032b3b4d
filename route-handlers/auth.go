package routehandlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coreybb/weconnect/datastore"
	"github.com/coreybb/weconnect/delivery"
	"github.com/coreybb/weconnect/models"
	"github.com/coreybb/weconnect/webutil"
)

const (
	minPasswordLength     = 6
	activationTokenLength = 20
)

// TokenIssuer hands out access tokens at login.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// AuthHandler serves registration, activation, login, logout and password reset.
type AuthHandler struct {
	Users     datastore.Users
	Tokens    datastore.Tokens
	Issuer    TokenIssuer
	Mailer    delivery.Mailer
	PublicURL string // Base URL used in activation links
}

func NewAuthHandler(users datastore.Users, tokens datastore.Tokens, issuer TokenIssuer, mailer delivery.Mailer, publicURL string) *AuthHandler {
	return &AuthHandler{
		Users:     users,
		Tokens:    tokens,
		Issuer:    issuer,
		Mailer:    mailer,
		PublicURL: publicURL,
	}
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Username string `json:"username"` // Username or email address
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type resetPasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return webutil.ErrBadRequest(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if password != confirm {
		return webutil.ErrBadRequest("Passwords do not match")
	}
	return nil
}

// HandleRegister creates an inactive account and mails its activation link.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		return err
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return webutil.ErrBadRequest("Missing required fields (username, email, password, confirm_password)")
	}
	// Logins containing "@" are looked up by email.
	if strings.Contains(username, "@") {
		return webutil.ErrBadRequest("Username cannot contain '@'")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return webutil.ErrBadRequest("Invalid email address")
	}
	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		return err
	}

	if taken, err := exists(h.Users.GetUserByUsername(r.Context(), username)); err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	} else if taken {
		return webutil.ErrConflict("Username already taken")
	}
	if taken, err := exists(h.Users.GetUserByEmail(r.Context(), email)); err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return webutil.ErrConflict("Email already registered")
	}

	hash, err := webutil.HashPassword(req.Password)
	if err != nil {
		return err
	}
	activationToken, err := webutil.GenerateRandomToken(activationTokenLength)
	if err != nil {
		return fmt.Errorf("failed to generate activation token: %w", err)
	}

	newUser := models.User{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		Username:        username,
		Email:           email,
		Password:        hash,
		ActivationToken: activationToken,
	}
	if err := h.Users.SaveUser(r.Context(), &newUser); err != nil {
		return webutil.ErrInternalServerWrap("Failed to create user", err)
	}

	msg := delivery.ActivationMessage(newUser.Email, newUser.Username, h.PublicURL, activationToken)
	if err := h.Mailer.Send(r.Context(), msg); err != nil {
		// Registration still succeeds.
		log.Printf("WARN: Failed to send activation email to %s: %v", newUser.Email, err)
	}

	log.Printf("INFO: User registered: ID=%s, Username=%s", newUser.ID, newUser.Username)
	webutil.RespondWithJSON(w, http.StatusCreated, newUser)
	return nil
}

func (h *AuthHandler) HandleActivate(w http.ResponseWriter, r *http.Request) error {
	token := chi.URLParam(r, "token")
	user, err := h.Users.GetUserByActivationToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrNotFound("Invalid or already used activation token")
		}
		return fmt.Errorf("failed to look up activation token: %w", err)
	}

	if err := h.Users.ActivateUser(r.Context(), user.ID); err != nil {
		return webutil.ErrInternalServerWrap("Failed to activate account", err)
	}

	log.Printf("INFO: User activated: ID=%s", user.ID)
	webutil.RespondWithMessage(w, http.StatusOK, "Account activated")
	return nil
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		return err
	}
	login := strings.TrimSpace(req.Username)
	if login == "" || req.Password == "" {
		return webutil.ErrBadRequest("Missing required fields (username, password)")
	}

	user, err := h.findByLogin(r, login)
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return webutil.ErrUnauthorized("Invalid username or password")
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !webutil.CheckPassword(user.Password, req.Password) {
		return webutil.ErrUnauthorized("Invalid username or password")
	}
	if !user.IsActivated() {
		return webutil.ErrForbidden("Account not activated, check your email")
	}

	accessToken, expiresAt, err := h.Issuer.Issue(user.ID)
	if err != nil {
		return webutil.ErrInternalServerWrap("Failed to issue token", err)
	}
	authToken := models.AuthToken{
		UserID:      user.ID,
		AccessToken: accessToken,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	if err := h.Tokens.SaveToken(r.Context(), &authToken); err != nil {
		return webutil.ErrInternalServerWrap("Failed to store token", err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, loginResponse{Token: accessToken, ExpiresAt: expiresAt})
	return nil
}

func (h *AuthHandler) findByLogin(r *http.Request, login string) (*models.User, error) {
	if strings.Contains(login, "@") {
		return h.Users.GetUserByEmail(r.Context(), strings.ToLower(login))
	}
	return h.Users.GetUserByUsername(r.Context(), login)
}

// HandleLogout revokes the access token presented with the request.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) error {
	token, ok := webutil.AccessTokenFromContext(r.Context())
	if !ok {
		return webutil.ErrUnauthorized("Token required")
	}
	if err := h.Tokens.RemoveToken(r.Context(), token); err != nil {
		if errors.Is(err, datastore.ErrTokenNotFound) {
			return webutil.ErrUnauthorizedWrap("Token already revoked", err)
		}
		return webutil.ErrInternalServerWrap("Failed to revoke token", err)
	}

	webutil.RespondWithMessage(w, http.StatusOK, "Logged out")
	return nil
}

func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) error {
	userID, ok := webutil.UserIDFromContext(r.Context())
	if !ok {
		return webutil.ErrUnauthorized("Token required")
	}

	var req resetPasswordRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		return err
	}
	if err := validatePassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	user, err := h.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if !webutil.CheckPassword(user.Password, req.OldPassword) {
		return webutil.ErrUnauthorized("Old password is incorrect")
	}

	hash, err := webutil.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := h.Users.UpdatePassword(r.Context(), userID, hash); err != nil {
		return webutil.ErrInternalServerWrap("Failed to update password", err)
	}

	webutil.RespondWithMessage(w, http.StatusOK, "Password changed")
	return nil
}

// exists turns a lookup result into a found flag, treating ErrNotFound as false.
func exists(_ *models.User, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, datastore.ErrNotFound) {
		return false, nil
	}
	return false, err
}
