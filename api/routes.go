package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/coreybb/weconnect/route-handlers"
	"github.com/coreybb/weconnect/webutil"
)

const (
	apiBasePath        = "/api/v1"
	authBasePath       = "/auth"
	usersBasePath      = "/users"
	businessesBasePath = "/businesses"
)

const (
	reviewsSubPath = "/reviews"
)

const (
	paramID = "id" // General parameter name for resource IDs
)

// Handlers bundles the route handlers and the middleware they depend on.
type Handlers struct {
	Auth         *rh.AuthHandler
	Users        *rh.UserHandler
	Businesses   *rh.BusinessHandler
	Reviews      *rh.ReviewHandler
	RequireAuth  func(http.Handler) http.Handler
	LoginLimiter *LoginRateLimiter

	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the socket
	// address. Enable only behind a proxy that overwrites those headers, since
	// the login limiter keys on the resulting address.
	TrustProxyHeaders bool
}

func SetupRoutes(h Handlers) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	if h.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)                                                 // Log every request
	r.Use(middleware.Recoverer)                                              // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second))                              // Set a timeout context for requests
	r.Use(SetHeader(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8)) // Default Content-Type

	r.Route(apiBasePath, func(r chi.Router) {
		configureAuthRoutes(r, h)
		configureUserRoutes(r, h.Users)
		configureBusinessRoutes(r, h)
	})

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}

// --- Auth Routes ---
func configureAuthRoutes(r chi.Router, h Handlers) {
	r.Route(authBasePath, func(r chi.Router) {
		r.Post("/register", webutil.MakeHandler(h.Auth.HandleRegister))
		r.Get(pathWithParam("/activate", "token"), webutil.MakeHandler(h.Auth.HandleActivate))

		r.With(h.LoginLimiter.Middleware).Post("/login", webutil.MakeHandler(h.Auth.HandleLogin))

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/logout", webutil.MakeHandler(h.Auth.HandleLogout))
			r.Post("/reset-password", webutil.MakeHandler(h.Auth.HandleResetPassword))
		})
	})
}

// --- User Routes ---
func configureUserRoutes(r chi.Router, handler *rh.UserHandler) {
	r.Route(usersBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(handler.HandleGetUsers))
		r.Get(pathWithParam("", paramID), webutil.MakeHandler(handler.HandleGetUser))
	})
}

// --- Business Routes ---
func configureBusinessRoutes(r chi.Router, h Handlers) {
	specificBusinessPath := pathWithParam("", paramID) // e.g., "/{id}"

	r.Route(businessesBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(h.Businesses.HandleGetBusinesses))
		r.With(h.RequireAuth).Post("/", webutil.MakeHandler(h.Businesses.HandleCreateBusiness))

		r.Route(specificBusinessPath, func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(h.Businesses.HandleGetBusiness))
			r.With(h.RequireAuth).Put("/", webutil.MakeHandler(h.Businesses.HandleUpdateBusiness))
			r.With(h.RequireAuth).Delete("/", webutil.MakeHandler(h.Businesses.HandleDeleteBusiness))

			// Nested: reviews of a business
			r.Get(reviewsSubPath, webutil.MakeHandler(h.Reviews.HandleGetReviews))                       // GET /businesses/{id}/reviews
			r.With(h.RequireAuth).Post(reviewsSubPath, webutil.MakeHandler(h.Reviews.HandleCreateReview)) // POST /businesses/{id}/reviews
		})
	})
}

// --- Utility Functions ---

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
