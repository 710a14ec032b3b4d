package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/coreybb/weconnect/auth"
	"github.com/coreybb/weconnect/datastore"
	"github.com/coreybb/weconnect/webutil"
)

// TokenVerifier checks an access token and returns the user it belongs to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequireAuth admits requests carrying a valid bearer token that has not been
// revoked and whose user still exists and is activated. The user ID and token
// are stored in the request context.
func RequireAuth(verifier TokenVerifier, tokens datastore.Tokens, users datastore.Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return webutil.MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
			header := r.Header.Get(webutil.HeaderAuthorization)
			if !strings.HasPrefix(header, webutil.BearerPrefix) {
				return webutil.ErrUnauthorized("Token required")
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, webutil.BearerPrefix))
			if token == "" {
				return webutil.ErrUnauthorized("Token required")
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					return webutil.ErrUnauthorizedWrap("Token expired", err)
				}
				return webutil.ErrUnauthorizedWrap("Invalid token", err)
			}

			stored, err := tokens.TokenExists(r.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to check token: %w", err)
			}
			if !stored {
				return webutil.ErrUnauthorized("Token revoked, please log in again")
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, datastore.ErrNotFound) {
					return webutil.ErrUnauthorizedWrap("Invalid token", err)
				}
				return fmt.Errorf("failed to load token user: %w", err)
			}
			if !user.IsActivated() {
				return webutil.ErrForbidden("Account not activated, check your email")
			}

			next.ServeHTTP(w, r.WithContext(webutil.WithAuth(r.Context(), userID, token)))
			return nil
		})
	}
}

// LoginRateLimiter throttles requests per client IP with a token bucket.
type LoginRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginRateLimiter allows perMinute requests per client per minute, with
// bursts of the same size.
func NewLoginRateLimiter(perMinute int) *LoginRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &LoginRateLimiter{
		limiters:  make(map[string]*clientLimiter),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		idleAfter: 10 * time.Minute,
		now:       time.Now,
	}
}

// Allow reports whether a request from client may proceed.
func (l *LoginRateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.idleAfter {
		for k, c := range l.limiters {
			if now.Sub(c.lastSeen) > l.idleAfter {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.limiters[client]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[client] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429.
func (l *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return webutil.MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
		if !l.Allow(clientIP(r)) {
			w.Header().Set(webutil.HeaderRetryAfter, strconv.Itoa(int(time.Minute.Seconds())))
			return webutil.ErrTooManyRequests("Too many login attempts, try again later")
		}
		next.ServeHTTP(w, r)
		return nil
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// SetHeader is a middleware to set a response header.
func SetHeader(key, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(key, value)
			next.ServeHTTP(w, r)
		})
	}
}
