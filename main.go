package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/coreybb/weconnect/api"
	"github.com/coreybb/weconnect/auth"
	"github.com/coreybb/weconnect/datastore"
	"github.com/coreybb/weconnect/delivery"
	rh "github.com/coreybb/weconnect/route-handlers"
	"github.com/coreybb/weconnect/webutil"
)

const (
	defaultPort               = "8080"
	defaultPublicURL          = "http://localhost:8080"
	defaultSendGridFrom       = "noreply@weconnect.dev"
	defaultSendGridName       = "WeConnect"
	defaultLoginRatePerMinute = 10
	dbPingTimeout             = 5 * time.Second
	shutdownTimeout           = 15 * time.Second
	dbMaxOpenConns            = 25
	dbMaxIdleConns            = 25
	dbConnMaxLifetime         = 5 * time.Minute
)

type config struct {
	port               string
	publicURL          string
	secretKey          string
	tokenTTL           time.Duration
	databaseURL        string
	redisURL           string
	sendGridAPIKey     string
	sendGridFromEmail  string
	sendGridFromName   string
	loginRatePerMinute int
	trustProxyHeaders  bool
}

// repositories groups the storage backends the handlers run against.
type repositories struct {
	users      datastore.Users
	tokens     datastore.Tokens
	businesses datastore.Businesses
	reviews    datastore.Reviews
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARNING: failed to load .env file: %v", err)
	}
	cfg := loadConfig()

	repos, cleanup, err := setupRepositories(cfg)
	if err != nil {
		log.Fatalf("Storage setup failed: %v", err)
	}
	defer cleanup()

	issuer := auth.NewTokenIssuer(cfg.secretKey, cfg.tokenTTL)

	var mailer delivery.Mailer = delivery.LogMailer{}
	if cfg.sendGridAPIKey != "" {
		mailer = delivery.NewSendGridMailer(cfg.sendGridAPIKey, cfg.sendGridFromEmail, cfg.sendGridFromName)
	}

	router := api.SetupRoutes(api.Handlers{
		Auth:         rh.NewAuthHandler(repos.users, repos.tokens, issuer, mailer, cfg.publicURL),
		Users:        rh.NewUserHandler(repos.users),
		Businesses:   rh.NewBusinessHandler(repos.businesses),
		Reviews:      rh.NewReviewHandler(repos.reviews, repos.businesses),
		RequireAuth:  api.RequireAuth(issuer, repos.tokens, repos.users),
		LoginLimiter: api.NewLoginRateLimiter(cfg.loginRatePerMinute),

		TrustProxyHeaders: cfg.trustProxyHeaders,
	})

	startServer(cfg.port, router)
}

func loadConfig() config {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	publicURL := os.Getenv("PUBLIC_URL")
	if publicURL == "" {
		publicURL = defaultPublicURL
	}

	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		generated, err := webutil.GenerateRandomToken(32)
		if err != nil {
			log.Fatalf("Failed to generate secret key: %v", err)
		}
		secretKey = generated
		log.Println("WARNING: SECRET_KEY not set, using a random key. Tokens will not survive a restart.")
	}

	tokenTTL := auth.DefaultTokenTTL
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Printf("WARNING: invalid TOKEN_TTL %q, using %s", raw, tokenTTL)
		} else {
			tokenTTL = d
		}
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		log.Println("INFO: DB_CONNECTION_STRING not set, using in-memory store.")
	}

	sendGridAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sendGridAPIKey == "" {
		log.Println("WARNING: SENDGRID_API_KEY not set. Activation emails will be logged instead of sent.")
	}

	sendGridFrom := os.Getenv("SENDGRID_FROM_EMAIL")
	if sendGridFrom == "" {
		sendGridFrom = defaultSendGridFrom
	}

	sendGridName := os.Getenv("SENDGRID_FROM_NAME")
	if sendGridName == "" {
		sendGridName = defaultSendGridName
	}

	loginRate := defaultLoginRatePerMinute
	if raw := os.Getenv("LOGIN_RATE_PER_MINUTE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.Printf("WARNING: invalid LOGIN_RATE_PER_MINUTE %q, using %d", raw, loginRate)
		} else {
			loginRate = n
		}
	}

	var trustProxy bool
	if raw := os.Getenv("TRUST_PROXY_HEADERS"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			log.Printf("WARNING: invalid TRUST_PROXY_HEADERS %q, ignoring forwarded headers", raw)
		}
		trustProxy = b
	}

	return config{
		port:               port,
		publicURL:          publicURL,
		secretKey:          secretKey,
		tokenTTL:           tokenTTL,
		databaseURL:        dbURL,
		redisURL:           os.Getenv("REDIS_URL"),
		sendGridAPIKey:     sendGridAPIKey,
		sendGridFromEmail:  sendGridFrom,
		sendGridFromName:   sendGridName,
		loginRatePerMinute: loginRate,
		trustProxyHeaders:  trustProxy,
	}
}

// setupRepositories picks Postgres when a connection string is configured and
// the in-memory Store otherwise. REDIS_URL moves auth tokens to Redis.
func setupRepositories(cfg config) (repositories, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("WARNING: cleanup failed: %v", err)
			}
		}
	}

	var repos repositories
	if cfg.databaseURL == "" {
		store := datastore.NewStore()
		repos = repositories{users: store, tokens: store, businesses: store, reviews: store}
	} else {
		db, err := setupDatabase(cfg.databaseURL)
		if err != nil {
			return repos, cleanup, err
		}
		closers = append(closers, db.Close)
		repos = repositories{
			users:      datastore.NewUserRepository(db),
			tokens:     datastore.NewTokenRepository(db),
			businesses: datastore.NewBusinessRepository(db),
			reviews:    datastore.NewReviewRepository(db),
		}
	}

	if cfg.redisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
		defer cancel()
		client, err := datastore.OpenRedis(ctx, cfg.redisURL)
		if err != nil {
			cleanup()
			return repos, func() {}, err
		}
		closers = append(closers, client.Close)
		repos.tokens = datastore.NewRedisTokenRepository(client)
		log.Println("Auth tokens stored in Redis")
	}

	return repos, cleanup, nil
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err = datastore.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("Database connection successful")
	return db, nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
