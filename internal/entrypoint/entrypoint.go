package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/circulation"
	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/database"
	"github.com/NayeyYe/BookManage/internal/database/books"
	"github.com/NayeyYe/BookManage/internal/database/borrowers"
	"github.com/NayeyYe/BookManage/internal/database/loginlogs"
	"github.com/NayeyYe/BookManage/internal/database/records"
	http_controllers "github.com/NayeyYe/BookManage/internal/http"
	"github.com/NayeyYe/BookManage/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Application holds everything Run wires together. Exposed so tests and
// subcommands can build the same graph without starting a server.
type Application struct {
	Database     *database.Database
	Router       *gin.Engine
	Accounts     *auth.Service
	Circulation  *circulation.Service
	LoginLimiter *auth.RateLimiter
	Retention    *scheduler.LoginLogRetention
}

// Close releases the limiter and the database handle.
func (app *Application) Close() {
	if app.Retention != nil {
		app.Retention.Stop()
	}
	if app.LoginLimiter != nil {
		app.LoginLimiter.Stop()
	}
	if app.Database != nil {
		if err := app.Database.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}
}

// NewApplication opens the database and builds the services and router.
func NewApplication(cfg *config.Config, version string) (*Application, error) {
	if cfg.Auth.TokenKey == "" {
		key, err := auth.GenerateTokenKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token key: %w", err)
		}
		cfg.Auth.TokenKey = key
		log.Printf("WARNING: AUTH_TOKEN_KEY is not set. Generated a random key; sessions will not survive a restart.")
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app := &Application{Database: db}

	tokens, err := auth.NewTokenService(cfg.Auth.TokenKey, cfg.Auth.TokenTTL)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	app.Accounts = auth.NewService(db.DB, cfg.Auth, tokens)

	app.Circulation, err = circulation.NewService(db.DB, cfg.Circulation)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create circulation service: %w", err)
	}

	app.LoginLimiter = auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		WindowDuration:  cfg.Auth.RateLimitWindow,
		LockoutDuration: cfg.Auth.LockoutDuration,
	})

	loginLogRepo := loginlogs.NewRepository(db.DB)
	app.Retention = scheduler.NewLoginLogRetention(loginLogRepo, cfg.LoginLogs)

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:        db,
		Books:           books.NewRepository(db.DB),
		Borrowers:       borrowers.NewRepository(db.DB),
		Records:         records.NewRepository(db.DB),
		LoginLogs:       loginLogRepo,
		Circulation:     app.Circulation,
		Accounts:        app.Accounts,
		AuthMiddleware:  auth.NewMiddleware(app.Accounts),
		LoginLimiter:    app.LoginLimiter,
		RegisterLimiter: auth.NewRegisterLimiter(cfg.Auth.RegisterRPS, cfg.Auth.RegisterBurst),
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		HSTSMaxAge:      cfg.HTTP.HSTSMaxAge,
		Version:         version,
	})

	return app, nil
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Close resources after in-flight requests have drained
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting BookManage v%s", version)

	app, err := NewApplication(cfg, version)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	log.Printf("Database ready (%s)", cfg.Database.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	if err := app.Retention.Start(ctx); err != nil {
		log.Printf("Login log retention not started: %v", err)
	}

	Serve(app.Router, cfg, func(context.Context) {
		cancel()
		app.Close()
	})
}
