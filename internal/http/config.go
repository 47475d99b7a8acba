package http

import (
	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/database"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	Books       BookStore
	Borrowers   BorrowerStore
	Records     RecordStore
	LoginLogs   LoginLogStore
	Circulation Circulation

	// Authentication
	Accounts        Accounts
	AuthMiddleware  *auth.Middleware
	LoginLimiter    *auth.RateLimiter
	RegisterLimiter *auth.RegisterLimiter

	// CORS
	AllowedOrigins []string

	// HSTSMaxAge enables Strict-Transport-Security on HTTPS requests when positive
	HSTSMaxAge int

	// Version info
	Version string
}
