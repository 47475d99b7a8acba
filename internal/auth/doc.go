// Package auth provides authentication and authorization for the API.
//
// Borrowers register with a uid and password. Passwords are stored as
// salted bcrypt hashes in user_auth, one row per borrower. Login issues a
// PASETO v4.local session token carrying uid, name and identity_type,
// valid for 24 hours by default.
//
// # Configuration
//
//	AUTH_TOKEN_KEY=<64 hex chars>   # Auto-generated at startup if empty
//	AUTH_TOKEN_TTL=24h              # Session token lifetime
//	AUTH_BCRYPT_COST=12             # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5       # Failures before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//	AUTH_REGISTER_RPS=1             # Registrations per second per IP
//	AUTH_REGISTER_BURST=5
//
// With a generated key, tokens stop verifying after a restart.
//
// # Usage
//
//	tokens, _ := auth.NewTokenService(cfg.Auth.TokenKey, cfg.Auth.TokenTTL)
//	authService := auth.NewService(db, cfg.Auth, tokens)
//	authMiddleware := auth.NewMiddleware(authService)
//
//	api.Use(authMiddleware.Authenticate())
//	admin.Use(authMiddleware.RequireAdmin())
//
// Extract the caller in handlers:
//
//	uid := auth.GetUserID(c)
//
// # Admin Capability
//
// Admin is a flag on the credential row, not a token claim. RequireAdmin
// reads it per request.
package auth
