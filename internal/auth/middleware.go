package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for user data
const (
	ContextKeyUserID       = "auth_user_id"
	ContextKeyName         = "auth_name"
	ContextKeyIdentityType = "auth_identity_type"
	ContextKeyIsAdmin      = "auth_is_admin"
)

// Middleware authenticates API requests with Bearer session tokens.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Authenticate requires a valid Bearer token. A missing token or a token
// for a deleted borrower is 401; a malformed or expired token is 403.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, "access token missing", "UNAUTHORIZED")
			return
		}

		claims, err := m.service.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, ErrInvalidToken):
			abort(c, http.StatusForbidden, "invalid access token", "TOKEN_INVALID")
			return
		case errors.Is(err, ErrUserNotFound):
			abort(c, http.StatusUnauthorized, "user does not exist", "UNAUTHORIZED")
			return
		default:
			log.Printf("Failed to authenticate request: %v", err)
			abort(c, http.StatusInternalServerError, "internal server error", "INTERNAL")
			return
		}

		c.Set(ContextKeyUserID, claims.UID)
		c.Set(ContextKeyName, claims.Name)
		c.Set(ContextKeyIdentityType, claims.IdentityType)
		c.Next()
	}
}

// RequireAdmin checks the admin capability on every request, so revoking
// it takes effect before the token expires. Must run after Authenticate.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := m.resolveAdmin(c)
		if err != nil {
			log.Printf("Failed to check admin capability: %v", err)
			abort(c, http.StatusInternalServerError, "internal server error", "INTERNAL")
			return
		}
		if !admin {
			abort(c, http.StatusForbidden, "admin permissions required", "FORBIDDEN")
			return
		}
		c.Next()
	}
}

// ResolveAdmin returns whether the authenticated user is an admin,
// caching the answer on the request context.
func (m *Middleware) ResolveAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := m.resolveAdmin(c); err != nil {
			log.Printf("Failed to check admin capability: %v", err)
			abort(c, http.StatusInternalServerError, "internal server error", "INTERNAL")
			return
		}
		c.Next()
	}
}

func (m *Middleware) resolveAdmin(c *gin.Context) (bool, error) {
	if v, exists := c.Get(ContextKeyIsAdmin); exists {
		if admin, ok := v.(bool); ok {
			return admin, nil
		}
	}
	uid := GetUserID(c)
	if uid == "" {
		return false, nil
	}
	admin, err := m.service.IsAdmin(c.Request.Context(), uid)
	if err != nil {
		return false, err
	}
	c.Set(ContextKeyIsAdmin, admin)
	return admin, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abort(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "code": code})
}

// Helper functions to extract auth data from Gin context

// GetUserID retrieves the authenticated user's uid from the context.
// Returns "" if the request is not authenticated.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

func GetName(c *gin.Context) string {
	return c.GetString(ContextKeyName)
}

// IsAdmin reports the admin flag resolved by RequireAdmin or ResolveAdmin.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextKeyIsAdmin)
}

// CanAccessUser reports whether the caller may read or change uid's data:
// the user themselves or an admin.
func CanAccessUser(c *gin.Context, uid string) bool {
	return GetUserID(c) == uid || IsAdmin(c)
}
