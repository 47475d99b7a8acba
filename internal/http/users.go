package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/entities"
)

// UsersController handles account registration, login and the per-user
// views a borrower can see about themselves.
type UsersController struct {
	accounts  Accounts
	borrowers BorrowerStore
	types     UserTypeStore
	limiter   *auth.RateLimiter
}

func NewUsersController(accounts Accounts, borrowers BorrowerStore, types UserTypeStore, limiter *auth.RateLimiter) *UsersController {
	return &UsersController{
		accounts:  accounts,
		borrowers: borrowers,
		types:     types,
		limiter:   limiter,
	}
}

type registerRequest struct {
	UID          string  `json:"uid" binding:"required,uid"`
	Name         string  `json:"name" binding:"required,max=128"`
	Phone        string  `json:"phone" binding:"phone"`
	Password     string  `json:"password" binding:"required"`
	IdentityType uint    `json:"identity_type"`
	StudentID    *string `json:"student_id"`
	EmployeeID   *string `json:"employee_id"`
}

type loginRequest struct {
	UID      string `json:"uid" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name  string `json:"name" binding:"required,max=128"`
	Phone string `json:"phone" binding:"phone"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (controller *UsersController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.IdentityType == 0 {
		req.IdentityType = entities.IdentityStudent
	}

	profile, err := controller.accounts.Register(c.Request.Context(), auth.RegisterInput{
		UID:          req.UID,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Password:     req.Password,
		IdentityType: req.IdentityType,
		StudentID:    req.StudentID,
		EmployeeID:   req.EmployeeID,
	})
	if err != nil {
		respondDomainError(c, err, "register")
		return
	}
	respondCreated(c, gin.H{"message": "registration successful", "user": profile})
}

// UserTypes lists the identity types accepted by Register.
func (controller *UsersController) UserTypes(c *gin.Context) {
	if controller.types == nil {
		c.JSON(http.StatusOK, gin.H{"user_types": []entities.UserType{}, "count": 0})
		return
	}
	types, err := controller.types.GetUserTypes(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list user types")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_types": types, "count": len(types)})
}

func (controller *UsersController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ip := c.ClientIP()
	if controller.limiter != nil {
		if allowed, retryAfter := controller.limiter.Allow(ip, req.UID); !allowed {
			controller.accounts.RecordLockout(c.Request.Context(), req.UID, ip)
			tooManyAttempts(c, retryAfter.Seconds())
			return
		}
	}

	result, err := controller.accounts.Login(c.Request.Context(), req.UID, req.Password, ip)
	if err != nil {
		if controller.limiter != nil && errors.Is(err, auth.ErrInvalidCredentials) {
			if locked, retryAfter := controller.limiter.RecordFailure(ip, req.UID); locked {
				tooManyAttempts(c, retryAfter.Seconds())
				return
			}
		}
		respondDomainError(c, err, "login")
		return
	}
	if controller.limiter != nil {
		controller.limiter.RecordSuccess(ip, req.UID)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "login successful",
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
	})
}

func tooManyAttempts(c *gin.Context, retryAfterSeconds float64) {
	c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfterSeconds))
	c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: auth.ErrAccountLocked.Error(), Code: CodeRateLimited})
}

func (controller *UsersController) GetUser(c *gin.Context) {
	uid := c.Param("id")
	if !auth.CanAccessUser(c, uid) {
		respondForbidden(c, "cannot access another user's data")
		return
	}

	profile, err := controller.borrowers.GetBorrower(c.Request.Context(), uid)
	if err != nil {
		respondDomainError(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (controller *UsersController) UpdateUser(c *gin.Context) {
	uid := c.Param("id")
	if !auth.CanAccessUser(c, uid) {
		respondForbidden(c, "cannot modify another user's data")
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	profile, err := controller.borrowers.UpdateProfile(c.Request.Context(), uid, strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone))
	if err != nil {
		respondDomainError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "user": profile})
}

// ChangePassword lets a user replace their own password. Admins cannot
// use it on other accounts because it requires the old password.
func (controller *UsersController) ChangePassword(c *gin.Context) {
	uid := c.Param("id")
	if auth.GetUserID(c) != uid {
		respondForbidden(c, "cannot change another user's password")
		return
	}

	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := controller.accounts.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		respondDomainError(c, err, "change password")
		return
	}
	respondSuccess(c, "password changed")
}

func (controller *UsersController) BorrowingRecords(c *gin.Context) {
	uid := c.Param("id")
	if !auth.CanAccessUser(c, uid) {
		respondForbidden(c, "cannot access another user's data")
		return
	}

	list, err := controller.borrowers.BorrowingRecordsFor(c.Request.Context(), uid)
	if err != nil {
		respondDomainError(c, err, "user borrowing records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list, "count": len(list)})
}

func (controller *UsersController) FineRecords(c *gin.Context) {
	uid := c.Param("id")
	if !auth.CanAccessUser(c, uid) {
		respondForbidden(c, "cannot access another user's data")
		return
	}

	list, err := controller.borrowers.FineRecordsFor(c.Request.Context(), uid)
	if err != nil {
		respondDomainError(c, err, "user fine records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fines": list, "count": len(list)})
}
