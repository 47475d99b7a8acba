package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/database/borrowers"
	"github.com/NayeyYe/BookManage/internal/database/loginlogs"
	"github.com/NayeyYe/BookManage/internal/entities"
)

var uidPattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{1,64}$`)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateUser       = errors.New("user id already exists")
	ErrInvalidCredentials  = errors.New("invalid user id or password")
	ErrAccountSuspended    = errors.New("account is suspended")
	ErrAccountLocked       = errors.New("too many failed login attempts")
	ErrUIDInvalid          = errors.New("uid must be 1-64 characters: letters, digits, dot, underscore or hyphen")
	ErrNameRequired        = errors.New("name is required")
	ErrInvalidIdentityType = errors.New("unknown identity type")
)

// RegisterInput is the data needed to create a borrower account.
type RegisterInput struct {
	UID          string
	Name         string
	Phone        string
	Password     string
	IdentityType uint
	StudentID    *string
	EmployeeID   *string
}

type LoginResult struct {
	Token     string                    `json:"token"`
	ExpiresAt time.Time                 `json:"expires_at"`
	User      *entities.BorrowerProfile `json:"user"`
}

// Service handles registration, login and the admin capability.
type Service struct {
	db        *gorm.DB
	config    config.Auth
	tokens    *TokenService
	borrowers *borrowers.Repository
	loginLogs *loginlogs.Repository
	now       func() time.Time
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth, tokens *TokenService) *Service {
	return &Service{
		db:        db,
		config:    cfg,
		tokens:    tokens,
		borrowers: borrowers.NewRepository(db),
		loginLogs: loginlogs.NewRepository(db),
		now:       time.Now,
	}
}

// Register creates an active borrower and its credentials in one
// transaction.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*entities.BorrowerProfile, error) {
	if err := s.create(ctx, input, false); err != nil {
		return nil, err
	}
	return s.borrowers.GetBorrower(ctx, input.UID)
}

// CreateAdmin registers an account that holds the admin capability from
// the start. Used to bootstrap the first administrator.
func (s *Service) CreateAdmin(ctx context.Context, input RegisterInput) (*entities.BorrowerProfile, error) {
	if input.IdentityType == 0 {
		input.IdentityType = entities.IdentityAdministrator
	}
	if err := s.create(ctx, input, true); err != nil {
		return nil, err
	}
	return s.borrowers.GetBorrower(ctx, input.UID)
}

func (s *Service) create(ctx context.Context, input RegisterInput, admin bool) error {
	input.UID = strings.TrimSpace(input.UID)
	input.Name = strings.TrimSpace(input.Name)

	if !uidPattern.MatchString(input.UID) {
		return ErrUIDInvalid
	}
	if input.Name == "" {
		return ErrNameRequired
	}

	// A taken uid is reported before any password problem.
	var existing int64
	if err := s.db.WithContext(ctx).Model(&entities.Borrower{}).Where("uid = ?", input.UID).Count(&existing).Error; err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing > 0 {
		return ErrDuplicateUser
	}

	passwordHash, err := HashPassword(input.Password, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var types int64
		if err := tx.Model(&entities.UserType{}).Where("type_id = ?", input.IdentityType).Count(&types).Error; err != nil {
			return err
		}
		if types == 0 {
			return fmt.Errorf("%w: %d", ErrInvalidIdentityType, input.IdentityType)
		}

		borrower := &entities.Borrower{
			UID:              input.UID,
			Name:             input.Name,
			Phone:            strings.TrimSpace(input.Phone),
			IdentityType:     input.IdentityType,
			StudentID:        input.StudentID,
			EmployeeID:       input.EmployeeID,
			RegistrationDate: s.now().UTC(),
			BorrowingStatus:  entities.BorrowingStatusActive,
		}
		if err := tx.Create(borrower).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateUser
			}
			return fmt.Errorf("failed to create borrower: %w", err)
		}

		credentials := &entities.UserAuth{
			UserID:       input.UID,
			PasswordHash: passwordHash,
			IsAdmin:      admin,
		}
		if err := tx.Create(credentials).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateUser
			}
			return fmt.Errorf("failed to create credentials: %w", err)
		}
		return nil
	})
}

// Login checks credentials and issues a session token. Every attempt
// against an existing account is written to login_logs. A suspended
// account is reported only after the password has been verified.
func (s *Service) Login(ctx context.Context, uid, password, ip string) (*LoginResult, error) {
	var credentials entities.UserAuth
	err := s.db.WithContext(ctx).Where("user_id = ?", uid).First(&credentials).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, credentials.PasswordHash); err != nil {
		s.recordAttempt(ctx, uid, ip, entities.LoginStatusFailed)
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	profile, err := s.borrowers.GetBorrower(ctx, uid)
	if err != nil {
		if errors.Is(err, borrowers.ErrBorrowerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if profile.BorrowingStatus == entities.BorrowingStatusSuspended {
		s.recordAttempt(ctx, uid, ip, entities.LoginStatusFailed)
		return nil, ErrAccountSuspended
	}

	token, expires, err := s.tokens.Issue(profile.UID, profile.Name, profile.IdentityType)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&credentials).Update("last_login_at", now).Error; err != nil {
		log.Printf("Failed to update last login for %s: %v", uid, err)
	}
	s.recordAttempt(ctx, uid, ip, entities.LoginStatusSuccess)

	return &LoginResult{Token: token, ExpiresAt: expires, User: profile}, nil
}

// RecordLockout logs a login attempt rejected by the rate limiter.
func (s *Service) RecordLockout(ctx context.Context, uid, ip string) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&entities.Borrower{}).Where("uid = ?", uid).Count(&count).Error; err != nil || count == 0 {
		return
	}
	s.recordAttempt(ctx, uid, ip, entities.LoginStatusLocked)
}

func (s *Service) recordAttempt(ctx context.Context, uid, ip string, status entities.LoginStatus) {
	entry := &entities.LoginLog{
		UserID:      uid,
		LoginTime:   s.now().UTC(),
		LoginStatus: status,
		IPAddress:   ip,
	}
	if err := s.loginLogs.Record(ctx, entry); err != nil {
		log.Printf("Failed to record login attempt for %s: %v", uid, err)
	}
}

// Authenticate verifies a session token and checks that the borrower it
// names still exists.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&entities.Borrower{}).Where("uid = ?", claims.UID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}
	return claims, nil
}

// IsAdmin reports whether uid holds the admin capability. Unknown users
// are not admins.
func (s *Service) IsAdmin(ctx context.Context, uid string) (bool, error) {
	var credentials entities.UserAuth
	err := s.db.WithContext(ctx).Select("is_admin").Where("user_id = ?", uid).First(&credentials).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return credentials.IsAdmin, nil
}

// SetAdmin grants or revokes the admin capability.
func (s *Service) SetAdmin(ctx context.Context, uid string, admin bool) error {
	result := s.db.WithContext(ctx).Model(&entities.UserAuth{}).
		Where("user_id = ?", uid).
		Update("is_admin", admin)
	if result.Error != nil {
		return fmt.Errorf("failed to update admin flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&entities.UserAuth{}).Where("user_id = ?", uid).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
	}
	return nil
}

// ChangePassword replaces a user's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, uid, oldPassword, newPassword string) error {
	var credentials entities.UserAuth
	err := s.db.WithContext(ctx).Where("user_id = ?", uid).First(&credentials).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, credentials.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return ErrInvalidCredentials
		}
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&credentials).Update("password_hash", newHash).Error
}
