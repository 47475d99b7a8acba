// Package loginlogs stores and queries login attempts.
package loginlogs

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/NayeyYe/BookManage/internal/entities"
)

// Repository handles login log database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new login logs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Record(ctx context.Context, entry *entities.LoginLog) error {
	if entry.LoginTime.IsZero() {
		entry.LoginTime = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns the most recent attempts first. A limit of zero or less
// returns everything.
func (r *Repository) List(ctx context.Context, limit int) ([]entities.LoginLogView, error) {
	query := r.db.WithContext(ctx).Table("login_logs").
		Select(`login_logs.log_id, login_logs.user_id, COALESCE(borrowers.name, '') AS user_name,
			COALESCE(borrowers.identity_type, 0) AS identity_type,
			login_logs.login_time, login_logs.login_status, login_logs.ip_address`).
		Joins("LEFT JOIN borrowers ON borrowers.uid = login_logs.user_id").
		Order("login_logs.login_time DESC, login_logs.log_id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var views []entities.LoginLogView
	err := query.Scan(&views).Error
	return views, err
}

// DeleteOlderThan removes attempts logged before cutoff and reports how
// many were removed.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("login_time < ?", cutoff.UTC()).Delete(&entities.LoginLog{})
	return result.RowsAffected, result.Error
}
