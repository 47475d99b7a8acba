// Package borrowers provides database operations for borrower accounts:
// profiles, status changes, history lookups, and the cascading delete used
// by administrators.
package borrowers

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/NayeyYe/BookManage/internal/database/records"
	"github.com/NayeyYe/BookManage/internal/entities"
)

var ErrBorrowerNotFound = errors.New("borrower not found")

// Repository handles all borrower database operations.
type Repository struct {
	db      *gorm.DB
	records *records.Repository
}

// NewRepository creates a new borrowers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, records: records.NewRepository(db)}
}

func (r *Repository) profiles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("borrowers").
		Select(`borrowers.uid, borrowers.name, borrowers.phone, borrowers.identity_type,
			COALESCE(user_types.type_name, '') AS identity_type_name, borrowers.student_id, borrowers.employee_id,
			borrowers.borrowed_count, borrowers.registration_date, borrowers.borrowing_status,
			COALESCE(user_auth.is_admin, false) AS is_admin`).
		Joins("LEFT JOIN user_types ON user_types.type_id = borrowers.identity_type").
		Joins("LEFT JOIN user_auth ON user_auth.user_id = borrowers.uid")
}

// GetBorrower returns the borrower's profile including the identity type
// name and admin flag.
func (r *Repository) GetBorrower(ctx context.Context, uid string) (*entities.BorrowerProfile, error) {
	var profiles []entities.BorrowerProfile
	if err := r.profiles(ctx).Where("borrowers.uid = ?", uid).Limit(1).Scan(&profiles).Error; err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrBorrowerNotFound
	}
	return &profiles[0], nil
}

func (r *Repository) ListBorrowers(ctx context.Context) ([]entities.BorrowerProfile, error) {
	var profiles []entities.BorrowerProfile
	err := r.profiles(ctx).Order("borrowers.registration_date DESC, borrowers.uid ASC").Scan(&profiles).Error
	return profiles, err
}

// UpdateProfile changes the contact details a borrower may edit themselves.
func (r *Repository) UpdateProfile(ctx context.Context, uid, name, phone string) (*entities.BorrowerProfile, error) {
	result := r.db.WithContext(ctx).Model(&entities.Borrower{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{"name": name, "phone": phone})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update borrower: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrBorrowerNotFound
	}
	return r.GetBorrower(ctx, uid)
}

func (r *Repository) SetStatus(ctx context.Context, uid string, status entities.BorrowingStatus) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Borrower{}).Where("uid = ?", uid).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrBorrowerNotFound
	}
	return r.db.WithContext(ctx).Model(&entities.Borrower{}).
		Where("uid = ?", uid).
		Update("borrowing_status", status).Error
}

// DeleteCascade removes a borrower and everything that references them in
// one transaction: credentials, loans, fines, login logs, then the borrower
// row. Copies still out on the borrower's open loans go back on the shelf.
func (r *Repository) DeleteCascade(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var borrower entities.Borrower
		if err := tx.Where("uid = ?", uid).First(&borrower).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBorrowerNotFound
			}
			return err
		}

		var open []entities.BorrowingRecord
		if err := tx.Where("borrower_id = ? AND return_date IS NULL", uid).Find(&open).Error; err != nil {
			return err
		}
		for _, record := range open {
			err := tx.Model(&entities.Book{}).
				Where("book_id = ?", record.BookID).
				Update("current_stock", gorm.Expr("current_stock + 1")).Error
			if err != nil {
				return fmt.Errorf("failed to restock %s: %w", record.BookID, err)
			}
		}

		steps := []struct {
			name  string
			model interface{}
			where string
		}{
			{"credentials", &entities.UserAuth{}, "user_id = ?"},
			{"borrowing records", &entities.BorrowingRecord{}, "borrower_id = ?"},
			{"fine records", &entities.FineRecord{}, "borrower_id = ?"},
			{"login logs", &entities.LoginLog{}, "user_id = ?"},
			{"borrower", &entities.Borrower{}, "uid = ?"},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, uid).Delete(step.model).Error; err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.name, err)
			}
		}
		return nil
	})
}

func (r *Repository) BorrowingRecordsFor(ctx context.Context, uid string) ([]entities.BorrowingRecordView, error) {
	if _, err := r.GetBorrower(ctx, uid); err != nil {
		return nil, err
	}
	return r.records.ListBorrowingRecords(ctx, uid)
}

func (r *Repository) FineRecordsFor(ctx context.Context, uid string) ([]entities.FineRecordView, error) {
	if _, err := r.GetBorrower(ctx, uid); err != nil {
		return nil, err
	}
	return r.records.ListFineRecords(ctx, uid)
}
