// Package records provides read access to loan and fine history, fine
// payment, and the counters behind the admin dashboard.
//
// Loans themselves are opened and closed by the circulation service; this
// package never changes stock or borrower counters.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NayeyYe/BookManage/internal/entities"
)

var (
	ErrFineNotFound    = errors.New("fine record not found")
	ErrFineAlreadyPaid = errors.New("fine already paid")
)

// Repository handles borrowing and fine record queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new records repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBorrowingRecords returns loans, newest first, joined with book title
// and borrower name. An empty borrowerID lists every borrower.
func (r *Repository) ListBorrowingRecords(ctx context.Context, borrowerID string) ([]entities.BorrowingRecordView, error) {
	query := r.db.WithContext(ctx).Table("borrowing_records").
		Select(`borrowing_records.record_id, borrowing_records.borrower_id, borrowing_records.book_id,
			borrowing_records.borrow_date, borrowing_records.due_date, borrowing_records.return_date,
			books.title AS book_title, borrowers.name AS borrower_name, borrowers.identity_type`).
		Joins("JOIN books ON books.book_id = borrowing_records.book_id").
		Joins("JOIN borrowers ON borrowers.uid = borrowing_records.borrower_id")
	if borrowerID != "" {
		query = query.Where("borrowing_records.borrower_id = ?", borrowerID)
	}

	var views []entities.BorrowingRecordView
	err := query.Order("borrowing_records.borrow_date DESC, borrowing_records.record_id DESC").Scan(&views).Error
	return views, err
}

// ListFineRecords returns fines, newest first. An empty borrowerID lists
// every borrower.
func (r *Repository) ListFineRecords(ctx context.Context, borrowerID string) ([]entities.FineRecordView, error) {
	query := r.db.WithContext(ctx).Table("fine_records").
		Select(`fine_records.fine_id, fine_records.borrower_id, fine_records.book_id, fine_records.record_id,
			fine_records.borrow_date, fine_records.return_date, fine_records.overdue_days,
			fine_records.fine_amount, fine_records.payment_status, fine_records.paid_at,
			books.title AS book_title, borrowers.name AS borrower_name`).
		Joins("JOIN books ON books.book_id = fine_records.book_id").
		Joins("JOIN borrowers ON borrowers.uid = fine_records.borrower_id")
	if borrowerID != "" {
		query = query.Where("fine_records.borrower_id = ?", borrowerID)
	}

	var views []entities.FineRecordView
	err := query.Order("fine_records.return_date DESC, fine_records.fine_id DESC").Scan(&views).Error
	return views, err
}

func (r *Repository) GetFine(ctx context.Context, fineID uint) (*entities.FineRecord, error) {
	var fine entities.FineRecord
	err := r.db.WithContext(ctx).Where("fine_id = ?", fineID).First(&fine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

// PayFine marks an unpaid fine as paid. A fine is paid at most once.
func (r *Repository) PayFine(ctx context.Context, fineID uint, paidAt time.Time) (*entities.FineRecord, error) {
	result := r.db.WithContext(ctx).Model(&entities.FineRecord{}).
		Where("fine_id = ? AND payment_status = ?", fineID, entities.PaymentStatusUnpaid).
		Updates(map[string]interface{}{
			"payment_status": entities.PaymentStatusPaid,
			"paid_at":        paidAt.UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to pay fine: %w", result.Error)
	}

	fine, err := r.GetFine(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, ErrFineAlreadyPaid
	}
	return fine, nil
}

// Stats gathers the dashboard counters. Loans due before today that are
// still open count as overdue.
func (r *Repository) Stats(ctx context.Context, today time.Time) (*entities.LibraryStats, error) {
	db := r.db.WithContext(ctx)
	stats := &entities.LibraryStats{}

	var stock struct {
		Books  int64
		Copies int64
		Shelf  int64
	}
	err := db.Model(&entities.Book{}).
		Select("COUNT(*) AS books, COALESCE(SUM(total_stock), 0) AS copies, COALESCE(SUM(current_stock), 0) AS shelf").
		Scan(&stock).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}
	stats.Books, stats.Copies, stats.CopiesOnShelf = stock.Books, stock.Copies, stock.Shelf

	if err := db.Model(&entities.Borrower{}).Count(&stats.Borrowers).Error; err != nil {
		return nil, fmt.Errorf("failed to count borrowers: %w", err)
	}
	if err := db.Model(&entities.BorrowingRecord{}).Where("return_date IS NULL").Count(&stats.OpenLoans).Error; err != nil {
		return nil, fmt.Errorf("failed to count open loans: %w", err)
	}
	err = db.Model(&entities.BorrowingRecord{}).
		Where("return_date IS NULL AND due_date < ?", today.UTC()).
		Count(&stats.OverdueLoans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue loans: %w", err)
	}

	unpaid := db.Model(&entities.FineRecord{}).Where("payment_status = ?", entities.PaymentStatusUnpaid)
	if err := unpaid.Count(&stats.UnpaidFines).Error; err != nil {
		return nil, fmt.Errorf("failed to count unpaid fines: %w", err)
	}

	var total decimal.NullDecimal
	err = db.Model(&entities.FineRecord{}).
		Where("payment_status = ?", entities.PaymentStatusUnpaid).
		Select("SUM(fine_amount)").
		Row().Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to sum unpaid fines: %w", err)
	}
	stats.UnpaidTotal = decimal.Zero
	if total.Valid {
		stats.UnpaidTotal = total.Decimal
	}

	return stats, nil
}
