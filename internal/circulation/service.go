package circulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/entities"
)

var (
	ErrBookUnavailable = errors.New("book is unavailable")
	ErrBorrowerInvalid = errors.New("borrower does not exist or is not active")
	ErrDuplicateLoan   = errors.New("borrower already has this book on loan")
	ErrRecordNotFound  = errors.New("open borrowing record not found")
	ErrInvalidPolicy   = errors.New("invalid circulation policy")
)

type Service struct {
	db         *gorm.DB
	loanPeriod int
	dailyRate  decimal.Decimal
	now        func() time.Time
}

// NewService builds the circulation service from the configured loan
// period and daily fine rate.
func NewService(db *gorm.DB, cfg config.Circulation) (*Service, error) {
	if cfg.LoanPeriodDays <= 0 {
		return nil, fmt.Errorf("%w: loan period must be positive, got %d", ErrInvalidPolicy, cfg.LoanPeriodDays)
	}
	rate, err := decimal.NewFromString(cfg.FineDailyRate)
	if err != nil {
		return nil, fmt.Errorf("%w: fine rate %q: %v", ErrInvalidPolicy, cfg.FineDailyRate, err)
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("%w: fine rate must not be negative", ErrInvalidPolicy)
	}

	return &Service{
		db:         db,
		loanPeriod: cfg.LoanPeriodDays,
		dailyRate:  rate,
		now:        time.Now,
	}, nil
}

// SetClock replaces the time source. Used by tests and tooling that need
// a fixed "today".
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Today returns the current calendar date at midnight UTC.
func (s *Service) Today() time.Time {
	return dateOf(s.now())
}

type BorrowResult struct {
	RecordID   uint      `json:"record_id"`
	BorrowerID string    `json:"borrower_id"`
	BookID     string    `json:"book_id"`
	BorrowDate time.Time `json:"borrow_date"`
	DueDate    time.Time `json:"due_date"`
}

type ReturnResult struct {
	RecordID     uint            `json:"record_id"`
	BorrowerID   string          `json:"borrower_id"`
	BookID       string          `json:"book_id"`
	ReturnDate   time.Time       `json:"return_date"`
	OverdueDays  int             `json:"overdue_days"`
	FineAmount   decimal.Decimal `json:"fine_amount"`
	FineRecordID *uint           `json:"fine_record_id"`
}

// Borrow opens a loan of bookID for borrowerID. It fails with
// ErrBookUnavailable when the book is missing or out of stock,
// ErrBorrowerInvalid when the borrower is missing or suspended, and
// ErrDuplicateLoan when the borrower already has the book. Nothing is
// written unless every step succeeds.
func (s *Service) Borrow(ctx context.Context, borrowerID, bookID string) (*BorrowResult, error) {
	today := s.Today()
	record := entities.BorrowingRecord{
		BorrowerID: borrowerID,
		BookID:     bookID,
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, s.loanPeriod),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		err := tx.Select("book_id", "current_stock").Where("book_id = ?", bookID).First(&book).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s does not exist", ErrBookUnavailable, bookID)
		}
		if err != nil {
			return err
		}
		if book.CurrentStock <= 0 {
			return fmt.Errorf("%w: no copies of %s on the shelf", ErrBookUnavailable, bookID)
		}

		var borrower entities.Borrower
		err = tx.Select("uid", "borrowing_status").Where("uid = ?", borrowerID).First(&borrower).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s does not exist", ErrBorrowerInvalid, borrowerID)
		}
		if err != nil {
			return err
		}
		if !borrower.CanBorrow() {
			return fmt.Errorf("%w: %s is %s", ErrBorrowerInvalid, borrowerID, borrower.BorrowingStatus)
		}

		var open int64
		err = tx.Model(&entities.BorrowingRecord{}).
			Where("borrower_id = ? AND book_id = ? AND return_date IS NULL", borrowerID, bookID).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrDuplicateLoan
		}

		taken := tx.Model(&entities.Book{}).
			Where("book_id = ? AND current_stock > 0", bookID).
			Update("current_stock", gorm.Expr("current_stock - 1"))
		if taken.Error != nil {
			return fmt.Errorf("failed to take copy: %w", taken.Error)
		}
		if taken.RowsAffected == 0 {
			return fmt.Errorf("%w: last copy of %s was just taken", ErrBookUnavailable, bookID)
		}

		err = tx.Create(&record).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateLoan
		}
		if err != nil {
			return fmt.Errorf("failed to create borrowing record: %w", err)
		}

		counted := tx.Model(&entities.Borrower{}).
			Where("uid = ? AND borrowing_status = ?", borrowerID, entities.BorrowingStatusActive).
			Update("borrowed_count", gorm.Expr("borrowed_count + 1"))
		if counted.Error != nil {
			return fmt.Errorf("failed to update borrower: %w", counted.Error)
		}
		if counted.RowsAffected == 0 {
			return fmt.Errorf("%w: %s was suspended", ErrBorrowerInvalid, borrowerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BorrowResult{
		RecordID:   record.RecordID,
		BorrowerID: record.BorrowerID,
		BookID:     record.BookID,
		BorrowDate: record.BorrowDate,
		DueDate:    record.DueDate,
	}, nil
}

// Return closes the open loan recordID, puts the copy back on the shelf
// and, when the loan is overdue, creates an unpaid fine. It fails with
// ErrRecordNotFound if no open loan has that id.
func (s *Service) Return(ctx context.Context, recordID uint) (*ReturnResult, error) {
	today := s.Today()
	result := &ReturnResult{RecordID: recordID, ReturnDate: today, FineAmount: decimal.Zero}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record entities.BorrowingRecord
		err := tx.Where("record_id = ? AND return_date IS NULL", recordID).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}

		result.BorrowerID = record.BorrowerID
		result.BookID = record.BookID
		result.OverdueDays = OverdueDays(record.DueDate, today)

		closed := tx.Model(&entities.BorrowingRecord{}).
			Where("record_id = ? AND return_date IS NULL", recordID).
			Update("return_date", today)
		if closed.Error != nil {
			return fmt.Errorf("failed to close record: %w", closed.Error)
		}
		if closed.RowsAffected == 0 {
			return ErrRecordNotFound
		}

		restocked := tx.Model(&entities.Book{}).
			Where("book_id = ? AND current_stock < total_stock", record.BookID).
			Update("current_stock", gorm.Expr("current_stock + 1"))
		if restocked.Error != nil {
			return fmt.Errorf("failed to restock book: %w", restocked.Error)
		}
		if restocked.RowsAffected == 0 {
			return fmt.Errorf("failed to restock book %s: shelf already full", record.BookID)
		}

		counted := tx.Model(&entities.Borrower{}).
			Where("uid = ? AND borrowed_count > 0", record.BorrowerID).
			Update("borrowed_count", gorm.Expr("borrowed_count - 1"))
		if counted.Error != nil {
			return fmt.Errorf("failed to update borrower: %w", counted.Error)
		}
		if counted.RowsAffected == 0 {
			return fmt.Errorf("failed to update borrower %s: no loans counted", record.BorrowerID)
		}

		if result.OverdueDays == 0 {
			return nil
		}

		result.FineAmount = s.FineFor(result.OverdueDays)
		fine := entities.FineRecord{
			BorrowerID:    record.BorrowerID,
			BookID:        record.BookID,
			RecordID:      &record.RecordID,
			BorrowDate:    record.BorrowDate,
			ReturnDate:    today,
			OverdueDays:   result.OverdueDays,
			FineAmount:    result.FineAmount,
			PaymentStatus: entities.PaymentStatusUnpaid,
		}
		if err := tx.Create(&fine).Error; err != nil {
			return fmt.Errorf("failed to create fine record: %w", err)
		}
		result.FineRecordID = &fine.FineID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Record returns a borrowing record by id, open or closed.
func (s *Service) Record(ctx context.Context, recordID uint) (*entities.BorrowingRecord, error) {
	var record entities.BorrowingRecord
	err := s.db.WithContext(ctx).Where("record_id = ?", recordID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FineFor returns the fine for the given number of overdue days.
func (s *Service) FineFor(overdueDays int) decimal.Decimal {
	if overdueDays <= 0 {
		return decimal.Zero
	}
	return s.dailyRate.Mul(decimal.NewFromInt(int64(overdueDays)))
}

// OverdueDays counts whole calendar days from due to returned, floored at
// zero. Both times are reduced to their UTC calendar date first.
func OverdueDays(due, returned time.Time) int {
	days := math.Floor(dateOf(returned).Sub(dateOf(due)).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return int(days)
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
