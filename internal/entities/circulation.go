package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// BorrowingRecord is one loan. A nil ReturnDate means the loan is open.
// At most one open record may exist per (borrower, book); the database
// enforces this with a partial unique index.
type BorrowingRecord struct {
	RecordID   uint       `gorm:"primaryKey" json:"record_id"`
	BorrowerID string     `gorm:"index;size:64;not null" json:"borrower_id"`
	Borrower   *Borrower  `gorm:"foreignKey:BorrowerID;references:UID" json:"-"`
	BookID     string     `gorm:"index;size:64;not null" json:"book_id"`
	BorrowDate time.Time  `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time  `gorm:"index;not null" json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
}

func (r *BorrowingRecord) IsOpen() bool {
	return r.ReturnDate == nil
}

// FineRecord is created when a loan comes back late. RecordID points at
// the originating loan; it is a plain column so loans can be purged
// independently of fines.
type FineRecord struct {
	FineID        uint            `gorm:"primaryKey" json:"fine_id"`
	BorrowerID    string          `gorm:"index;size:64;not null" json:"borrower_id"`
	Borrower      *Borrower       `gorm:"foreignKey:BorrowerID;references:UID" json:"-"`
	BookID        string          `gorm:"index;size:64;not null" json:"book_id"`
	RecordID      *uint           `gorm:"index" json:"record_id,omitempty"`
	BorrowDate    time.Time       `gorm:"not null" json:"borrow_date"`
	ReturnDate    time.Time       `gorm:"not null" json:"return_date"`
	OverdueDays   int             `gorm:"not null" json:"overdue_days"`
	FineAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"fine_amount"`
	PaymentStatus PaymentStatus   `gorm:"size:16;not null;default:unpaid;index" json:"payment_status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

// BorrowingRecordView is a loan joined with the book title and borrower.
type BorrowingRecordView struct {
	RecordID     uint       `json:"record_id"`
	BorrowerID   string     `json:"borrower_id"`
	BookID       string     `json:"book_id"`
	BorrowDate   time.Time  `json:"borrow_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date"`
	BookTitle    string     `json:"book_title"`
	BorrowerName string     `json:"borrower_name,omitempty"`
	IdentityType uint       `json:"identity_type,omitempty"`
}

type FineRecordView struct {
	FineID        uint            `json:"fine_id"`
	BorrowerID    string          `json:"borrower_id"`
	BookID        string          `json:"book_id"`
	RecordID      *uint           `json:"record_id,omitempty"`
	BorrowDate    time.Time       `json:"borrow_date"`
	ReturnDate    time.Time       `json:"return_date"`
	OverdueDays   int             `json:"overdue_days"`
	FineAmount    decimal.Decimal `json:"fine_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	BookTitle     string          `json:"book_title"`
	BorrowerName  string          `json:"borrower_name,omitempty"`
}

// LibraryStats backs the admin dashboard counters.
type LibraryStats struct {
	Books         int64           `json:"books"`
	Copies        int64           `json:"copies"`
	CopiesOnShelf int64           `json:"copies_on_shelf"`
	Borrowers     int64           `json:"borrowers"`
	OpenLoans     int64           `json:"open_loans"`
	OverdueLoans  int64           `json:"overdue_loans"`
	UnpaidFines   int64           `json:"unpaid_fines"`
	UnpaidTotal   decimal.Decimal `json:"unpaid_total"`
}
