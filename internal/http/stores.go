package http

import (
	"context"
	"time"

	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/circulation"
	"github.com/NayeyYe/BookManage/internal/database/books"
	"github.com/NayeyYe/BookManage/internal/entities"
)

// This file consolidates the interfaces HTTP controllers depend on. The
// concrete implementations live in internal/database/*, internal/auth and
// internal/circulation.

// BookStore is the catalog as seen by BooksController.
type BookStore interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
	GetBook(ctx context.Context, bookID string) (*entities.Book, error)
	SearchBooks(ctx context.Context, query string) ([]entities.Book, error)
	CreateBook(ctx context.Context, book *entities.Book, authors []string) error
	UpdateBook(ctx context.Context, bookID string, update books.BookUpdate) (*entities.Book, error)
	DeleteBook(ctx context.Context, bookID string) error
}

type BorrowerStore interface {
	GetBorrower(ctx context.Context, uid string) (*entities.BorrowerProfile, error)
	ListBorrowers(ctx context.Context) ([]entities.BorrowerProfile, error)
	UpdateProfile(ctx context.Context, uid, name, phone string) (*entities.BorrowerProfile, error)
	SetStatus(ctx context.Context, uid string, status entities.BorrowingStatus) error
	DeleteCascade(ctx context.Context, uid string) error
	BorrowingRecordsFor(ctx context.Context, uid string) ([]entities.BorrowingRecordView, error)
	FineRecordsFor(ctx context.Context, uid string) ([]entities.FineRecordView, error)
}

type RecordStore interface {
	ListBorrowingRecords(ctx context.Context, borrowerID string) ([]entities.BorrowingRecordView, error)
	ListFineRecords(ctx context.Context, borrowerID string) ([]entities.FineRecordView, error)
	PayFine(ctx context.Context, fineID uint, paidAt time.Time) (*entities.FineRecord, error)
	Stats(ctx context.Context, today time.Time) (*entities.LibraryStats, error)
}

// UserTypeStore lists identity types. Satisfied by *database.Database.
type UserTypeStore interface {
	GetUserTypes(ctx context.Context) ([]entities.UserType, error)
}

type LoginLogStore interface {
	List(ctx context.Context, limit int) ([]entities.LoginLogView, error)
}

// Circulation opens and closes loans.
type Circulation interface {
	Borrow(ctx context.Context, borrowerID, bookID string) (*circulation.BorrowResult, error)
	Return(ctx context.Context, recordID uint) (*circulation.ReturnResult, error)
	Record(ctx context.Context, recordID uint) (*entities.BorrowingRecord, error)
	Today() time.Time
}

// Accounts covers registration, login and the admin capability.
type Accounts interface {
	Register(ctx context.Context, input auth.RegisterInput) (*entities.BorrowerProfile, error)
	Login(ctx context.Context, uid, password, ip string) (*auth.LoginResult, error)
	RecordLockout(ctx context.Context, uid, ip string)
	SetAdmin(ctx context.Context, uid string, admin bool) error
	ChangePassword(ctx context.Context, uid, oldPassword, newPassword string) error
}
