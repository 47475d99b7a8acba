package records

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/database"
	"github.com/NayeyYe/BookManage/internal/entities"
)

var today = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_records_" + t.Name() + ".db"

	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     dbPath,
		LogLevel: "silent",
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return NewRepository(db.DB), db.DB, cleanup
}

// seedHistory creates two borrowers with one open loan, one overdue open
// loan, one returned loan, and an unpaid and a paid fine.
func seedHistory(t *testing.T, db *gorm.DB) (unpaidID, paidID uint) {
	require.NoError(t, db.Create(&[]entities.Book{
		{BookID: "B1", Title: "Alpha", TotalStock: 2, CurrentStock: 1},
		{BookID: "B2", Title: "Beta", TotalStock: 1, CurrentStock: 0},
	}).Error)
	require.NoError(t, db.Create(&[]entities.Borrower{
		{UID: "u1", Name: "Ann", IdentityType: entities.IdentityStudent, RegistrationDate: today, BorrowingStatus: entities.BorrowingStatusActive, BorrowedCount: 1},
		{UID: "u2", Name: "Bob", IdentityType: entities.IdentityTeacher, RegistrationDate: today, BorrowingStatus: entities.BorrowingStatusActive, BorrowedCount: 1},
	}).Error)

	returned := today.AddDate(0, 0, -1)
	require.NoError(t, db.Create(&[]entities.BorrowingRecord{
		{BorrowerID: "u1", BookID: "B1", BorrowDate: today.AddDate(0, 0, -3), DueDate: today.AddDate(0, 0, 27)},
		{BorrowerID: "u2", BookID: "B2", BorrowDate: today.AddDate(0, 0, -40), DueDate: today.AddDate(0, 0, -10)},
		{BorrowerID: "u1", BookID: "B2", BorrowDate: today.AddDate(0, 0, -60), DueDate: today.AddDate(0, 0, -30), ReturnDate: &returned},
	}).Error)

	unpaid := entities.FineRecord{
		BorrowerID: "u1", BookID: "B2", BorrowDate: today.AddDate(0, 0, -60), ReturnDate: returned,
		OverdueDays: 29, FineAmount: decimal.RequireFromString("14.5"), PaymentStatus: entities.PaymentStatusUnpaid,
	}
	paid := entities.FineRecord{
		BorrowerID: "u2", BookID: "B1", BorrowDate: today.AddDate(0, 0, -90), ReturnDate: today.AddDate(0, 0, -50),
		OverdueDays: 10, FineAmount: decimal.RequireFromString("5"), PaymentStatus: entities.PaymentStatusPaid,
	}
	require.NoError(t, db.Create(&unpaid).Error)
	require.NoError(t, db.Create(&paid).Error)
	return unpaid.FineID, paid.FineID
}

func TestRepository_ListBorrowingRecords(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	seedHistory(t, db)

	all, err := repo.ListBorrowingRecords(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha", all[0].BookTitle)
	assert.Equal(t, "Ann", all[0].BorrowerName)
	assert.Nil(t, all[0].ReturnDate)

	mine, err := repo.ListBorrowingRecords(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, entities.IdentityTeacher, mine[0].IdentityType)
}

func TestRepository_ListFineRecords(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	seedHistory(t, db)

	all, err := repo.ListFineRecords(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Beta", all[0].BookTitle)
	assert.True(t, decimal.RequireFromString("14.5").Equal(all[0].FineAmount))

	mine, err := repo.ListFineRecords(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, entities.PaymentStatusPaid, mine[0].PaymentStatus)
}

func TestRepository_PayFine(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	unpaidID, paidID := seedHistory(t, db)

	fine, err := repo.PayFine(context.Background(), unpaidID, today)
	require.NoError(t, err)
	assert.Equal(t, entities.PaymentStatusPaid, fine.PaymentStatus)
	require.NotNil(t, fine.PaidAt)

	_, err = repo.PayFine(context.Background(), unpaidID, today)
	assert.ErrorIs(t, err, ErrFineAlreadyPaid)

	_, err = repo.PayFine(context.Background(), paidID, today)
	assert.ErrorIs(t, err, ErrFineAlreadyPaid)

	_, err = repo.PayFine(context.Background(), 9999, today)
	assert.ErrorIs(t, err, ErrFineNotFound)
}

func TestRepository_Stats(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	seedHistory(t, db)

	stats, err := repo.Stats(context.Background(), today)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Books)
	assert.Equal(t, int64(3), stats.Copies)
	assert.Equal(t, int64(1), stats.CopiesOnShelf)
	assert.Equal(t, int64(2), stats.Borrowers)
	assert.Equal(t, int64(2), stats.OpenLoans)
	assert.Equal(t, int64(1), stats.OverdueLoans)
	assert.Equal(t, int64(1), stats.UnpaidFines)
	assert.True(t, decimal.RequireFromString("14.5").Equal(stats.UnpaidTotal))
}

func TestRepository_Stats_Empty(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	stats, err := repo.Stats(context.Background(), today)
	require.NoError(t, err)

	assert.Zero(t, stats.Books)
	assert.True(t, stats.UnpaidTotal.IsZero())
}
