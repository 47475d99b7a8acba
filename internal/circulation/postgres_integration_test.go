//go:build integration
// +build integration

package circulation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/NayeyYe/BookManage/internal/circulation"
	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/database"
	"github.com/NayeyYe/BookManage/internal/database/borrowers"
	"github.com/NayeyYe/BookManage/internal/entities"
)

// setupPostgres starts a PostgreSQL container and opens the schema on it.
func setupPostgres(t *testing.T) *database.Database {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("library"),
		postgres.WithUsername("library"),
		postgres.WithPassword("library"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverPostgres,
		DSN:      connStr,
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *database.Database, borrowerCount, stock int) {
	t.Helper()
	require.NoError(t, db.DB.Create(&entities.Book{BookID: "PG1", Title: "Postgres", TotalStock: stock, CurrentStock: stock}).Error)
	for i := 0; i < borrowerCount; i++ {
		require.NoError(t, db.DB.Create(&entities.Borrower{
			UID:              fmt.Sprintf("pg%d", i),
			Name:             "Reader",
			IdentityType:     entities.IdentityStudent,
			RegistrationDate: time.Now().UTC(),
			BorrowingStatus:  entities.BorrowingStatusActive,
		}).Error)
	}
}

func TestPostgres_ConcurrentLastCopy(t *testing.T) {
	db := setupPostgres(t)
	seed(t, db, 10, 1)

	svc, err := circulation.NewService(db.DB, config.Circulation{LoanPeriodDays: 30, FineDailyRate: "0.5"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, unavailable := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := svc.Borrow(context.Background(), uid, "PG1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, circulation.ErrBookUnavailable):
				unavailable++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("pg%d", i))
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 9, unavailable)

	var book entities.Book
	require.NoError(t, db.DB.First(&book, "book_id = ?", "PG1").Error)
	assert.Equal(t, 0, book.CurrentStock)
}

func TestPostgres_ConcurrentDuplicateLoan(t *testing.T) {
	db := setupPostgres(t)
	seed(t, db, 1, 5)

	svc, err := circulation.NewService(db.DB, config.Circulation{LoanPeriodDays: 30, FineDailyRate: "0.5"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Borrow(context.Background(), "pg0", "PG1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, circulation.ErrDuplicateLoan)
	}
	assert.Equal(t, 1, successes)

	profile, err := borrowers.NewRepository(db.DB).GetBorrower(context.Background(), "pg0")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.BorrowedCount)

	var book entities.Book
	require.NoError(t, db.DB.First(&book, "book_id = ?", "PG1").Error)
	assert.Equal(t, 4, book.CurrentStock)
}

func TestPostgres_DeleteCascadeIsAtomic(t *testing.T) {
	db := setupPostgres(t)
	seed(t, db, 1, 2)
	ctx := context.Background()

	svc, err := circulation.NewService(db.DB, config.Circulation{LoanPeriodDays: 30, FineDailyRate: "0.5"})
	require.NoError(t, err)
	_, err = svc.Borrow(ctx, "pg0", "PG1")
	require.NoError(t, err)

	require.NoError(t, borrowers.NewRepository(db.DB).DeleteCascade(ctx, "pg0"))

	var records int64
	require.NoError(t, db.DB.Model(&entities.BorrowingRecord{}).Where("borrower_id = ?", "pg0").Count(&records).Error)
	assert.Zero(t, records)

	var book entities.Book
	require.NoError(t, db.DB.First(&book, "book_id = ?", "PG1").Error)
	assert.Equal(t, 2, book.CurrentStock)
}
