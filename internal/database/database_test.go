package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("seeds user types once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.db")
		cfg := config.Database{Driver: config.DriverSQLite, Path: path, LogLevel: "silent"}

		db, err := NewDatabase(cfg)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db, err = NewDatabase(cfg)
		require.NoError(t, err)
		defer db.Close()

		types, err := db.GetUserTypes(context.Background())
		require.NoError(t, err)
		require.Len(t, types, 4)
		assert.Equal(t, entities.IdentityStudent, types[0].TypeID)
		assert.Equal(t, "Administrator", types[3].TypeName)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := NewDatabase(config.Database{Driver: "oracle"})
		assert.ErrorIs(t, err, ErrUnsupportedDriver)
	})

	t.Run("postgres requires a dsn", func(t *testing.T) {
		_, err := NewDatabase(config.Database{Driver: config.DriverPostgres})
		assert.ErrorIs(t, err, ErrUnsupportedDriver)
	})

	t.Run("ping", func(t *testing.T) {
		db := setupTestDB(t)
		assert.NoError(t, db.Ping(context.Background()))
	})

	t.Run("closes the connection when migration fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.db")
		gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		require.NoError(t, err)
		require.NoError(t, gdb.Exec("CREATE VIEW user_types AS SELECT 1 AS type_id").Error)
		sqlDB, err := gdb.DB()
		require.NoError(t, err)

		_, err = initialize(gdb, "sqlite "+path)
		require.Error(t, err)
		assert.ErrorContains(t, sqlDB.Ping(), "database is closed")
	})
}

func tableSQL(t *testing.T, db *Database, table string) string {
	t.Helper()
	var ddl string
	err := db.DB.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&ddl).Error
	require.NoError(t, err)
	require.NotEmpty(t, ddl, "table %s missing", table)
	return ddl
}

func TestSchemaForeignKeys(t *testing.T) {
	db := setupTestDB(t)

	t.Run("books reference publishers only", func(t *testing.T) {
		ddl := tableSQL(t, db, "books")
		assert.Contains(t, ddl, "REFERENCES `publishers`")
		assert.NotContains(t, ddl, "borrowing_records")
		assert.NotContains(t, ddl, "fine_records")
	})

	t.Run("publishers reference nothing", func(t *testing.T) {
		assert.NotContains(t, tableSQL(t, db, "publishers"), "REFERENCES")
	})

	t.Run("loans and fines reference books and borrowers", func(t *testing.T) {
		for _, table := range []string{"borrowing_records", "fine_records"} {
			ddl := tableSQL(t, db, table)
			assert.Contains(t, ddl, "REFERENCES `books`", table)
			assert.Contains(t, ddl, "REFERENCES `borrowers`", table)
		}
	})

	t.Run("catalog rows insert on a fresh database", func(t *testing.T) {
		publisherID := "P1"
		require.NoError(t, db.DB.Create(&entities.Publisher{PublisherID: publisherID, PublisherName: "Scribner"}).Error)
		require.NoError(t, db.DB.Create(&entities.Book{
			BookID:       "B1",
			Title:        "One",
			PublisherID:  &publisherID,
			TotalStock:   1,
			CurrentStock: 1,
		}).Error)

		var book entities.Book
		require.NoError(t, db.DB.Preload("Publisher").First(&book, "book_id = ?", "B1").Error)
		require.NotNil(t, book.Publisher)
		assert.Equal(t, "Scribner", book.Publisher.PublisherName)
	})

	t.Run("unknown publisher is rejected", func(t *testing.T) {
		missing := "nope"
		err := db.DB.Create(&entities.Book{BookID: "B2", Title: "Two", PublisherID: &missing}).Error
		assert.Error(t, err)
	})
}

func TestSchemaConstraints(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.DB.Create(&entities.Book{BookID: "B1", Title: "One", TotalStock: 1, CurrentStock: 1}).Error)
	require.NoError(t, db.DB.Create(&entities.Borrower{
		UID:              "u1",
		Name:             "Reader",
		IdentityType:     entities.IdentityStudent,
		RegistrationDate: time.Now().UTC(),
	}).Error)

	t.Run("current stock cannot exceed total", func(t *testing.T) {
		err := db.DB.Model(&entities.Book{}).Where("book_id = ?", "B1").Update("current_stock", 2).Error
		assert.Error(t, err)
	})

	t.Run("current stock cannot go negative", func(t *testing.T) {
		err := db.DB.Model(&entities.Book{}).Where("book_id = ?", "B1").Update("current_stock", -1).Error
		assert.Error(t, err)
	})

	t.Run("borrowed count cannot go negative", func(t *testing.T) {
		err := db.DB.Model(&entities.Borrower{}).Where("uid = ?", "u1").Update("borrowed_count", -1).Error
		assert.Error(t, err)
	})

	t.Run("status defaults to active", func(t *testing.T) {
		var borrower entities.Borrower
		require.NoError(t, db.DB.First(&borrower, "uid = ?", "u1").Error)
		assert.Equal(t, entities.BorrowingStatusActive, borrower.BorrowingStatus)
	})

	t.Run("one open loan per borrower and book", func(t *testing.T) {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		open := entities.BorrowingRecord{BorrowerID: "u1", BookID: "B1", BorrowDate: today, DueDate: today.AddDate(0, 0, 30)}
		require.NoError(t, db.DB.Create(&open).Error)

		dup := entities.BorrowingRecord{BorrowerID: "u1", BookID: "B1", BorrowDate: today, DueDate: today.AddDate(0, 0, 30)}
		err := db.DB.Create(&dup).Error
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

		require.NoError(t, db.DB.Model(&open).Update("return_date", today).Error)
		closedAgain := entities.BorrowingRecord{BorrowerID: "u1", BookID: "B1", BorrowDate: today, DueDate: today.AddDate(0, 0, 30)}
		assert.NoError(t, db.DB.Create(&closedAgain).Error)
	})
}
