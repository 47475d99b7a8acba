package books

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/database"
	"github.com/NayeyYe/BookManage/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *database.Database, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

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

	return NewRepository(db.DB), db, cleanup
}

func newBook(id, title string, stock int) *entities.Book {
	return &entities.Book{
		BookID:       id,
		Title:        title,
		ISBN:         "978-" + id,
		TotalStock:   stock,
		CurrentStock: stock,
		Location:     "A-1",
	}
}

func TestRepository_CreateAndGetBook(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.UpsertPublisher(ctx, "scribner", "Scribner")
	require.NoError(t, err)

	book := newBook("B001", "The Great Gatsby", 3)
	publisher := "scribner"
	book.PublisherID = &publisher
	require.NoError(t, repo.CreateBook(ctx, book, []string{"F. Scott Fitzgerald"}))

	got, err := repo.GetBook(ctx, "B001")
	require.NoError(t, err)
	assert.Equal(t, "The Great Gatsby", got.Title)
	assert.Equal(t, 3, got.CurrentStock)
	require.NotNil(t, got.Publisher)
	assert.Equal(t, "Scribner", got.Publisher.PublisherName)
	require.Len(t, got.Authors, 1)
	assert.Equal(t, "F. Scott Fitzgerald", got.Authors[0].AuthorName)
}

func TestRepository_CreateBook_Duplicate(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, newBook("B001", "First", 1), nil))
	err := repo.CreateBook(ctx, newBook("B001", "Second", 1), nil)

	assert.ErrorIs(t, err, ErrBookExists)
}

func TestRepository_CreateBook_InvalidStock(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	book := newBook("B001", "Too Many", 1)
	book.CurrentStock = 2

	assert.ErrorIs(t, repo.CreateBook(context.Background(), book, nil), ErrInvalidStock)
}

func TestRepository_CreateBook_UnknownPublisher(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	book := newBook("B001", "Orphan", 1)
	missing := "nobody"
	book.PublisherID = &missing

	assert.ErrorIs(t, repo.CreateBook(context.Background(), book, nil), ErrPublisherNotFound)
}

func TestRepository_GetBook_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetBook(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_UpdateBook_ShiftsShelfStock(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, newBook("B001", "Dune", 3), []string{"Frank Herbert"}))
	// One copy is out on loan.
	require.NoError(t, db.DB.Model(&entities.Book{}).Where("book_id = ?", "B001").
		Update("current_stock", 2).Error)

	updated, err := repo.UpdateBook(ctx, "B001", BookUpdate{
		Title:      "Dune (Deluxe)",
		ISBN:       "978-0441013593",
		TotalStock: 5,
		Location:   "B-2",
		Authors:    []string{"Frank Herbert", "Brian Herbert"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Dune (Deluxe)", updated.Title)
	assert.Equal(t, 5, updated.TotalStock)
	assert.Equal(t, 4, updated.CurrentStock)
	assert.Len(t, updated.Authors, 2)

	_, err = repo.UpdateBook(ctx, "B001", BookUpdate{Title: "Dune", TotalStock: 0})
	assert.ErrorIs(t, err, ErrInvalidStock)
}

func TestRepository_UpdateBook_NotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.UpdateBook(context.Background(), "missing", BookUpdate{Title: "x", TotalStock: 1})

	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_DeleteBook(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, newBook("B001", "Loaned", 2), nil))
	require.NoError(t, repo.CreateBook(ctx, newBook("B002", "Returned", 2), []string{"Someone"}))
	require.NoError(t, db.DB.Create(&entities.Borrower{
		UID: "u1", Name: "Reader", IdentityType: entities.IdentityStudent,
		RegistrationDate: time.Now(), BorrowingStatus: entities.BorrowingStatusActive,
	}).Error)

	now := time.Now().UTC()
	require.NoError(t, db.DB.Create(&entities.BorrowingRecord{
		BorrowerID: "u1", BookID: "B001", BorrowDate: now, DueDate: now.AddDate(0, 0, 30),
	}).Error)
	require.NoError(t, db.DB.Create(&entities.BorrowingRecord{
		BorrowerID: "u1", BookID: "B002", BorrowDate: now, DueDate: now, ReturnDate: &now,
	}).Error)

	assert.ErrorIs(t, repo.DeleteBook(ctx, "B001"), ErrBookOnLoan)
	assert.ErrorIs(t, repo.DeleteBook(ctx, "missing"), ErrBookNotFound)

	require.NoError(t, repo.DeleteBook(ctx, "B002"))
	_, err := repo.GetBook(ctx, "B002")
	assert.ErrorIs(t, err, ErrBookNotFound)

	var history int64
	require.NoError(t, db.DB.Model(&entities.BorrowingRecord{}).Where("book_id = ?", "B002").Count(&history).Error)
	assert.Zero(t, history)
}

func TestRepository_SearchBooks(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, newBook("B001", "The Great Gatsby", 1), []string{"F. Scott Fitzgerald"}))
	require.NoError(t, repo.CreateBook(ctx, newBook("B002", "Tender Is the Night", 1), []string{"F. Scott Fitzgerald"}))
	require.NoError(t, repo.CreateBook(ctx, newBook("B003", "100% Go", 1), []string{"Gopher"}))

	byTitle, err := repo.SearchBooks(ctx, "GATSBY")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "B001", byTitle[0].BookID)

	byAuthor, err := repo.SearchBooks(ctx, "fitzgerald")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	byISBN, err := repo.SearchBooks(ctx, "978-B003")
	require.NoError(t, err)
	assert.Len(t, byISBN, 1)

	literal, err := repo.SearchBooks(ctx, "%")
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "B003", literal[0].BookID)

	none, err := repo.SearchBooks(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_ListAndCountBooks(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.CreateBook(ctx, newBook("B002", "Zebra", 1), nil))
	require.NoError(t, repo.CreateBook(ctx, newBook("B001", "Aardvark", 1), nil))

	list, err := repo.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Aardvark", list[0].Title)

	count, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
