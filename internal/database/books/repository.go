// Package books provides database operations for the catalog: books, their
// authors, and publishers.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBook(ctx, "B001")
//	results, err := repo.SearchBooks(ctx, "gatsby")
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/NayeyYe/BookManage/internal/entities"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrBookExists        = errors.New("book already exists")
	ErrBookOnLoan        = errors.New("book has copies on loan")
	ErrInvalidStock      = errors.New("current stock must be between 0 and total stock")
	ErrPublisherNotFound = errors.New("publisher not found")
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// BookUpdate carries the editable fields of a book. Stock is expressed as
// the new total; copies on loan stay on loan, so the shelf count moves by
// the same delta.
type BookUpdate struct {
	Title           string
	ISBN            string
	PublisherID     *string
	PublicationYear int
	TotalStock      int
	Location        string
	Authors         []string
}

func (r *Repository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Publisher").Preload("Authors", func(db *gorm.DB) *gorm.DB {
		return db.Order("author_name ASC")
	})
}

// ListBooks returns the whole catalog ordered by title.
func (r *Repository) ListBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.withDetails(r.db.WithContext(ctx)).Order("title ASC").Find(&books).Error
	return books, err
}

func (r *Repository) GetBook(ctx context.Context, bookID string) (*entities.Book, error) {
	var book entities.Book
	err := r.withDetails(r.db.WithContext(ctx)).Where("book_id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook inserts a book and links it to the named authors, creating
// authors that do not exist yet.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book, authors []string) error {
	if book.TotalStock < 0 || book.CurrentStock < 0 || book.CurrentStock > book.TotalStock {
		return ErrInvalidStock
	}
	book.PublisherID = normalizeID(book.PublisherID)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPublisher(tx, book.PublisherID); err != nil {
			return err
		}

		err := tx.Omit("Authors", "Publisher").Create(book).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrBookExists, book.BookID)
		}
		if err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}

		return linkAuthors(tx, book, authors)
	})
}

// UpdateBook applies update to an existing book. Shrinking the total below
// the number of copies currently on loan fails with ErrInvalidStock.
func (r *Repository) UpdateBook(ctx context.Context, bookID string, update BookUpdate) (*entities.Book, error) {
	if update.TotalStock < 0 {
		return nil, ErrInvalidStock
	}
	update.PublisherID = normalizeID(update.PublisherID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPublisher(tx, update.PublisherID); err != nil {
			return err
		}

		var book entities.Book
		if err := tx.Where("book_id = ?", bookID).First(&book).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}

		// The stock columns are moved in one conditional statement so a
		// concurrent borrow or return cannot be lost between read and write.
		result := tx.Model(&entities.Book{}).
			Where("book_id = ? AND current_stock + (? - total_stock) >= 0", bookID, update.TotalStock).
			Updates(map[string]interface{}{
				"title":            update.Title,
				"isbn":             update.ISBN,
				"publisher_id":     update.PublisherID,
				"publication_year": update.PublicationYear,
				"location":         update.Location,
				"current_stock":    gorm.Expr("current_stock + (? - total_stock)", update.TotalStock),
				"total_stock":      update.TotalStock,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInvalidStock
		}

		if update.Authors != nil {
			if err := tx.Where("book_id = ?", bookID).Delete(&entities.BookAuthor{}).Error; err != nil {
				return fmt.Errorf("failed to clear authors: %w", err)
			}
			return linkAuthors(tx, &book, update.Authors)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetBook(ctx, bookID)
}

// DeleteBook removes a book. Books with open loans cannot be deleted;
// closed loan history and fines for the book go with it.
func (r *Repository) DeleteBook(ctx context.Context, bookID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Touch the row first so a concurrent borrow of this book has
		// either committed or waits for us before open loans are counted.
		lock := tx.Model(&entities.Book{}).Where("book_id = ?", bookID).
			Update("current_stock", gorm.Expr("current_stock"))
		if lock.Error != nil {
			return lock.Error
		}
		if lock.RowsAffected == 0 {
			return ErrBookNotFound
		}

		var open int64
		err := tx.Model(&entities.BorrowingRecord{}).
			Where("book_id = ? AND return_date IS NULL", bookID).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: %d open loans", ErrBookOnLoan, open)
		}

		if err := tx.Where("book_id = ?", bookID).Delete(&entities.BookAuthor{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", bookID).Delete(&entities.FineRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", bookID).Delete(&entities.BorrowingRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("book_id = ?", bookID).Delete(&entities.Book{}).Error
	})
}

// SearchBooks performs a case-insensitive substring match across title,
// ISBN and author names. Wildcards in query are matched literally.
func (r *Repository) SearchBooks(ctx context.Context, query string) ([]entities.Book, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	matching := r.db.Table("books").
		Select("DISTINCT books.book_id").
		Joins("LEFT JOIN book_authors ON book_authors.book_id = books.book_id").
		Joins("LEFT JOIN authors ON authors.author_id = book_authors.author_id").
		Where(`LOWER(books.title) LIKE ? ESCAPE '\' OR LOWER(books.isbn) LIKE ? ESCAPE '\' OR LOWER(authors.author_name) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern)

	var books []entities.Book
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("book_id IN (?)", matching).
		Order("title ASC").
		Find(&books).Error
	return books, err
}

func (r *Repository) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// UpsertPublisher creates the publisher if it is missing and returns it.
func (r *Repository) UpsertPublisher(ctx context.Context, publisherID, name string) (*entities.Publisher, error) {
	publisher := entities.Publisher{PublisherID: publisherID, PublisherName: name}
	err := r.db.WithContext(ctx).
		Where(entities.Publisher{PublisherID: publisherID}).
		FirstOrCreate(&publisher).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert publisher: %w", err)
	}
	return &publisher, nil
}

func checkPublisher(tx *gorm.DB, publisherID *string) error {
	if publisherID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&entities.Publisher{}).Where("publisher_id = ?", *publisherID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrPublisherNotFound, *publisherID)
	}
	return nil
}

func linkAuthors(tx *gorm.DB, book *entities.Book, names []string) error {
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		author := entities.Author{AuthorName: name}
		if err := tx.Where(entities.Author{AuthorName: name}).FirstOrCreate(&author).Error; err != nil {
			return fmt.Errorf("failed to resolve author %q: %w", name, err)
		}
		link := entities.BookAuthor{BookID: book.BookID, AuthorID: author.AuthorID}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to link author %q: %w", name, err)
		}
	}
	return nil
}

func normalizeID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	return &trimmed
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
