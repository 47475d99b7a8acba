package importers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/NayeyYe/BookManage/internal/database/books"
	"github.com/NayeyYe/BookManage/internal/entities"
)

// CatalogRow represents a single book from a catalog CSV file.
type CatalogRow struct {
	Line            int
	BookID          string
	Title           string
	ISBN            string
	PublisherID     string
	PublisherName   string
	PublicationYear int
	TotalStock      int
	Location        string
	Authors         []string
}

// ParseCatalogCSV parses a catalog CSV file.
// Returns the parsed rows, any parse errors encountered, and a fatal error if parsing fails completely.
func ParseCatalogCSV(r io.Reader) ([]CatalogRow, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	for _, h := range []string{"book_id", "title"} {
		if _, ok := headerIndex[h]; !ok {
			return nil, nil, fmt.Errorf("missing required header: %s", h)
		}
	}

	var rows []CatalogRow
	var problems []string
	lineNum := 1 // header already read

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}

		row := CatalogRow{
			Line:          lineNum,
			BookID:        getCSVValue(record, headerIndex, "book_id"),
			Title:         getCSVValue(record, headerIndex, "title"),
			ISBN:          getCSVValue(record, headerIndex, "isbn"),
			PublisherID:   getCSVValue(record, headerIndex, "publisher_id"),
			PublisherName: getCSVValue(record, headerIndex, "publisher"),
			Location:      getCSVValue(record, headerIndex, "location"),
			Authors:       splitAuthors(getCSVValue(record, headerIndex, "authors")),
		}
		if row.PublisherID == "" {
			row.PublisherID = row.PublisherName
		}

		if row.BookID == "" || row.Title == "" {
			problems = append(problems, fmt.Sprintf("Line %d: skipped - missing book_id or title", lineNum))
			continue
		}

		if row.PublicationYear, err = parseOptionalInt(getCSVValue(record, headerIndex, "publication_year")); err != nil {
			problems = append(problems, fmt.Sprintf("Line %d: skipped - invalid publication_year: %v", lineNum, err))
			continue
		}
		if row.TotalStock, err = parseOptionalInt(getCSVValue(record, headerIndex, "total_stock")); err != nil || row.TotalStock < 0 {
			problems = append(problems, fmt.Sprintf("Line %d: skipped - total_stock must be a non-negative integer", lineNum))
			continue
		}

		rows = append(rows, row)
	}

	return rows, problems, nil
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func parseOptionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func splitAuthors(raw string) []string {
	var authors []string
	for _, name := range strings.Split(raw, ";") {
		if name = strings.TrimSpace(name); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// CatalogStore is the part of books.Repository the importer needs.
type CatalogStore interface {
	CreateBook(ctx context.Context, book *entities.Book, authors []string) error
	UpsertPublisher(ctx context.Context, publisherID, name string) (*entities.Publisher, error)
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Created int
	Skipped int
	Failed  int
	Errors  []string
}

// Importer writes parsed catalog rows through a CatalogStore.
type Importer struct {
	store  CatalogStore
	dryRun bool
}

func NewImporter(store CatalogStore, dryRun bool) *Importer {
	return &Importer{store: store, dryRun: dryRun}
}

// Import creates a book for every row. New books start with every copy on
// the shelf. Existing book IDs are skipped.
func (i *Importer) Import(ctx context.Context, rows []CatalogRow) (ImportResult, error) {
	var result ImportResult
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if i.dryRun {
			result.Created++
			continue
		}

		var publisherID *string
		if row.PublisherID != "" {
			name := row.PublisherName
			if name == "" {
				name = row.PublisherID
			}
			if _, err := i.store.UpsertPublisher(ctx, row.PublisherID, name); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("Line %d: publisher %s: %v", row.Line, row.PublisherID, err))
				continue
			}
			publisherID = &row.PublisherID
		}

		book := &entities.Book{
			BookID:          row.BookID,
			Title:           row.Title,
			ISBN:            row.ISBN,
			PublisherID:     publisherID,
			PublicationYear: row.PublicationYear,
			TotalStock:      row.TotalStock,
			CurrentStock:    row.TotalStock,
			Location:        row.Location,
		}
		err := i.store.CreateBook(ctx, book, row.Authors)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, books.ErrBookExists):
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: book %s: %v", row.Line, row.BookID, err))
		}
	}
	return result, nil
}
