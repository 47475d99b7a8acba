package importers

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/database"
	"github.com/NayeyYe/BookManage/internal/database/books"
)

const sampleCatalog = `book_id,title,isbn,publisher,publication_year,total_stock,location,authors
B001,The Go Programming Language,978-0134190440,Addison-Wesley,2015,3,A-1,Alan Donovan; Brian Kernighan
B002,"Concurrency in Go",978-1491941195,O'Reilly,2017,2,A-2,Katherine Cox-Buday
,No ID,,,,1,,
B003,Bad Stock,,,,-4,,
B004,Bad Year,,,nineteen,1,,
B005,Minimal,,,,,,
`

func TestParseCatalogCSV(t *testing.T) {
	rows, problems, err := ParseCatalogCSV(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Len(t, problems, 3)

	first := rows[0]
	assert.Equal(t, "B001", first.BookID)
	assert.Equal(t, "Addison-Wesley", first.PublisherID)
	assert.Equal(t, 2015, first.PublicationYear)
	assert.Equal(t, 3, first.TotalStock)
	assert.Equal(t, []string{"Alan Donovan", "Brian Kernighan"}, first.Authors)
	assert.Equal(t, 2, first.Line)

	minimal := rows[2]
	assert.Equal(t, "B005", minimal.BookID)
	assert.Zero(t, minimal.TotalStock)
	assert.Empty(t, minimal.Authors)
	assert.Empty(t, minimal.PublisherID)
}

func TestParseCatalogCSV_MissingHeader(t *testing.T) {
	_, _, err := ParseCatalogCSV(strings.NewReader("title,isbn\nX,1\n"))
	assert.ErrorContains(t, err, "book_id")

	_, _, err = ParseCatalogCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestImporter_Import(t *testing.T) {
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "import.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	defer db.Close()

	repo := books.NewRepository(db.DB)
	rows, _, err := ParseCatalogCSV(strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("dry run writes nothing", func(t *testing.T) {
		result, err := NewImporter(repo, true).Import(ctx, rows)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Created)

		count, err := repo.CountBooks(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("creates books with publisher and authors", func(t *testing.T) {
		result, err := NewImporter(repo, false).Import(ctx, rows)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Created)
		assert.Zero(t, result.Failed, result.Errors)

		book, err := repo.GetBook(ctx, "B001")
		require.NoError(t, err)
		assert.Equal(t, 3, book.CurrentStock)
		require.NotNil(t, book.Publisher)
		assert.Equal(t, "Addison-Wesley", book.Publisher.PublisherName)
		assert.Len(t, book.Authors, 2)
	})

	t.Run("second run skips existing", func(t *testing.T) {
		result, err := NewImporter(repo, false).Import(ctx, rows)
		require.NoError(t, err)
		assert.Zero(t, result.Created)
		assert.Equal(t, 3, result.Skipped)
	})
}
