package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/NayeyYe/BookManage/internal/database/books"
	"github.com/NayeyYe/BookManage/internal/importers"
)

// ImportBooksCommand loads a catalog CSV into the books table.
type ImportBooksCommand struct {
	FilePath string
	Verbose  bool
	DryRun   bool
	Database databaseFlags
}

func NewImportBooksCommand() *ImportBooksCommand {
	return &ImportBooksCommand{}
}

func (cmd *ImportBooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-books", flag.ContinueOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the catalog CSV file (required)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every skipped line")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse the file and report what would be imported")
	cmd.Database.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-books -file <catalog.csv> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import books from a CSV file with the header:\n")
		fmt.Fprintf(os.Stderr, "  book_id,title,isbn,publisher,publication_year,total_stock,location,authors\n\n")
		fmt.Fprintf(os.Stderr, "Authors are separated by ';'. Existing book IDs are skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportBooksCommand) Run() error {
	fmt.Println("Catalog Import")
	fmt.Println("==============")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	file, err := os.Open(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	rows, problems, err := importers.ParseCatalogCSV(file)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	fmt.Printf("File: %s\n", cmd.FilePath)
	fmt.Printf("Found %d books, %d lines skipped\n", len(rows), len(problems))
	if cmd.Verbose {
		for _, p := range problems {
			fmt.Printf("  [SKIP] %s\n", p)
		}
	}

	db, err := cmd.Database.open()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	importer := importers.NewImporter(books.NewRepository(db.DB), cmd.DryRun)
	result, err := importer.Import(context.Background(), rows)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Created: %d\n", result.Created)
	fmt.Printf("Already present: %d\n", result.Skipped)
	fmt.Printf("Failed: %d\n", result.Failed)

	if len(result.Errors) > 0 {
		fmt.Printf("\n%d errors occurred:\n", len(result.Errors))
		for _, errMsg := range result.Errors {
			fmt.Printf("  [ERROR] %s\n", errMsg)
		}
	}
	return nil
}
