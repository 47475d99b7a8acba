// Package importers loads catalog data from external files into the
// database.
//
// # Flow
//
//	CSV file → ParseCatalogCSV → []CatalogRow → Importer.Import → books.Repository
//
// ParseCatalogCSV is lenient: malformed rows are reported as line-numbered
// messages and skipped, so one bad line does not abort a large import.
// Importer.Import creates each book in its own transaction. A book whose
// ID already exists is skipped, not updated.
//
// # CSV format
//
// The header row is required. Column names are case-insensitive:
//
//	book_id,title,isbn,publisher_id,publisher,publication_year,total_stock,location,authors
//
// book_id and title are required. authors is a ";"-separated list.
// When publisher_id is empty but publisher is set, the name doubles as
// the ID.
package importers
