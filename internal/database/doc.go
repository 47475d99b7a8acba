// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, user type seeding
//	├── books/           # Books, authors and publishers
//	├── borrowers/       # Borrower profiles, status and cascading delete
//	├── records/         # Borrowing and fine listings, fine payment, stats
//	└── loginlogs/       # Login attempt history
//
// Loans are opened and closed by internal/circulation, which owns the
// transactions that touch books, borrowers and records together.
//
// # Drivers
//
// SQLite (the default) and PostgreSQL are supported. SQLite connections
// start write transactions with BEGIN IMMEDIATE so concurrent borrows
// serialize instead of failing on lock upgrade. Unique violations are
// translated to gorm.ErrDuplicatedKey on both drivers.
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	booksRepo := books.NewRepository(db.DB)
//	book, err := booksRepo.GetBook(ctx, "B001")
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/reservations/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface check in internal/interfaces/checks.go
package database
