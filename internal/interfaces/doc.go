// Package interfaces documents the core abstractions used throughout the application.
//
// It holds no runtime code. checks.go pins every concrete type to the
// interface its consumer declares, so a signature drift fails the build.
//
// # Interface Categories
//
// ## Data Access Interfaces (declared in internal/http/stores.go)
//
//   - BookStore: catalog CRUD and search (books.Repository)
//   - BorrowerStore: profiles, status and the cascading delete (borrowers.Repository)
//   - RecordStore: loan and fine listings, fine payment, dashboard stats (records.Repository)
//   - LoginLogStore: login attempt history (loginlogs.Repository)
//
// ## Service Interfaces
//
//   - Circulation: borrow and return (circulation.Service)
//   - Accounts: registration, login and the admin capability (auth.Service)
//
// ## Background and Tooling Interfaces
//
//   - scheduler.LoginLogPurger: retention deletes (loginlogs.Repository)
//   - importers.CatalogStore: CSV catalog import (books.Repository)
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/reservations/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Declare the interface next to its consumer (e.g. internal/http/stores.go)
//
//  4. Add compile-time check in checks.go:
//
//     var _ http.ReservationStore = (*reservations.Repository)(nil)
package interfaces
