package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/circulation"
	"github.com/NayeyYe/BookManage/internal/database"
	"github.com/NayeyYe/BookManage/internal/database/books"
	"github.com/NayeyYe/BookManage/internal/database/borrowers"
	"github.com/NayeyYe/BookManage/internal/database/loginlogs"
	"github.com/NayeyYe/BookManage/internal/database/records"
	"github.com/NayeyYe/BookManage/internal/http"
	"github.com/NayeyYe/BookManage/internal/importers"
	"github.com/NayeyYe/BookManage/internal/scheduler"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.BorrowerStore = (*borrowers.Repository)(nil)
var _ http.RecordStore = (*records.Repository)(nil)
var _ http.LoginLogStore = (*loginlogs.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)
var _ http.UserTypeStore = (*database.Database)(nil)

// =============================================================================
// Services
// =============================================================================

var _ http.Circulation = (*circulation.Service)(nil)
var _ http.Accounts = (*auth.Service)(nil)

// =============================================================================
// Background Jobs and Import
// =============================================================================

var _ scheduler.LoginLogPurger = (*loginlogs.Repository)(nil)
var _ importers.CatalogStore = (*books.Repository)(nil)
