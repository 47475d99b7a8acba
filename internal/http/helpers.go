package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/circulation"
	"github.com/NayeyYe/BookManage/internal/database"
	"github.com/NayeyYe/BookManage/internal/database/books"
	"github.com/NayeyYe/BookManage/internal/database/borrowers"
	"github.com/NayeyYe/BookManage/internal/database/records"
)

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeBookExists         = "BOOK_EXISTS"
	CodeBookOnLoan         = "BOOK_ON_LOAN"
	CodeInvalidStock       = "INVALID_STOCK"
	CodeBookUnavailable    = "BOOK_UNAVAILABLE"
	CodeBorrowerInvalid    = "BORROWER_INVALID"
	CodeDuplicateLoan      = "DUPLICATE_LOAN"
	CodeRecordNotFound     = "RECORD_NOT_FOUND"
	CodeFineAlreadyPaid    = "FINE_ALREADY_PAID"
	CodeDuplicateUser      = "DUPLICATE_USER"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountSuspended   = "ACCOUNT_SUSPENDED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnavailable        = "UNAVAILABLE"
	CodeInternal           = "INTERNAL"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Mapping ---

type errorMapping struct {
	target error
	status int
	code   string
}

// domainErrors maps sentinel errors from the service and repository layers
// to HTTP responses. Order matters only where errors wrap each other.
var domainErrors = []errorMapping{
	{books.ErrBookNotFound, http.StatusNotFound, CodeNotFound},
	{borrowers.ErrBorrowerNotFound, http.StatusNotFound, CodeNotFound},
	{records.ErrFineNotFound, http.StatusNotFound, CodeNotFound},
	{auth.ErrUserNotFound, http.StatusNotFound, CodeNotFound},

	{books.ErrBookExists, http.StatusBadRequest, CodeBookExists},
	{books.ErrBookOnLoan, http.StatusBadRequest, CodeBookOnLoan},
	{books.ErrInvalidStock, http.StatusBadRequest, CodeInvalidStock},
	{books.ErrPublisherNotFound, http.StatusBadRequest, CodeInvalidRequest},
	{records.ErrFineAlreadyPaid, http.StatusBadRequest, CodeFineAlreadyPaid},

	{circulation.ErrBookUnavailable, http.StatusBadRequest, CodeBookUnavailable},
	{circulation.ErrBorrowerInvalid, http.StatusBadRequest, CodeBorrowerInvalid},
	{circulation.ErrDuplicateLoan, http.StatusBadRequest, CodeDuplicateLoan},
	{circulation.ErrRecordNotFound, http.StatusBadRequest, CodeRecordNotFound},

	{auth.ErrDuplicateUser, http.StatusBadRequest, CodeDuplicateUser},
	{auth.ErrUIDInvalid, http.StatusBadRequest, CodeInvalidRequest},
	{auth.ErrNameRequired, http.StatusBadRequest, CodeInvalidRequest},
	{auth.ErrInvalidIdentityType, http.StatusBadRequest, CodeInvalidRequest},
	{auth.ErrPasswordTooShort, http.StatusBadRequest, CodeInvalidRequest},
	{auth.ErrPasswordTooLong, http.StatusBadRequest, CodeInvalidRequest},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{auth.ErrAccountSuspended, http.StatusUnauthorized, CodeAccountSuspended},
}

// respondDomainError maps err to a 4xx response when it is a known domain
// error. Anything else is logged and reported as a 500 without details.
func respondDomainError(c *gin.Context, err error, context string) {
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			c.JSON(m.status, ErrorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}
	respondInternalError(c, err, context)
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeInvalidRequest})
}

// respondValidationError reports a request body that failed binding.
func respondValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = validationMessage(fe)
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: CodeInvalidRequest, Details: details})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: CodeInvalidRequest})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: CodeNotFound})
}

func respondForbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, ErrorResponse{Error: message, Code: CodeForbidden})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client. A database that
// stayed locked past its busy timeout is reported as 503 instead.
func respondInternalError(c *gin.Context, err error, context string) {
	if database.IsBusy(err) {
		log.Printf("Database busy (%s) [%s]: %v", context, requestID(c), err)
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database is busy, try again", Code: CodeUnavailable})
		return
	}
	log.Printf("Internal error (%s) [%s]: %v", context, requestID(c), err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal})
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseLimit reads an optional non-negative ?limit= query parameter.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		respondBadRequest(c, "invalid limit")
		return 0, false
	}
	return limit, true
}
