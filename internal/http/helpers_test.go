package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/circulation"
	"github.com/NayeyYe/BookManage/internal/database/books"
	"github.com/NayeyYe/BookManage/internal/database/records"
)

func TestRespondDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing book", books.ErrBookNotFound, http.StatusNotFound, CodeNotFound},
		{"wrapped unavailable", fmt.Errorf("borrow: %w", circulation.ErrBookUnavailable), http.StatusBadRequest, CodeBookUnavailable},
		{"duplicate loan", circulation.ErrDuplicateLoan, http.StatusBadRequest, CodeDuplicateLoan},
		{"closed record", circulation.ErrRecordNotFound, http.StatusBadRequest, CodeRecordNotFound},
		{"paid fine", records.ErrFineAlreadyPaid, http.StatusBadRequest, CodeFineAlreadyPaid},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{"suspended", auth.ErrAccountSuspended, http.StatusUnauthorized, CodeAccountSuspended},
		{"busy database", fmt.Errorf("borrow: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), http.StatusServiceUnavailable, CodeUnavailable},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondDomainError(c, tt.err, "test")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.wantCode+`"`)
		})
	}
}

func TestRespondInternalError_HidesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondInternalError(c, errors.New("password=hunter2"), "test")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
}

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, raw := range []string{"0", "-1", "abc", "99999999999"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		_, ok := parseIDParam(c, "id")
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := parseIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}
