package entrypoint

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NayeyYe/BookManage/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.Database{
			Driver:   config.DriverSQLite,
			Path:     filepath.Join(t.TempDir(), "app.db"),
			LogLevel: "silent",
		},
		Auth: config.Auth{
			TokenTTL:      24 * time.Hour,
			BcryptCost:    4,
			RegisterRPS:   10,
			RegisterBurst: 10,
		},
		Circulation: config.Circulation{
			LoanPeriodDays: config.DefaultLoanPeriodDays,
			FineDailyRate:  config.DefaultFineDailyRate,
		},
	}
}

func TestNewApplication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	app, err := NewApplication(cfg, "test")
	require.NoError(t, err)
	defer app.Close()

	assert.Len(t, cfg.Auth.TokenKey, 64, "an empty key is replaced with a generated one")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewApplication_BadPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Circulation.FineDailyRate = "free"

	_, err := NewApplication(cfg, "test")
	assert.Error(t, err)
}

func TestNewApplication_BadTokenKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.TokenKey = "short"

	_, err := NewApplication(cfg, "test")
	assert.Error(t, err)
}
