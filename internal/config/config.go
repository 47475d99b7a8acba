package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Circulation
		CORS
		LoginLogs
	}

	HTTP struct {
		Port       int32
		Host       string
		HSTSMaxAge int // Seconds; 0 disables the Strict-Transport-Security header
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Driver   DatabaseDriver
		Path     string // SQLite file path
		DSN      string // PostgreSQL connection string
		LogLevel string // silent, error, warn, info
	}

	Auth struct {
		TokenKey   string        // 64 hex chars (32 bytes); generated at startup if empty
		TokenTTL   time.Duration // Session token lifetime
		BcryptCost int

		// Login throttling
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)

		// Registration throttling, per client IP
		RegisterRPS   float64
		RegisterBurst int
	}

	Circulation struct {
		LoanPeriodDays int    // Days between borrow date and due date
		FineDailyRate  string // Decimal string, currency units per overdue day
	}

	CORS struct {
		AllowedOrigins []string
	}

	LoginLogs struct {
		RetentionEnabled  bool
		RetentionSchedule string // Cron format: "0 3 * * *" = daily at 03:00
		RetentionDays     int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("hsts_max_age", 0)
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	// Database defaults
	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	// Auth defaults
	v.SetDefault("auth_token_key", "")            // Auto-generated if empty
	v.SetDefault("auth_token_ttl", "24h")         // Session token lifetime
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration
	v.SetDefault("auth_register_rps", 1.0)
	v.SetDefault("auth_register_burst", 5)

	// Circulation defaults
	v.SetDefault("loan_period_days", DefaultLoanPeriodDays)
	v.SetDefault("fine_daily_rate", DefaultFineDailyRate)

	v.SetDefault("cors_allowed_origins", "*")

	// Login log retention defaults
	v.SetDefault("login_log_retention_enabled", false)
	v.SetDefault("login_log_retention_schedule", "0 3 * * *")
	v.SetDefault("login_log_retention_days", 90)

	return &Config{
		HTTP: HTTP{
			Port:       v.GetInt32("PORT"),
			Host:       v.GetString("HOST"),
			HSTSMaxAge: v.GetInt("HSTS_MAX_AGE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:   DatabaseDriver(strings.ToLower(v.GetString("DATABASE_DRIVER"))),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Auth: Auth{
			TokenKey:         v.GetString("AUTH_TOKEN_KEY"),
			TokenTTL:         v.GetDuration("AUTH_TOKEN_TTL"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
			RegisterRPS:      v.GetFloat64("AUTH_REGISTER_RPS"),
			RegisterBurst:    v.GetInt("AUTH_REGISTER_BURST"),
		},
		Circulation: Circulation{
			LoanPeriodDays: v.GetInt("LOAN_PERIOD_DAYS"),
			FineDailyRate:  v.GetString("FINE_DAILY_RATE"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		LoginLogs: LoginLogs{
			RetentionEnabled:  v.GetBool("LOGIN_LOG_RETENTION_ENABLED"),
			RetentionSchedule: v.GetString("LOGIN_LOG_RETENTION_SCHEDULE"),
			RetentionDays:     v.GetInt("LOGIN_LOG_RETENTION_DAYS"),
		},
	}
}

// splitList parses a comma-separated env value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
