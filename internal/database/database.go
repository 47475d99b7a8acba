package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/entities"
)

var defaultUserTypes = []entities.UserType{
	{TypeID: entities.IdentityStudent, TypeName: "Student"},
	{TypeID: entities.IdentityGraduate, TypeName: "Graduate Student"},
	{TypeID: entities.IdentityTeacher, TypeName: "Teacher"},
	{TypeID: entities.IdentityAdministrator, TypeName: "Administrator"},
}

// openLoanIndex allows at most one open loan per (borrower, book). Both
// SQLite and PostgreSQL support partial indexes with this syntax.
const openLoanIndex = `CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_loan
	ON borrowing_records (borrower_id, book_id) WHERE return_date IS NULL`

// sqliteParams makes every write transaction take the database lock at
// BEGIN, so a conditional stock decrement cannot interleave with another.
const sqliteParams = "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"

var ErrUnsupportedDriver = errors.New("unsupported database driver")

type Database struct {
	DB *gorm.DB
}

func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, where, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return initialize(db, where)
}

// initialize migrates and seeds an opened connection. The connection is
// closed when any step fails.
func initialize(db *gorm.DB, where string) (*Database, error) {
	database := &Database{DB: db}

	if err := database.migrate(); err != nil {
		if closeErr := database.Close(); closeErr != nil {
			log.Printf("Failed to close database after setup error: %v", closeErr)
		}
		return nil, err
	}

	log.Printf("Database initialized successfully (%s)", where)

	return database, nil
}

func (d *Database) migrate() error {
	if err := d.DB.SetupJoinTable(&entities.Book{}, "Authors", &entities.BookAuthor{}); err != nil {
		return fmt.Errorf("failed to set up book authors: %w", err)
	}

	err := d.DB.AutoMigrate(
		&entities.UserType{},
		&entities.Publisher{},
		&entities.Author{},
		&entities.Book{},
		&entities.Borrower{},
		&entities.UserAuth{},
		&entities.BorrowingRecord{},
		&entities.FineRecord{},
		&entities.LoginLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := d.DB.Exec(openLoanIndex).Error; err != nil {
		return fmt.Errorf("failed to create open loan index: %w", err)
	}

	if err := d.seedUserTypes(); err != nil {
		return fmt.Errorf("failed to seed user types: %w", err)
	}

	return nil
}

func openDialector(cfg config.Database) (gorm.Dialector, string, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		path := cfg.Path
		if path == "" {
			path = config.DefaultDatabasePath
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return sqlite.Open(path + sep + sqliteParams), "sqlite " + path, nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, "", fmt.Errorf("%w: postgres requires DATABASE_DSN", ErrUnsupportedDriver)
		}
		return postgres.Open(cfg.DSN), "postgres", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) seedUserTypes() error {
	for _, userType := range defaultUserTypes {
		var existing entities.UserType
		result := d.DB.Where("type_id = ?", userType.TypeID).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&userType).Error; err != nil {
				return fmt.Errorf("failed to create user type %s: %w", userType.TypeName, err)
			}
			log.Printf("Created user type: %s", userType.TypeName)
		} else if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// GetUserTypes lists the identity types a borrower can register with.
func (d *Database) GetUserTypes(ctx context.Context) ([]entities.UserType, error) {
	var types []entities.UserType
	err := d.DB.WithContext(ctx).Order("type_id").Find(&types).Error
	return types, err
}
