package config

const (
	// DefaultDatabasePath is the default path for the SQLite database file
	DefaultDatabasePath = "./bookmanage.db"

	// DefaultLoanPeriodDays is the number of days a loan runs before it is overdue
	DefaultLoanPeriodDays = 30

	// DefaultFineDailyRate is the fine charged per overdue day
	DefaultFineDailyRate = "0.5"
)
