package cli

import (
	"flag"

	"github.com/NayeyYe/BookManage/internal/config"
	"github.com/NayeyYe/BookManage/internal/database"
)

// databaseFlags registers the flags every command that opens the database
// shares. Defaults come from the environment, so flags only override.
type databaseFlags struct {
	Driver string
	Path   string
	DSN    string
}

func (f *databaseFlags) register(fs *flag.FlagSet) {
	env := config.NewConfig().Database
	fs.StringVar(&f.Driver, "driver", string(env.Driver), "Database driver: sqlite or postgres")
	fs.StringVar(&f.Path, "db", env.Path, "Path to the SQLite database file")
	fs.StringVar(&f.DSN, "dsn", env.DSN, "PostgreSQL connection string (postgres driver only)")
}

func (f *databaseFlags) open() (*database.Database, error) {
	return database.NewDatabase(config.Database{
		Driver:   config.DatabaseDriver(f.Driver),
		Path:     f.Path,
		DSN:      f.DSN,
		LogLevel: "warn",
	})
}
