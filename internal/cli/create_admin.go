package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/NayeyYe/BookManage/internal/auth"
	"github.com/NayeyYe/BookManage/internal/config"
)

// CreateAdminCommand bootstraps an administrator account.
type CreateAdminCommand struct {
	UID      string
	Name     string
	Phone    string
	Password string
	Database databaseFlags
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.UID, "uid", "", "Account ID for the administrator (required)")
	fs.StringVar(&cmd.Name, "name", "", "Display name (required)")
	fs.StringVar(&cmd.Phone, "phone", "", "Phone number")
	fs.StringVar(&cmd.Password, "password", os.Getenv("ADMIN_PASSWORD"), "Password, at least 8 characters (default: $ADMIN_PASSWORD)")
	cmd.Database.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -uid <id> -name <name> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account that holds the admin capability.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.UID == "" {
		return fmt.Errorf("required flag -uid not provided")
	}
	if cmd.Name == "" {
		return fmt.Errorf("required flag -name not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("required flag -password not provided")
	}
	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := cmd.Database.open()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// The token service is never used to issue tokens here; any valid key works.
	key, err := auth.GenerateTokenKey()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(key, time.Hour)
	if err != nil {
		return err
	}

	accounts := auth.NewService(db.DB, config.NewConfig().Auth, tokens)
	profile, err := accounts.CreateAdmin(context.Background(), auth.RegisterInput{
		UID:      cmd.UID,
		Name:     cmd.Name,
		Phone:    cmd.Phone,
		Password: cmd.Password,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("Created administrator %s (%s)\n", profile.UID, profile.Name)
	return nil
}
