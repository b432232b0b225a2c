package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/todoapp/todoapp-go/internal/crypto"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
	"github.com/todoapp/todoapp-go/internal/service"
)

const generatedPasswordLength = 20

var createAdminFlags struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a user with the admin role",
	Long: `Create a user with the admin role.

Registration through the API always creates regular users, so admins are
provisioned here. A random password is generated and printed when
--password is omitted.`,
	Example: `todoapp create-admin --username root --email root@example.com`,
	RunE:    createAdmin,
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&createAdminFlags.Username, "username", "", "Admin username")
	f.StringVar(&createAdminFlags.Email, "email", "", "Admin email address")
	f.StringVar(&createAdminFlags.Password, "password", "", "Admin password (generated when empty)")
	f.StringVar(&createAdminFlags.FirstName, "first-name", "", "First name")
	f.StringVar(&createAdminFlags.LastName, "last-name", "", "Last name")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(createAdminCmd)
}

func createAdmin(cmd *cobra.Command, _ []string) error {
	password := createAdminFlags.Password
	generated := password == ""
	if generated {
		var err error
		password, err = crypto.RandomPassword(generatedPasswordLength)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
	}

	db, err := openDB(cmd.Context(), cfg.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close() //nolint: errcheck

	tokens, err := crypto.NewTokenService(crypto.TokenConfig{Secret: cfg.JWTSecret, TTL: cfg.JWTExpiry})
	if err != nil {
		return err
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), tokens)
	user, err := auth.CreateAdmin(cmd.Context(), model.CreateUserRequest{
		Username:  createAdminFlags.Username,
		Email:     createAdminFlags.Email,
		Password:  password,
		FirstName: createAdminFlags.FirstName,
		LastName:  createAdminFlags.LastName,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Printf("Created admin %q (id %d)\n", user.Username, user.ID)
	if generated {
		fmt.Printf("Password: %s\n", password)
	}
	return nil
}
