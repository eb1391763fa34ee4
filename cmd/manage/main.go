// Command manage runs administrative tasks against the drum school database.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/config"
	"github.com/noah-isme/drumschool-api/internal/database"
	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/repository"
	"github.com/noah-isme/drumschool-api/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "manage",
		Short:         "Drum school administrative commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(migrateCmd(), createUserCmd())
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDatabase()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var payload dto.CreateUserRequest

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account with an explicit role",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDatabase()
			if err != nil {
				return err
			}

			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
			auth := service.NewAuthService(repository.NewUserRepository(db), service.NewValidator(), service.TokenConfig{
				AccessSecret:  cfg.JWTSecret,
				RefreshSecret: cfg.JWTRefreshSecret,
			}, logger)

			user, err := auth.CreateUser(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q with id %d\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&payload.Username, "username", "", "login name")
	flags.StringVar(&payload.Password, "password", "", "initial password (min 8 characters)")
	flags.StringVar(&payload.Role, "role", "student", "account role: admin, teacher or student")
	flags.StringVar(&payload.Email, "email", "", "email address")
	flags.StringVar(&payload.FirstName, "first-name", "", "first name")
	flags.StringVar(&payload.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func openDatabase() (*gorm.DB, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, config.Config{}, err
	}
	return db, cfg, nil
}
