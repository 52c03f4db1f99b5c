package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/campuslink/backend/internal/database"
	"github.com/campuslink/backend/internal/logger"
	"github.com/campuslink/backend/internal/seed"
)

var rootCmd = &cobra.Command{
	Use:   "campuslink",
	Short: "CampusLink admin CLI",
	Long:  "Administrative tasks for the CampusLink backend: schema migrations and database seeding.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
			return err
		}
		if err := database.Initialize(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
		_ = logger.Close()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("migrations completed")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:       "seed [dev|test|clean]",
	Short:     "Seed the database with development data",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"dev", "test", "clean"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := "dev"
		if len(args) > 0 {
			mode = args[0]
		}

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		seeder := seed.NewSeeder(database.DB)
		switch mode {
		case "dev":
			if err := seeder.SeedDev(); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			fmt.Println("development data seeded")
		case "test":
			if err := seeder.SeedTest(); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			fmt.Println("test data seeded")
		case "clean":
			if err := seeder.Clean(); err != nil {
				return fmt.Errorf("clean failed: %w", err)
			}
			fmt.Println("seed data removed")
		default:
			return fmt.Errorf("unknown mode %q", mode)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
