package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"notepomo/internal/config"
	"notepomo/internal/db"
	"notepomo/migrations"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using process environment")
	}

	rootCmd := &cobra.Command{
		Use:          "notepomo-migrate",
		Short:        "Apply pending schema migrations",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			database, dialect, err := db.Connect(cfg.DBDriver, cfg.DBPath, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.RunMigrations(database, dialect, migrations.Source(cfg.MigrationsDir)); err != nil {
				return err
			}
			log.Println("migrations applied successfully")
			return nil
		},
	}
	config.RegisterFlags(rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
