package main

import (
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/meetup/pkg/app"
)

// meetup migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println("Running migrations…")
		return app.Migrate(cmd.Context(), cmd.OutOrStdout())
	},
}

// meetup migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println("Rolling back last batch…")
		return app.Rollback(cmd.Context(), cmd.OutOrStdout())
	},
}

// meetup migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.MigrationStatus(cmd.Context(), cmd.OutOrStdout())
	},
}

// meetup seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println("Running seeders…")
		return app.Seed(cmd.Context(), cmd.OutOrStdout())
	},
}
