// Command meetup runs the meetup API and its maintenance tasks.
//
//	meetup serve             # start the HTTP (and optional gRPC) server
//	meetup migrate           # apply migrations / ensure document indexes
//	meetup migrate:rollback
//	meetup migrate:status
//	meetup seed              # create the admin account
//	meetup route:list        # list API routes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Registers the relational schema with pkg/migration.
	_ "github.com/shashiranjanraj/meetup/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "meetup",
	Short:         "Meetup API server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
}
