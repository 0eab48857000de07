package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	redisURL    string
	databaseURL string
)

var rootCmd = &cobra.Command{
	Use:   "gateway-admin",
	Short: "Asset gateway operations tool",
	Long:  `gateway-admin inspects and repairs the pending-transaction store behind a running gateway.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis connection URL (defaults to REDIS_URL)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
	rootCmd.AddCommand(listPendingCmd)
	rootCmd.AddCommand(purgePendingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
