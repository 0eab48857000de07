package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// Key layout of the Redis pending store.
const (
	indexKey  = "pendingtx:index"
	keyPrefix = "pendingtx:"
)

var listPendingCmd = &cobra.Command{
	Use:   "list-pending",
	Short: "List transactions awaiting commit confirmation",
	RunE:  runListPending,
}

var purgePendingCmd = &cobra.Command{
	Use:   "purge-pending",
	Short: "Delete every pending transaction record",
	Long: `purge-pending empties the pending store. Run it after a ledger reset:
records surviving from the old ledger would otherwise be resubmitted against
a chain that never saw them.`,
	RunE: runPurgePending,
}

func resolveTarget() (string, string, error) {
	_ = godotenv.Load()

	r, d := redisURL, databaseURL
	if r == "" {
		r = os.Getenv("REDIS_URL")
	}
	if d == "" {
		d = os.Getenv("DATABASE_URL")
	}
	if r == "" && d == "" {
		return "", "", fmt.Errorf("no store configured: set --redis-url or --database-url")
	}
	return r, d, nil
}

func runListPending(cmd *cobra.Command, args []string) error {
	rURL, dURL, err := resolveTarget()
	if err != nil {
		return err
	}
	ctx := context.Background()

	fmt.Printf("%-66s %8s %12s\n", "TX ID", "RETRIES", "AGE")

	if rURL != "" {
		opts, err := redis.ParseURL(rURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		ids, err := client.ZRange(ctx, indexKey, 0, -1).Result()
		if err != nil {
			return err
		}
		for _, id := range ids {
			fields, err := client.HGetAll(ctx, keyPrefix+id).Result()
			if err != nil {
				return err
			}
			printPending(id, fields["retries"], fields["timestamp"])
		}
		fmt.Printf("%d pending\n", len(ids))
		return nil
	}

	db, err := sql.Open("postgres", dURL)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT tx_id, retries, created_at_ms FROM pending_transactions ORDER BY created_at_ms ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id string
		var retries int
		var createdAt int64
		if err := rows.Scan(&id, &retries, &createdAt); err != nil {
			return err
		}
		printPending(id, fmt.Sprintf("%d", retries), fmt.Sprintf("%d", createdAt))
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	fmt.Printf("%d pending\n", count)
	return nil
}

func printPending(id, retries, timestampMS string) {
	age := "?"
	var ms int64
	if _, err := fmt.Sscanf(timestampMS, "%d", &ms); err == nil {
		age = time.Since(time.UnixMilli(ms)).Round(time.Second).String()
	}
	fmt.Printf("%-66s %8s %12s\n", id, retries, age)
}

func runPurgePending(cmd *cobra.Command, args []string) error {
	rURL, dURL, err := resolveTarget()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if rURL != "" {
		opts, err := redis.ParseURL(rURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		ids, err := client.ZRange(ctx, indexKey, 0, -1).Result()
		if err != nil {
			return err
		}
		_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, id := range ids {
				pipe.Del(ctx, keyPrefix+id)
			}
			pipe.Del(ctx, indexKey)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d pending transactions\n", len(ids))
		return nil
	}

	db, err := sql.Open("postgres", dURL)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `DELETE FROM pending_transactions`)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	fmt.Printf("Purged %d pending transactions\n", n)
	return nil
}
