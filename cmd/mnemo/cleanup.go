package main

import (
	"fmt"

	"github.com/sandevgo/mnemo/internal/service/cleanup"
	"github.com/spf13/cobra"
)

var dryRun bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run one automatic cleanup pass",
	Long:  `Finds junk and near-duplicate memory items, deletes them up to the configured cap, then archives stale items by decay score.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		svc, closeDB, _ := newEngine(ctx)
		defer closeDB()

		if dryRun {
			svc.SetDryRun(true)
		}

		result := svc.RunAuto(ctx)
		fmt.Print(cleanup.BuildOperatorReport(result))
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Propose a human-confirmed cleanup",
	Long:  `Finds cleanup candidates with the looser review threshold and persists them as a pending review awaiting confirmation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		svc, closeDB, _ := newEngine(ctx)
		defer closeDB()

		review, err := svc.ProposeReview(ctx)
		if err != nil {
			return err
		}
		if review == nil {
			fmt.Println("Nothing to review.")
			return nil
		}

		fmt.Printf("Pending review %s: %d items, expires %s\n",
			review.ReviewID, review.Count, review.ExpiresAt)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pending review, if any",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		svc, closeDB, _ := newEngine(ctx)
		defer closeDB()

		review, err := svc.PendingStatus(ctx)
		if err != nil {
			return err
		}
		if review == nil {
			fmt.Println("No pending review.")
			return nil
		}

		fmt.Printf("Pending review %s: %d items, expires %s\n%s\n",
			review.ReviewID, review.Count, review.ExpiresAt, review.Summary)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log intended changes without mutating the store")
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statusCmd)
}
