package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stevepentland/swarmer/internal/printer"
)

const watchPollInterval = 2 * time.Second

var watchTimeout time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch JOB_ID",
	Short: "Poll a job until every task completes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 10*time.Minute, "give up waiting after this long")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	ctx, cancel := context.WithTimeout(cmd.Context(), watchTimeout)
	defer cancel()

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	seen := false
	for {
		job, err := fetchStatus(jobID)
		if errors.Is(err, ErrJobNotFound) {
			if !seen {
				return fmt.Errorf("job %s not found", jobID)
			}
			printer.Success("job %s finished\n", jobID)
			return nil
		}
		if err != nil {
			return err
		}
		seen = true

		printer.Info("job %s: %d/%d tasks complete\n", jobID, job.TaskCountComplete, job.TaskCountTotal)

		if jobDrained(job) {
			printJobTable(job)
			printer.Success("job %s finished\n", jobID)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
