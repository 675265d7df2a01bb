package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stevepentland/swarmer/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status JOB_ID",
	Short: "Show a job's current task statuses",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	job, err := fetchStatus(args[0])
	if errors.Is(err, ErrJobNotFound) {
		return fmt.Errorf("job %s not found (unknown id, or already completed and cleared)", args[0])
	}
	if err != nil {
		return err
	}
	printJobTable(job)
	return nil
}

func printJobTable(job *jobView) {
	fmt.Printf("%-20s %-8s %s\n", "TASK", "STATUS", "STATE")
	for _, task := range job.Tasks {
		fmt.Printf("%-20s %-8s %s\n", task.Name, statusLabel(task.Status), taskState(task))
	}
}

func statusLabel(status int) string {
	if status == model.PendingStatus {
		return "-"
	}
	return strconv.Itoa(status)
}

func taskState(task taskView) string {
	switch {
	case task.Status == model.PendingStatus:
		return "pending/running"
	case task.Status == 0:
		return "succeeded"
	default:
		return "failed"
	}
}
