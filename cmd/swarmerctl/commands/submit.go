package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stevepentland/swarmer/internal/printer"
)

var (
	submitCallback string
	submitTaskArgs []string
)

var submitCmd = &cobra.Command{
	Use:   "submit IMAGE",
	Short: "Submit a job to the swarmer daemon",
	Long: `submit creates a job from an image and one or more tasks, each
given with --task NAME[:ARG1,ARG2,...]. Tasks within a job run
concurrently up to the daemon's queue capacity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitCallback, "callback", "", "callback URL to notify on job completion (required)")
	submitCmd.Flags().StringArrayVar(&submitTaskArgs, "task", nil, "task spec NAME[:ARG1,ARG2,...], repeatable")
	_ = submitCmd.MarkFlagRequired("callback")
	_ = submitCmd.MarkFlagRequired("task")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	tasks, err := parseTaskSpecs(submitTaskArgs)
	if err != nil {
		return err
	}

	payload := submitPayload{
		ImageName:   args[0],
		CallbackURL: submitCallback,
		Tasks:       tasks,
	}

	id, err := submitJob(payload)
	if err != nil {
		return err
	}

	printer.Success("submitted job %s\n", id)
	return nil
}

func parseTaskSpecs(specs []string) ([]submitTaskEntry, error) {
	entries := make([]submitTaskEntry, 0, len(specs))
	for _, spec := range specs {
		name, argsPart, hasArgs := strings.Cut(spec, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid task spec %q: missing name", spec)
		}

		taskArgs := []string{}
		if hasArgs && argsPart != "" {
			for _, a := range strings.Split(argsPart, ",") {
				taskArgs = append(taskArgs, strings.TrimSpace(a))
			}
		}

		entries = append(entries, submitTaskEntry{TaskName: name, TaskArgs: taskArgs})
	}
	return entries, nil
}
