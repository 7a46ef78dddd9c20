package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewQueueCmd создаёт группу команд для работы с очередями.
func NewQueueCmd(env *Env, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and drain compute queues",
	}

	cmd.AddCommand(
		newQueueStatusCmd(env, outputFn),
		newQueueClearCmd(env, outputFn),
	)

	return cmd
}

func newQueueStatusCmd(env *Env, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status QUEUE",
		Short: "List active jobs in a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			svc, err := env.Compute(ctx)
			if err != nil {
				return err
			}

			details, err := svc.ListActive(ctx, args[0])
			if err != nil {
				return err
			}

			headers := []string{"REMOTE_ID", "NAME", "STATE"}
			rows := make([][]string, len(details))
			for i, d := range details {
				rows[i] = []string{d.RemoteID, d.Name, string(d.State)}
			}

			out.Print(headers, rows, details)
			return nil
		},
	}
}

func newQueueClearCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var reason string
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear QUEUE",
		Short: "Cancel all active jobs in a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			svc, err := env.Compute(ctx)
			if err != nil {
				return err
			}

			details, err := svc.ListActive(ctx, args[0])
			if err != nil {
				return err
			}
			if len(details) == 0 {
				out.Success("Queue is empty")
				return nil
			}

			if !yes && !out.Confirm(fmt.Sprintf("Cancel %d active jobs in queue %s?", len(details), args[0])) {
				out.Success("Aborted")
				return nil
			}

			cancelled := 0
			for _, d := range details {
				if err := svc.Cancel(ctx, d.RemoteID, reason); err != nil {
					out.Error(fmt.Sprintf("cancel %s: %v", d.RemoteID, err))
					continue
				}
				cancelled++
			}

			out.Success(fmt.Sprintf("Cancelled %d of %d jobs", cancelled, len(details)))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "queue cleared by operator", "Cancellation reason passed to the compute service")
	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")

	return cmd
}
