package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewDashboardCmd создаёт команду живой сводки по workflow.
func NewDashboardCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var watch bool
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show a summary of tracked workflows",
		Long: `Show a summary of workflows currently tracked by the monitor.
With --watch the summary is redrawn every --refresh interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if !watch {
				return renderSummary(client, out, false)
			}

			ticker := time.NewTicker(refresh)
			defer ticker.Stop()

			for {
				if err := renderSummary(client, out, true); err != nil {
					return err
				}
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Redraw the summary periodically")
	cmd.Flags().DurationVar(&refresh, "refresh", 30*time.Second, "Refresh interval with --watch")

	return cmd
}

func renderSummary(client *Client, out *Output, clearScreen bool) error {
	summary, err := client.Summary()
	if err != nil {
		return err
	}

	if clearScreen {
		fmt.Fprint(os.Stdout, "\033[2J\033[H")
	}

	headers := []string{"WORKFLOW", "STATUS", "TOTAL", "RUNNING", "DONE (exit/output)", "FAILED", "UNKNOWN"}
	rows := make([][]string, len(summary.Workflows))
	for i, wr := range summary.Workflows {
		running := wr.ByState["SUBMITTED"] + wr.ByState["RUNNABLE"] + wr.ByState["RUNNING"]
		rows[i] = []string{
			wr.Name,
			wr.Status,
			strconv.Itoa(wr.Total),
			strconv.Itoa(running),
			fmt.Sprintf("%d/%d", wr.DoneByExit, wr.DoneByOutput),
			strconv.Itoa(wr.ByState["FAILED"]),
			strconv.Itoa(wr.Unknown),
		}
	}

	out.Print(headers, rows, summary)
	return nil
}
