package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// NewScheduleCmd создаёт группу команд для управления schedules.
func NewScheduleCmd(env *Env, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage periodic workflow submissions",
	}

	cmd.AddCommand(
		newScheduleListCmd(env, outputFn),
		newScheduleCreateCmd(env, outputFn),
		newScheduleShowCmd(env, outputFn),
		newScheduleEnableCmd(env, outputFn, true),
		newScheduleEnableCmd(env, outputFn, false),
		newScheduleDeleteCmd(env, outputFn),
	)

	return cmd
}

func newScheduleListCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var projectName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			var projectID *uuid.UUID
			if projectName != "" {
				project, err := store.Projects.GetByName(ctx, projectName)
				if err != nil {
					return err
				}
				projectID = &project.ID
			}

			schedules, err := store.Schedules.List(ctx, projectID)
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "CRON", "INTERVAL", "ENABLED", "NEXT_DUE"}
			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				interval := ""
				if s.IntervalSec > 0 {
					interval = strconv.Itoa(s.IntervalSec) + "s"
				}
				nextDue := ""
				if s.NextDueAt != nil {
					nextDue = s.NextDueAt.Format(time.RFC3339)
				}
				rows[i] = []string{
					s.ID.String(), s.Name, s.CronExpr, interval,
					strconv.FormatBool(s.Enabled), nextDue,
				}
			}

			out.Print(headers, rows, schedules)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectName, "project", "", "Filter by project name")

	return cmd
}

func newScheduleCreateCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var projectName string
	var name string
	var templatePath string
	var cronExpr string
	var intervalSec int
	var timezone string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule for periodic workflow submission",
		Long: `Create a schedule that periodically instantiates a workflow template
for all samples of a project. Either --cron or --every must be set.
Scheduled workflows are deduplicated by idempotency key, so a scheduler
restart never submits the same occurrence twice.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			if cronExpr == "" && intervalSec <= 0 {
				return fmt.Errorf("either --cron or --every must be set")
			}
			if cronExpr != "" && intervalSec > 0 {
				return fmt.Errorf("--cron and --every are mutually exclusive")
			}
			if cronExpr != "" {
				if err := scheduler.ValidateCronExpr(cronExpr); err != nil {
					return err
				}
			}

			tmpl, err := readTemplate(templatePath)
			if err != nil {
				return err
			}
			// Шаблон валидируется при создании, а не при первом срабатывании.
			if _, err := engine.BuildStageGraph(tmpl); err != nil {
				return err
			}

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			project, err := store.Projects.GetByName(ctx, projectName)
			if err != nil {
				return err
			}

			sched := &domain.Schedule{
				ID:          uuid.New(),
				ProjectID:   project.ID,
				Name:        name,
				Template:    *tmpl,
				CronExpr:    cronExpr,
				IntervalSec: intervalSec,
				Timezone:    timezone,
				Enabled:     true,
			}

			nextDue, err := scheduler.CalculateInitialNextDue(sched)
			if err != nil {
				return err
			}
			sched.NextDueAt = &nextDue

			if err := store.Schedules.Create(ctx, sched); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule created: %s (next due %s)", sched.ID, nextDue.Format(time.RFC3339)))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectName, "project", "", "Project name (required)")
	cmd.Flags().StringVar(&name, "name", "", "Schedule name (required)")
	cmd.Flags().StringVar(&templatePath, "template", "", "Workflow template JSON file (required)")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (five fields)")
	cmd.Flags().IntVar(&intervalSec, "every", 0, "Interval in seconds")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone for cron expressions")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("template")

	return cmd
}

func newScheduleShowCmd(env *Env, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid schedule id %q", args[0])
			}

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			sched, err := store.Schedules.GetByID(ctx, id)
			if err != nil {
				return err
			}

			lastRun := ""
			if sched.LastRunAt != nil {
				lastRun = sched.LastRunAt.Format(time.RFC3339)
			}
			nextDue := ""
			if sched.NextDueAt != nil {
				nextDue = sched.NextDueAt.Format(time.RFC3339)
			}

			out.Print(
				[]string{"ID", "NAME", "TEMPLATE", "ENABLED", "LAST_RUN", "NEXT_DUE"},
				[][]string{{
					sched.ID.String(), sched.Name, sched.Template.Name,
					strconv.FormatBool(sched.Enabled), lastRun, nextDue,
				}},
				sched,
			)
			return nil
		},
	}
}

func newScheduleEnableCmd(env *Env, outputFn func() *Output, enable bool) *cobra.Command {
	use, short := "enable ID", "Enable a schedule"
	if !enable {
		use, short = "disable ID", "Disable a schedule"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid schedule id %q", args[0])
			}

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			if err := store.Schedules.SetEnabled(ctx, id, enable); err != nil {
				return err
			}

			if enable {
				out.Success(fmt.Sprintf("Schedule enabled: %s", id))
			} else {
				out.Success(fmt.Sprintf("Schedule disabled: %s", id))
			}
			return nil
		},
	}
}

func newScheduleDeleteCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid schedule id %q", args[0])
			}

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			if !yes && !out.Confirm(fmt.Sprintf("Delete schedule %s?", id)) {
				out.Success("Aborted")
				return nil
			}

			if err := store.Schedules.Delete(ctx, id); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule deleted: %s", id))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")

	return cmd
}
