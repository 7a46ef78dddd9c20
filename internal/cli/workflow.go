package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/orchestrator"
	"github.com/shaiso/Conveyor/internal/repo"
)

// NewWorkflowCmd создаёт группу команд для управления workflows.
func NewWorkflowCmd(env *Env, clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Submit and inspect workflows",
	}

	cmd.AddCommand(
		newWorkflowSubmitCmd(env, outputFn),
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowStatusCmd(clientFn, outputFn),
		newWorkflowJobsCmd(clientFn, outputFn),
		newWorkflowResubmitCmd(env, outputFn),
		newWorkflowCancelCmd(env, outputFn),
		newWorkflowLogsCmd(env, outputFn),
	)

	return cmd
}

func newWorkflowSubmitCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var projectName string
	var templatePath string
	var samples []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Build a workflow from a template and submit it",
		Long: `Build a workflow from a template file and submit its jobs.
Jobs whose outputs already exist are completed without submission,
jobs already known to the compute service are reused.
With --dry-run no job is actually submitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			project, err := store.Projects.GetByName(ctx, projectName)
			if err != nil {
				return err
			}

			allSamples, err := store.Projects.ListSamples(ctx, project.ID)
			if err != nil {
				return err
			}
			selected, err := selectSamples(allSamples, samples)
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				return fmt.Errorf("project %s has no samples, import them first", project.Name)
			}

			tmpl, err := readTemplate(templatePath)
			if err != nil {
				return err
			}

			wf, err := engine.BuildWorkflow(project, selected, tmpl)
			if err != nil {
				return err
			}

			session, err := newSession(ctx, env, wf, store, dryRun)
			if err != nil {
				return err
			}

			submitErr := session.SubmitWorkflow(ctx)

			headers := []string{"SAMPLE", "STAGE", "STATE", "REMOTE_ID", "ERROR"}
			jobs := wf.Jobs()
			rows := make([][]string, len(jobs))
			for i, job := range jobs {
				rows[i] = []string{job.Sample, job.Stage, string(job.State), job.RemoteID, job.Error}
			}
			out.Print(headers, rows, wf)

			if submitErr != nil {
				return fmt.Errorf("workflow %s submitted with errors: %w", wf.ID, submitErr)
			}
			out.Success(fmt.Sprintf("Workflow submitted: %s (%d jobs)", wf.ID, wf.Size()))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectName, "project", "", "Project name (required)")
	cmd.Flags().StringVar(&templatePath, "template", "", "Workflow template JSON file (required)")
	cmd.Flags().StringSliceVar(&samples, "samples", nil, "Submit only these samples (default: all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and check jobs without submitting")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("template")

	return cmd
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var projectID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows(ListWorkflowsOpts{
				ProjectID: projectID,
				Status:    status,
				Limit:     limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STATUS", "JOBS", "CREATED"}
			rows := make([][]string, len(workflows))
			for i, wf := range workflows {
				rows[i] = []string{wf.ID, wf.Name, wf.Status, strconv.Itoa(wf.JobCount), wf.CreatedAt}
			}

			out.Print(headers, rows, workflows)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "Filter by project ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, SUBMITTED, COMPLETED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newWorkflowStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID",
		Short: "Show workflow status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "STATUS", "JOBS", "CREATED"},
				[][]string{{wf.ID, wf.Name, wf.Status, strconv.Itoa(wf.JobCount), wf.CreatedAt}},
				wf,
			)
			return nil
		},
	}
}

func newWorkflowJobsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs WORKFLOW_ID",
		Short: "List jobs of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListJobs(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "SAMPLE", "STAGE", "STATE", "COMPLETED_BY", "ERROR"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = []string{j.ID, j.Sample, j.Stage, j.State, j.CompletedBy, j.Error}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}
}

func newWorkflowResubmitCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var jobID string

	cmd := &cobra.Command{
		Use:   "resubmit WORKFLOW_ID",
		Short: "Resubmit failed jobs of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid workflow id %q", args[0])
			}

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			wf, err := store.LoadWorkflow(ctx, id)
			if err != nil {
				return err
			}

			session, err := newSession(ctx, env, wf, store, false)
			if err != nil {
				return err
			}

			if jobID != "" {
				jid, err := uuid.Parse(jobID)
				if err != nil {
					return fmt.Errorf("invalid job id %q", jobID)
				}
				if err := session.ResubmitJob(ctx, jid); err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Resubmitted job %s of workflow %s", jid, wf.ID))
				return nil
			}

			n, err := session.ResubmitFailed(ctx)
			if err != nil {
				return fmt.Errorf("resubmitted %d jobs with errors: %w", n, err)
			}

			out.Success(fmt.Sprintf("Resubmitted %d failed jobs of workflow %s", n, wf.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "resubmit only this job (must be FAILED)")

	return cmd
}

func newWorkflowCancelCmd(env *Env, outputFn func() *Output) *cobra.Command {
	var reason string
	var yes bool

	cmd := &cobra.Command{
		Use:   "cancel WORKFLOW_ID",
		Short: "Cancel a workflow and its active jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid workflow id %q", args[0])
			}

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			wf, err := store.LoadWorkflow(ctx, id)
			if err != nil {
				return err
			}

			if !yes && !out.Confirm(fmt.Sprintf("Cancel workflow %s (%d jobs)?", wf.Name, wf.Size())) {
				out.Success("Aborted")
				return nil
			}

			session, err := newSession(ctx, env, wf, store, false)
			if err != nil {
				return err
			}

			if err := session.CancelWorkflow(ctx, reason); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow cancelled: %s", wf.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "cancelled by operator", "Cancellation reason passed to the compute service")
	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")

	return cmd
}

func newWorkflowLogsCmd(env *Env, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs WORKFLOW_ID JOB_ID",
		Short: "Fetch logs of a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			wfID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid workflow id %q", args[0])
			}
			jobID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[1])
			}

			store, err := env.Store(ctx)
			if err != nil {
				return err
			}

			wf, err := store.LoadWorkflow(ctx, wfID)
			if err != nil {
				return err
			}

			job, ok := wf.Job(jobID)
			if !ok {
				return fmt.Errorf("job %s not found in workflow %s", jobID, wfID)
			}
			if !job.IsSubmitted() {
				return fmt.Errorf("job %s/%s was never submitted, no logs", job.Sample, job.Stage)
			}

			svc, err := env.Compute(ctx)
			if err != nil {
				return err
			}

			details, err := svc.Describe(ctx, []string{job.RemoteID})
			if err != nil {
				return err
			}
			if len(details) == 0 {
				return fmt.Errorf("job %s is no longer known to the compute service", job.RemoteID)
			}
			if details[0].LogStreamName == "" {
				return fmt.Errorf("job %s/%s has no log stream yet", job.Sample, job.Stage)
			}

			fetcher, err := env.Logs(ctx)
			if err != nil {
				return err
			}

			events, err := fetcher.Fetch(ctx, details[0].LogStreamName)
			if err != nil {
				return err
			}

			for _, ev := range events {
				fmt.Fprintf(os.Stdout, "%s %s\n", ev.Timestamp.Format("2006-01-02T15:04:05"), ev.Message)
			}
			out.Success(fmt.Sprintf("%d log events", len(events)))
			return nil
		},
	}

	return cmd
}

// newSession собирает Session со всеми зависимостями из окружения.
func newSession(ctx context.Context, env *Env, wf *domain.Workflow, store *repo.Store, dryRun bool) (*orchestrator.Session, error) {
	svc, err := env.Compute(ctx)
	if err != nil {
		return nil, err
	}
	checker, err := env.Checker(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := env.Registry(ctx)
	if err != nil {
		return nil, err
	}

	return orchestrator.NewSession(orchestrator.SessionConfig{
		Workflow: wf,
		Checker:  checker,
		Registry: reg,
		Compute:  svc,
		Store:    store,
		Logger:   env.Logger,
		DryRun:   dryRun,
	}), nil
}

// selectSamples оставляет только запрошенные образцы (пустой список — все).
func selectSamples(all []domain.Sample, names []string) ([]domain.Sample, error) {
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]domain.Sample, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}

	selected := make([]domain.Sample, 0, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("sample %q not found in project", name)
		}
		selected = append(selected, s)
	}
	return selected, nil
}

// readTemplate читает шаблон workflow из JSON-файла.
func readTemplate(path string) (*domain.WorkflowTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	var tmpl domain.WorkflowTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	return &tmpl, nil
}