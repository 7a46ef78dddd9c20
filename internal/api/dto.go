package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/monitor"
)

// Project DTOs

// ProjectResponse — ответ с проектом.
type ProjectResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectFromDomain конвертирует domain.Project в ProjectResponse.
func ProjectFromDomain(p domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
}

// SampleResponse — ответ с образцом.
type SampleResponse struct {
	ID       uuid.UUID         `json:"id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SampleFromDomain конвертирует domain.Sample в SampleResponse.
func SampleFromDomain(s domain.Sample) SampleResponse {
	return SampleResponse{
		ID:       s.ID,
		Name:     s.Name,
		Metadata: s.Metadata,
	}
}

// Workflow DTOs

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"project_id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	JobCount       int       `json:"job_count,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(wf *domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:             wf.ID,
		ProjectID:      wf.ProjectID,
		Name:           wf.Name,
		Status:         string(wf.CurrentStatus()),
		IdempotencyKey: wf.IdempotencyKey,
		JobCount:       wf.Size(),
		CreatedAt:      wf.CreatedAt,
	}
}

// JobResponse — ответ с задачей.
type JobResponse struct {
	ID          uuid.UUID         `json:"id"`
	Sample      string            `json:"sample"`
	Stage       string            `json:"stage"`
	Name        string            `json:"name"`
	Definition  string            `json:"definition"`
	Queue       string            `json:"queue"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Outputs     []string          `json:"outputs"`
	RemoteID    string            `json:"remote_id,omitempty"`
	State       string            `json:"state"`
	CompletedBy string            `json:"completed_by,omitempty"`
	Error       string            `json:"error,omitempty"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse. Принимает копию:
// снимок из SnapshotJobs читается без обращения к живой задаче.
func JobFromDomain(j domain.Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		Sample:      j.Sample,
		Stage:       j.Stage,
		Name:        j.Name,
		Definition:  j.Definition,
		Queue:       j.Queue,
		Parameters:  j.Parameters,
		Outputs:     j.Outputs,
		RemoteID:    j.RemoteID,
		State:       string(j.State),
		CompletedBy: string(j.CompletedBy),
		Error:       j.Error,
		SubmittedAt: j.SubmittedAt,
		FinishedAt:  j.FinishedAt,
		CreatedAt:   j.CreatedAt,
	}
}

// Schedule DTOs

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	Name           string     `json:"name"`
	CronExpr       string     `json:"cron_expr,omitempty"`
	IntervalSec    int        `json:"interval_sec,omitempty"`
	Timezone       string     `json:"timezone"`
	Enabled        bool       `json:"enabled"`
	NextDueAt      *time.Time `json:"next_due_at,omitempty"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastWorkflowID *uuid.UUID `json:"last_workflow_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	if s == nil {
		return ScheduleResponse{}
	}
	return ScheduleResponse{
		ID:             s.ID,
		ProjectID:      s.ProjectID,
		Name:           s.Name,
		CronExpr:       s.CronExpr,
		IntervalSec:    s.IntervalSec,
		Timezone:       s.Timezone,
		Enabled:        s.Enabled,
		NextDueAt:      s.NextDueAt,
		LastRunAt:      s.LastRunAt,
		LastWorkflowID: s.LastWorkflowID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// Summary DTOs

// SummaryWorkflow — строка сводки по одному workflow.
type SummaryWorkflow struct {
	WorkflowID   uuid.UUID      `json:"workflow_id"`
	Name         string         `json:"name"`
	Status       string         `json:"status"`
	Total        int            `json:"total"`
	ByState      map[string]int `json:"by_state"`
	DoneByExit   int            `json:"done_by_exit"`
	DoneByOutput int            `json:"done_by_output"`
	Unknown      int            `json:"unknown"`
}

// SummaryResponse — сводка по всем отслеживаемым workflow.
type SummaryResponse struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Workflows   []SummaryWorkflow `json:"workflows"`
}

// SummaryFromReport конвертирует monitor.Report в SummaryResponse.
func SummaryFromReport(r *monitor.Report) SummaryResponse {
	resp := SummaryResponse{
		GeneratedAt: r.GeneratedAt,
		Workflows:   make([]SummaryWorkflow, 0, len(r.Workflows)),
	}
	for _, wr := range r.Workflows {
		byState := make(map[string]int, len(wr.ByState))
		for state, n := range wr.ByState {
			byState[string(state)] = n
		}
		resp.Workflows = append(resp.Workflows, SummaryWorkflow{
			WorkflowID:   wr.WorkflowID,
			Name:         wr.Name,
			Status:       string(wr.Status),
			Total:        wr.Total,
			ByState:      byState,
			DoneByExit:   wr.DoneByExit,
			DoneByOutput: wr.DoneByOutput,
			Unknown:      wr.Unknown,
		})
	}
	return resp
}
