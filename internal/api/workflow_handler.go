package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/monitor"
	"github.com/shaiso/Conveyor/internal/repo"
)

// ListWorkflows возвращает список workflows с фильтрацией.
// GET /api/v1/workflows?project_id=&status=&limit=&offset=
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	filter := repo.WorkflowFilter{Limit: 100}

	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			BadRequest(w, "invalid project_id")
			return
		}
		filter.ProjectID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = domain.WorkflowStatus(raw)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			BadRequest(w, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			BadRequest(w, "invalid offset")
			return
		}
		filter.Offset = n
	}

	workflows, err := h.store.Workflows.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(workflows))
	for i := range workflows {
		result[i] = WorkflowFromDomain(&workflows[i])
	}

	List(w, result, len(result))
}

// GetWorkflow возвращает workflow по ID.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.findWorkflow(w, r)
	if !ok {
		return
	}

	Success(w, WorkflowFromDomain(wf))
}

// ListWorkflowJobs возвращает задачи workflow.
// GET /api/v1/workflows/{id}/jobs
func (h *Handler) ListWorkflowJobs(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.findWorkflow(w, r)
	if !ok {
		return
	}

	jobs := wf.SnapshotJobs()
	result := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		result[i] = JobFromDomain(job)
	}

	List(w, result, len(result))
}

// Summary возвращает сводку по отслеживаемым workflow.
// GET /api/v1/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	report := monitor.BuildReport(h.monitor.Tracked())
	Success(w, SummaryFromReport(report))
}

// findWorkflow находит workflow по {id}: сперва среди отслеживаемых
// монитором (живое состояние свежее), затем в БД.
func (h *Handler) findWorkflow(w http.ResponseWriter, r *http.Request) (*domain.Workflow, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return nil, false
	}

	for _, wf := range h.monitor.Tracked() {
		if wf.ID == id {
			return wf, true
		}
	}

	wf, err := h.store.LoadWorkflow(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			NotFound(w, "workflow not found")
			return nil, false
		}
		InternalError(w, h.logger, err)
		return nil, false
	}
	return wf, true
}
