package api

import (
	"net/http"

	"github.com/google/uuid"
)

// ListProjects возвращает список всех проектов.
// GET /api/v1/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.Projects.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		result[i] = ProjectFromDomain(p)
	}

	List(w, result, len(result))
}

// GetProject возвращает проект по ID.
// GET /api/v1/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	project, err := h.store.Projects.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "project not found") {
		return
	}

	Success(w, ProjectFromDomain(*project))
}

// ListProjectSamples возвращает образцы проекта.
// GET /api/v1/projects/{id}/samples
func (h *Handler) ListProjectSamples(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid project id")
		return
	}

	samples, err := h.store.Projects.ListSamples(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "project not found") {
		return
	}

	result := make([]SampleResponse, len(samples))
	for i, s := range samples {
		result[i] = SampleFromDomain(s)
	}

	List(w, result, len(result))
}

// ListSchedules возвращает список schedules.
// GET /api/v1/schedules?project_id=
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	var projectID *uuid.UUID
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			BadRequest(w, "invalid project_id")
			return
		}
		projectID = &id
	}

	schedules, err := h.store.Schedules.List(r.Context(), projectID)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ScheduleResponse, len(schedules))
	for i := range schedules {
		result[i] = ScheduleFromDomain(&schedules[i])
	}

	List(w, result, len(result))
}

// GetSchedule возвращает schedule по ID.
// GET /api/v1/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid schedule id")
		return
	}

	schedule, err := h.store.Schedules.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "schedule not found") {
		return
	}

	Success(w, ScheduleFromDomain(schedule))
}
