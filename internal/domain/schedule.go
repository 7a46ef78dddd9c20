package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска workflow по шаблону.
//
// Scheduler на каждом тике находит due schedules, создаёт workflow из
// сохранённого шаблона и отправляет его. Ключ идемпотентности
// "{schedule_id}_{next_due_at}" защищает от дублей при рестартах.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// ProjectID — проект, для образцов которого запускается шаблон.
	ProjectID uuid.UUID `json:"project_id"`

	// Name — имя schedule.
	Name string `json:"name"`

	// Template — шаблон workflow, инстанцируемый при каждом срабатывании.
	Template WorkflowTemplate `json:"template"`

	// CronExpr — cron-выражение (пятипольное). Пустое, если задан интервал.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах. 0, если задан cron.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — IANA timezone для cron-выражений (default: UTC).
	Timezone string `json:"timezone"`

	// Enabled — выключенные schedules пропускаются.
	Enabled bool `json:"enabled"`

	// NextDueAt — следующее время срабатывания (UTC).
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего срабатывания.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastWorkflowID — workflow, созданный последним срабатыванием.
	LastWorkflowID *uuid.UUID `json:"last_workflow_id,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordRun фиксирует срабатывание и переносит next_due_at.
func (s *Schedule) RecordRun(workflowID uuid.UUID, nextDue time.Time) {
	now := time.Now()
	s.LastRunAt = &now
	s.LastWorkflowID = &workflowID
	s.NextDueAt = &nextDue
	s.UpdatedAt = now
}

// IsCron возвращает true, если schedule задан cron-выражением.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если schedule задан интервалом.
func (s *Schedule) IsInterval() bool {
	return s.IntervalSec > 0
}
