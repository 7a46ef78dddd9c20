package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job — единица оркестрации: одна задача на внешнем batch-сервисе.
//
// Job создаётся при построении workflow из шаблона (по одному на пару
// sample × stage) и проходит через Resolver (отправка) и Monitor
// (отслеживание). Remote-состояние обновляется только по данным сервиса
// или по output-truth — никогда по догадке.
type Job struct {
	// ID — внутренний идентификатор задачи.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ссылка на родительский workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Sample — идентификатор образца, для которого выполняется задача.
	Sample string `json:"sample"`

	// Stage — ID стадии из шаблона workflow.
	Stage string `json:"stage"`

	// Name — имя задачи на внешнем сервисе.
	// Сервис не принимает точки, слэши и дефисы — они заменяются на "_".
	Name string `json:"name"`

	// Definition — ссылка на job definition (имя:ревизия).
	Definition string `json:"definition"`

	// Queue — очередь внешнего сервиса.
	Queue string `json:"queue"`

	// Parameters — разрешённый (уже без плейсхолдеров) маппинг параметров.
	Parameters map[string]string `json:"parameters,omitempty"`

	// Outputs — полностью разрешённые пути выходных файлов (s3://...).
	// Задача логически завершена, когда существуют все.
	Outputs []string `json:"outputs"`

	// Upstreams — ID задач, которые должны успешно завершиться
	// до запуска этой. Ссылки, не копии: мутация состояния upstream
	// видна всем зависимым задачам через Workflow.
	Upstreams []uuid.UUID `json:"upstreams,omitempty"`

	// TimeoutSec — лимит длительности попытки на сервисе. 0 — дефолт сервиса.
	TimeoutSec int32 `json:"timeout_sec,omitempty"`

	// Identity — каноничный ключ задачи для дедупликации
	// (hash от definition + parameters + queue).
	Identity string `json:"identity"`

	// RemoteID — идентификатор, выданный внешним сервисом.
	// Пустой до отправки.
	RemoteID string `json:"remote_id,omitempty"`

	// State — последнее известное remote-состояние.
	State JobState `json:"state"`

	// CompletedBy — как задача достигла SUCCEEDED: "exit" или "output".
	// Пустое, пока задача не завершена успешно.
	CompletedBy CompletionKind `json:"completed_by,omitempty"`

	// Error — текст последней ошибки (отказ отправки, причина FAILED).
	Error string `json:"error,omitempty"`

	// SubmittedAt — время отправки на сервис.
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	// FinishedAt — время достижения терминального состояния.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at"`
}

// IsTerminal возвращает true, если задача в финальном состоянии.
func (j *Job) IsTerminal() bool {
	return j.State.IsTerminal()
}

// IsSubmitted возвращает true, если задача известна внешнему сервису.
func (j *Job) IsSubmitted() bool {
	return j.RemoteID != ""
}

// AdvanceTo переводит задачу в состояние next, если переход допустим.
// Возвращает false без изменений при попытке регрессии — состояние
// задачи в рамках одной сессии мониторинга монотонно.
func (j *Job) AdvanceTo(next JobState) bool {
	if !j.State.CanAdvanceTo(next) {
		return false
	}
	j.State = next
	if next.IsTerminal() {
		now := time.Now()
		j.FinishedAt = &now
		if next == JobStateSucceeded && j.CompletedBy == "" {
			j.CompletedBy = CompletedByExit
		}
	}
	return true
}

// MarkSubmitted фиксирует успешную отправку на сервис.
func (j *Job) MarkSubmitted(remoteID string) {
	now := time.Now()
	j.RemoteID = remoteID
	j.SubmittedAt = &now
	j.AdvanceTo(JobStateSubmitted)
}

// MarkSucceededByOutput помечает задачу завершённой по output-truth.
// Допустимо из любого состояния, включая FAILED на сервисе:
// существующий результат важнее exit-кода.
func (j *Job) MarkSucceededByOutput() {
	if j.State == JobStateSucceeded {
		return
	}
	now := time.Now()
	j.State = JobStateSucceeded
	j.CompletedBy = CompletedByOutput
	j.FinishedAt = &now
}

// MarkFailed помечает задачу упавшей с указанием причины.
func (j *Job) MarkFailed(reason string) {
	if j.AdvanceTo(JobStateFailed) {
		j.Error = reason
	}
}

// ResetForResubmit сбрасывает remote-состояние упавшей задачи перед
// повторной отправкой. Вызывается только оператором через resubmit —
// автоматических ретраев в движке нет.
func (j *Job) ResetForResubmit() {
	j.RemoteID = ""
	j.State = JobStateNotSubmitted
	j.CompletedBy = ""
	j.Error = ""
	j.SubmittedAt = nil
	j.FinishedAt = nil
}
