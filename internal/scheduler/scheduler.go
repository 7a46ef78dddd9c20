package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/repo"
)

// SubmitFunc отправляет построенный workflow.
// Демон подставляет сюда создание Session и SubmitWorkflow.
type SubmitFunc func(ctx context.Context, wf *domain.Workflow) error

// Scheduler — планировщик, обрабатывающий due schedules.
type Scheduler struct {
	store     *repo.Store
	submit    SubmitFunc
	logger    *slog.Logger
	batchSize int
}

// Config — конфигурация Scheduler.
type Config struct {
	Store     *repo.Store
	Submit    SubmitFunc
	Logger    *slog.Logger
	BatchSize int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		store:     cfg.Store,
		submit:    cfg.Submit,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого строит workflow из шаблона и отправляет
// 3. Обновляет next_due_at
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.store.Schedules.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, created int
	for i := range schedules {
		sched := &schedules[i]

		wfCreated, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		if wfCreated {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"workflows_created", created,
	)

	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если workflow был создан (не был дубликатом).
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// 1. Проект и его образцы
	project, err := s.store.Projects.GetByID(ctx, sched.ProjectID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn("project not found for schedule, skipping",
				"schedule_id", sched.ID,
				"project_id", sched.ProjectID,
			)
			return false, nil
		}
		return false, fmt.Errorf("get project: %w", err)
	}

	samples, err := s.store.Projects.ListSamples(ctx, sched.ProjectID)
	if err != nil {
		return false, fmt.Errorf("list samples: %w", err)
	}
	if len(samples) == 0 {
		s.logger.Warn("project has no samples, skipping schedule",
			"schedule_id", sched.ID, "project", project.Name)
		return false, nil
	}

	// 2. Ключ идемпотентности: "{schedule_id}_{next_due_at_unix}".
	// Для одного schedule и конкретного времени срабатывания
	// создаётся ровно один workflow
	idempKey := fmt.Sprintf("%s_%d", sched.ID, sched.NextDueAt.Unix())

	existing, err := s.store.Workflows.GetByIdempotencyKey(ctx, sched.ProjectID, idempKey)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("check idempotency: %w", err)
	}

	var wfCreated bool
	var workflowID uuid.UUID

	if existing != nil {
		// Workflow уже существует — просто переносим next_due_at
		s.logger.Debug("workflow already exists (idempotency)",
			"schedule_id", sched.ID,
			"workflow_id", existing.ID,
			"idempotency_key", idempKey,
		)
		workflowID = existing.ID
	} else {
		// 3. Строим workflow из шаблона по текущим образцам
		wf, err := engine.BuildWorkflow(project, samples, &sched.Template)
		if err != nil {
			return false, fmt.Errorf("build workflow: %w", err)
		}
		wf.IdempotencyKey = idempKey

		// 4. Отправляем. Session внутри сам сохранит workflow и задачи
		if err := s.submit(ctx, wf); err != nil {
			s.logger.Warn("workflow submitted with errors",
				"workflow_id", wf.ID,
				"schedule_id", sched.ID,
				"error", err,
			)
		}

		s.logger.Info("created workflow from schedule",
			"workflow_id", wf.ID,
			"schedule_id", sched.ID,
			"schedule_name", sched.Name,
			"jobs", wf.Size(),
		)

		workflowID = wf.ID
		wfCreated = true
	}

	// 5. Вычисляем следующее время срабатывания
	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		s.logger.Error("failed to calculate next due, leaving schedule as is",
			"schedule_id", sched.ID,
			"error", err,
		)
		return wfCreated, nil
	}

	// 6. Обновляем schedule
	sched.RecordRun(workflowID, nextDue)
	if err := s.store.Schedules.Update(ctx, sched); err != nil {
		return wfCreated, fmt.Errorf("update schedule: %w", err)
	}

	return wfCreated, nil
}
