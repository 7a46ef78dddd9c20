package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval = 30 * time.Second
	defaultConcurrency  = 8
)

// OutputChecker — проверка существования выходных файлов задачи.
type OutputChecker interface {
	ExistAll(ctx context.Context, paths []string) (bool, error)
}

// Persister — опциональное сохранение состояния в БД.
type Persister interface {
	SaveWorkflow(ctx context.Context, wf *domain.Workflow) error
	SaveJob(ctx context.Context, job *domain.Job) error
}

// Monitor отслеживает отправленные workflow до их завершения.
type Monitor struct {
	compute compute.Service
	checker OutputChecker

	// Optional
	store     Persister
	publisher *mq.Publisher

	clock       clock.Clock
	interval    time.Duration
	concurrency int
	logger      *slog.Logger

	mu        sync.RWMutex
	workflows map[uuid.UUID]*domain.Workflow
}

// Config — конфигурация Monitor.
type Config struct {
	Compute compute.Service
	Checker OutputChecker

	Store     Persister     // nil — без персистентности
	Publisher *mq.Publisher // nil — без событий

	PollInterval time.Duration // default: 30s
	Concurrency  int           // параллелизм проверок выходов, default: 8
	Clock        clock.Clock   // default: real clock
	Logger       *slog.Logger  // default: slog.Default()
}

// New создаёт Monitor.
func New(cfg Config) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Monitor{
		compute:     cfg.Compute,
		checker:     cfg.Checker,
		store:       cfg.Store,
		publisher:   cfg.Publisher,
		clock:       cfg.Clock,
		interval:    cfg.PollInterval,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		workflows:   make(map[uuid.UUID]*domain.Workflow),
	}
}

// Track добавляет workflow под наблюдение.
func (m *Monitor) Track(wf *domain.Workflow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[wf.ID] = wf
	m.logger.Info("tracking workflow", "workflow_id", wf.ID, "jobs", wf.Size())
}

// Tracked возвращает отслеживаемые workflow.
func (m *Monitor) Tracked() []*domain.Workflow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wfs := make([]*domain.Workflow, 0, len(m.workflows))
	for _, wf := range m.workflows {
		wfs = append(wfs, wf)
	}
	return wfs
}

// Run крутит цикл опроса до отмены контекста.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "interval", m.interval)

	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll выполняет один цикл опроса по всем отслеживаемым workflow.
func (m *Monitor) Poll(ctx context.Context) {
	tracked := m.activeJobs()
	if len(tracked) == 0 {
		m.finalizeDone(ctx)
		return
	}

	// Один Describe на цикл: чанкование по лимиту сервиса внутри клиента
	remoteIDs := make([]string, 0, len(tracked))
	for _, t := range tracked {
		remoteIDs = append(remoteIDs, t.job.RemoteID)
	}

	details, err := m.compute.Describe(ctx, remoteIDs)
	if err != nil {
		telemetry.PollErrors.Inc()
		m.logger.Warn("poll cycle failed, will retry next tick", "error", err)
		return
	}

	byRemoteID := make(map[string]compute.JobDetail, len(details))
	for _, d := range details {
		byRemoteID[d.RemoteID] = d
	}

	// Выходы проверяются параллельно, по одной горутине на задачу.
	// Каждая задача принадлежит ровно одному воркеру, а мутации её
	// состояния идут под локом workflow-владельца: API и отчёты читают
	// те же задачи из своих горутин.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for _, t := range tracked {
		detail, known := byRemoteID[t.job.RemoteID]
		g.Go(func() error {
			m.reconcile(gctx, t, detail, known)
			return nil
		})
	}
	g.Wait()

	m.finalizeDone(ctx)
	m.updateGauges()
	telemetry.PollCycles.Inc()
}

// trackedJob связывает задачу с workflow-владельцем: лок графа нужен
// для мутаций состояния задачи.
type trackedJob struct {
	wf  *domain.Workflow
	job *domain.Job
}

// activeJobs собирает отправленные незавершённые задачи всех workflow.
func (m *Monitor) activeJobs() []trackedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tracked []trackedJob
	for _, wf := range m.workflows {
		for _, job := range wf.Jobs() {
			if job.IsSubmitted() && !job.IsTerminal() {
				tracked = append(tracked, trackedJob{wf: wf, job: job})
			}
		}
	}
	return tracked
}

// reconcile сводит состояние одной задачи из статуса сервиса
// и существования выходов.
func (m *Monitor) reconcile(ctx context.Context, t trackedJob, detail compute.JobDetail, known bool) {
	job := t.job
	prev := job.State

	// Output-truth первым: существующий результат закрывает задачу
	// независимо от статуса сервиса
	done, err := m.checker.ExistAll(ctx, job.Outputs)
	if err != nil {
		// Недоступное хранилище не повод трогать состояние —
		// решит статус сервиса, выходы проверим в следующем цикле
		m.logger.Warn("output check failed",
			"job", job.Name, "sample", job.Sample, "error", err)
	} else if done {
		t.wf.MutateJob(job, func(j *domain.Job) {
			j.MarkSucceededByOutput()
		})
		m.afterTransition(ctx, job, prev)
		return
	}

	if !known {
		// Задача исчезла из истории сервиса, выходов нет.
		// Состояние не трогаем: решение о пересабмите за оператором.
		t.wf.MutateJob(job, func(j *domain.Job) {
			j.Error = compute.ErrUnknownJob.Error()
		})
		m.logger.Warn("job unknown to compute service",
			"job", job.Name, "remote_id", job.RemoteID)
		return
	}

	t.wf.MutateJob(job, func(j *domain.Job) {
		switch detail.State {
		case domain.JobStateFailed:
			if j.AdvanceTo(domain.JobStateFailed) {
				j.Error = detail.StatusReason
			}
		default:
			// AdvanceTo сам отбрасывает регрессии: если сервис вдруг
			// показал более раннее состояние, задача остаётся на месте
			j.AdvanceTo(detail.State)
		}
	})

	m.afterTransition(ctx, job, prev)
}

// afterTransition публикует событие и сохраняет задачу, если состояние
// изменилось.
func (m *Monitor) afterTransition(ctx context.Context, job *domain.Job, prev domain.JobState) {
	if job.State == prev {
		return
	}

	m.logger.Info("job state changed",
		"job", job.Name,
		"sample", job.Sample,
		"from", prev,
		"to", job.State,
		"completed_by", job.CompletedBy,
	)

	if m.store != nil {
		if err := m.store.SaveJob(ctx, job); err != nil {
			m.logger.Warn("failed to persist job", "job", job.Name, "error", err)
		}
	}

	if m.publisher != nil {
		err := m.publisher.PublishJobStateChanged(ctx, mq.JobStateChangedPayload{
			JobID:       job.ID,
			WorkflowID:  job.WorkflowID,
			Sample:      job.Sample,
			Stage:       job.Stage,
			State:       string(job.State),
			CompletedBy: string(job.CompletedBy),
			Error:       job.Error,
		})
		if err != nil {
			m.logger.Warn("failed to publish job event", "job", job.Name, "error", err)
		}
	}
}

// finalizeDone закрывает workflow, у которых не осталось живых задач.
func (m *Monitor) finalizeDone(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, wf := range m.workflows {
		if wf.CurrentStatus().IsTerminal() {
			// Отменён или закрыт извне — наблюдать больше нечего
			delete(m.workflows, id)
			continue
		}
		if !wf.AllTerminal() {
			continue
		}

		wf.SetStatus(domain.WorkflowStatusCompleted)
		if m.store != nil {
			if err := m.store.SaveWorkflow(ctx, wf); err != nil {
				m.logger.Warn("failed to persist workflow", "workflow_id", id, "error", err)
			}
		}

		m.logger.Info("workflow finished",
			"workflow_id", id,
			"name", wf.Name,
			"jobs", wf.Size(),
			"failed", len(wf.FailedJobs()),
			"all_succeeded", wf.AllSucceeded(),
		)
		delete(m.workflows, id)
	}
}

// updateGauges обновляет метрику распределения задач по состояниям.
func (m *Monitor) updateGauges() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[domain.JobState]int)
	for _, wf := range m.workflows {
		for _, job := range wf.SnapshotJobs() {
			counts[job.State]++
		}
	}

	for _, state := range []domain.JobState{
		domain.JobStateNotSubmitted,
		domain.JobStateSubmitted,
		domain.JobStateRunnable,
		domain.JobStateRunning,
		domain.JobStateSucceeded,
		domain.JobStateFailed,
	} {
		telemetry.JobsByState.WithLabelValues(string(state)).Set(float64(counts[state]))
	}
}
