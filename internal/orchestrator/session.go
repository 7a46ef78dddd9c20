package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/registry"
)

// OutputChecker — проверка существования выходных файлов задачи.
type OutputChecker interface {
	ExistAll(ctx context.Context, paths []string) (bool, error)
	Invalidate(path string)
}

// Deduper — реестр известных задач для дедупликации сабмитов.
type Deduper interface {
	Lookup(ctx context.Context, identity, queue string) (registry.Entry, bool, error)
	Record(identity, remoteID string, state domain.JobState)
	Forget(identity string)
}

// Persister — опциональное сохранение состояния в БД.
type Persister interface {
	SaveWorkflow(ctx context.Context, wf *domain.Workflow) error
	SaveJob(ctx context.Context, job *domain.Job) error
}

// Session — явный координатор сабмита одного workflow.
//
// Каждая сессия независима: свой workflow, свой кэш проверок, свой
// реестр. Несколько сессий могут работать параллельно с разными
// workflow без разделяемого состояния.
type Session struct {
	workflow *domain.Workflow
	checker  OutputChecker
	registry Deduper
	compute  compute.Service

	// Optional
	store     Persister
	publisher *mq.Publisher

	logger *slog.Logger
	dryRun bool

	mu        sync.Mutex
	cancelled bool
}

// SessionConfig — конфигурация Session.
type SessionConfig struct {
	Workflow *domain.Workflow
	Checker  OutputChecker
	Registry Deduper
	Compute  compute.Service

	Store     Persister     // nil — без персистентности
	Publisher *mq.Publisher // nil — без событий

	Logger *slog.Logger // default: slog.Default()
	DryRun bool
}

// NewSession создаёт сессию для workflow.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		workflow:  cfg.Workflow,
		checker:   cfg.Checker,
		registry:  cfg.Registry,
		compute:   cfg.Compute,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		logger:    logger,
		dryRun:    cfg.DryRun,
	}
}

// Workflow возвращает workflow сессии.
func (s *Session) Workflow() *domain.Workflow {
	return s.workflow
}

// DryRun возвращает true, если сессия работает без реальных сабмитов.
func (s *Session) DryRun() bool {
	return s.dryRun
}

func (s *Session) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// persistJob сохраняет задачу, если сессии дали хранилище.
// Ошибка сохранения не роняет сабмит: истина о задачах живёт
// в вычислительном сервисе и в выходных файлах, БД — отражение.
func (s *Session) persistJob(ctx context.Context, job *domain.Job) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		s.logger.Warn("failed to persist job", "job", job.Name, "error", err)
	}
}
