package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Conveyor/internal/domain"
)

// Store объединяет репозитории под единым фасадом.
//
// SaveWorkflow/SaveJob реализуют персистентность для Session и Monitor,
// LoadWorkflow восстанавливает workflow с задачами для polling fallback.
type Store struct {
	Projects  *ProjectRepo
	Workflows *WorkflowRepo
	Jobs      *JobRepo
	Schedules *ScheduleRepo

	pool *pgxpool.Pool
}

// NewStore создаёт Store поверх пула соединений.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Projects:  NewProjectRepo(pool),
		Workflows: NewWorkflowRepo(pool),
		Jobs:      NewJobRepo(pool),
		Schedules: NewScheduleRepo(pool),
		pool:      pool,
	}
}

// Close закрывает пул соединений.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveWorkflow сохраняет workflow вместе со всеми задачами.
func (s *Store) SaveWorkflow(ctx context.Context, wf *domain.Workflow) error {
	if err := s.Workflows.Save(ctx, wf); err != nil {
		return err
	}
	for _, job := range wf.Jobs() {
		if err := s.Jobs.Save(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

// SaveJob сохраняет одну задачу.
func (s *Store) SaveJob(ctx context.Context, job *domain.Job) error {
	return s.Jobs.Save(ctx, job)
}

// LoadWorkflow восстанавливает workflow с задачами из БД.
func (s *Store) LoadWorkflow(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	wf, err := s.Workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	jobs, err := s.Jobs.ListByWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := wf.Restore(jobs); err != nil {
		return nil, fmt.Errorf("restore workflow %s: %w", id, err)
	}
	return wf, nil
}
