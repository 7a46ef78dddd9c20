package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Conveyor/internal/domain"
)

// JobRepo — репозиторий для работы с jobs.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Save вставляет или обновляет задачу.
func (r *JobRepo) Save(ctx context.Context, job *domain.Job) error {
	parametersJSON, err := json.Marshal(job.Parameters)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	outputsJSON, err := json.Marshal(job.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	upstreamsJSON, err := json.Marshal(job.Upstreams)
	if err != nil {
		return fmt.Errorf("marshal upstreams: %w", err)
	}

	query := `
		INSERT INTO jobs (id, workflow_id, sample, stage, name, definition, queue,
		                  parameters, outputs, upstreams, timeout_sec, identity,
		                  remote_id, state, completed_by, error,
		                  submitted_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			remote_id    = EXCLUDED.remote_id,
			state        = EXCLUDED.state,
			completed_by = EXCLUDED.completed_by,
			error        = EXCLUDED.error,
			submitted_at = EXCLUDED.submitted_at,
			finished_at  = EXCLUDED.finished_at
	`
	_, err = r.pool.Exec(ctx, query,
		job.ID,
		job.WorkflowID,
		job.Sample,
		job.Stage,
		job.Name,
		job.Definition,
		job.Queue,
		parametersJSON,
		outputsJSON,
		upstreamsJSON,
		job.TimeoutSec,
		job.Identity,
		nullString(job.RemoteID),
		job.State,
		nullString(string(job.CompletedBy)),
		nullString(job.Error),
		job.SubmittedAt,
		job.FinishedAt,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

// ListByWorkflow возвращает задачи workflow в порядке создания.
// Порядок существенен: Restore replays задачи, upstream должен идти
// раньше зависимых.
func (r *JobRepo) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*domain.Job, error) {
	query := `
		SELECT id, workflow_id, sample, stage, name, definition, queue,
		       parameters, outputs, upstreams, timeout_sec, identity,
		       remote_id, state, completed_by, error,
		       submitted_at, finished_at, created_at
		FROM jobs
		WHERE workflow_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// scanJob сканирует строку из rows в Job.
func scanJob(rows pgx.Rows) (*domain.Job, error) {
	var job domain.Job
	var parametersJSON, outputsJSON, upstreamsJSON []byte
	var remoteID, completedBy, jobError *string

	err := rows.Scan(
		&job.ID,
		&job.WorkflowID,
		&job.Sample,
		&job.Stage,
		&job.Name,
		&job.Definition,
		&job.Queue,
		&parametersJSON,
		&outputsJSON,
		&upstreamsJSON,
		&job.TimeoutSec,
		&job.Identity,
		&remoteID,
		&job.State,
		&completedBy,
		&jobError,
		&job.SubmittedAt,
		&job.FinishedAt,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if parametersJSON != nil {
		if err := json.Unmarshal(parametersJSON, &job.Parameters); err != nil {
			return nil, fmt.Errorf("unmarshal parameters: %w", err)
		}
	}
	if outputsJSON != nil {
		if err := json.Unmarshal(outputsJSON, &job.Outputs); err != nil {
			return nil, fmt.Errorf("unmarshal outputs: %w", err)
		}
	}
	if upstreamsJSON != nil {
		if err := json.Unmarshal(upstreamsJSON, &job.Upstreams); err != nil {
			return nil, fmt.Errorf("unmarshal upstreams: %w", err)
		}
	}

	if remoteID != nil {
		job.RemoteID = *remoteID
	}
	if completedBy != nil {
		job.CompletedBy = domain.CompletionKind(*completedBy)
	}
	if jobError != nil {
		job.Error = *jobError
	}

	return &job, nil
}
