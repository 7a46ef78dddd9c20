package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Conveyor/internal/domain"
)

// WorkflowRepo — репозиторий для работы с workflows.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// Save вставляет или обновляет workflow (без задач).
func (r *WorkflowRepo) Save(ctx context.Context, wf *domain.Workflow) error {
	query := `
		INSERT INTO workflows (id, project_id, name, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
	`
	_, err := r.pool.Exec(ctx, query,
		wf.ID,
		wf.ProjectID,
		wf.Name,
		wf.CurrentStatus(),
		nullString(wf.IdempotencyKey),
		wf.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

// GetByID возвращает workflow по ID (без задач).
func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	query := `
		SELECT id, project_id, name, status, idempotency_key, created_at
		FROM workflows
		WHERE id = $1
	`
	return r.scanWorkflow(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey возвращает workflow по ключу идемпотентности.
func (r *WorkflowRepo) GetByIdempotencyKey(ctx context.Context, projectID uuid.UUID, key string) (*domain.Workflow, error) {
	query := `
		SELECT id, project_id, name, status, idempotency_key, created_at
		FROM workflows
		WHERE project_id = $1 AND idempotency_key = $2
	`
	return r.scanWorkflow(r.pool.QueryRow(ctx, query, projectID, key))
}

// WorkflowFilter — параметры фильтрации workflows.
type WorkflowFilter struct {
	ProjectID *uuid.UUID
	Status    domain.WorkflowStatus
	Limit     int
	Offset    int
}

// List возвращает список workflows с фильтрацией.
func (r *WorkflowRepo) List(ctx context.Context, filter WorkflowFilter) ([]domain.Workflow, error) {
	query := `
		SELECT id, project_id, name, status, idempotency_key, created_at
		FROM workflows
		WHERE ($1::uuid IS NULL OR project_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.ProjectID),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var wfs []domain.Workflow
	for rows.Next() {
		wf, err := r.scanWorkflowFromRows(rows)
		if err != nil {
			return nil, err
		}
		wfs = append(wfs, *wf)
	}
	return wfs, rows.Err()
}

// ListUnfinished возвращает workflows в статусе SUBMITTED.
// Источник для polling fallback монитора.
func (r *WorkflowRepo) ListUnfinished(ctx context.Context, limit int) ([]domain.Workflow, error) {
	query := `
		SELECT id, project_id, name, status, idempotency_key, created_at
		FROM workflows
		WHERE status = 'SUBMITTED'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unfinished workflows: %w", err)
	}
	defer rows.Close()

	var wfs []domain.Workflow
	for rows.Next() {
		wf, err := r.scanWorkflowFromRows(rows)
		if err != nil {
			return nil, err
		}
		wfs = append(wfs, *wf)
	}
	return wfs, rows.Err()
}

// --- Helpers ---

func (r *WorkflowRepo) scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var wf domain.Workflow
	var idempotencyKey *string

	err := row.Scan(
		&wf.ID,
		&wf.ProjectID,
		&wf.Name,
		&wf.Status,
		&idempotencyKey,
		&wf.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if idempotencyKey != nil {
		wf.IdempotencyKey = *idempotencyKey
	}
	return &wf, nil
}

func (r *WorkflowRepo) scanWorkflowFromRows(rows pgx.Rows) (*domain.Workflow, error) {
	var wf domain.Workflow
	var idempotencyKey *string

	err := rows.Scan(
		&wf.ID,
		&wf.ProjectID,
		&wf.Name,
		&wf.Status,
		&idempotencyKey,
		&wf.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if idempotencyKey != nil {
		wf.IdempotencyKey = *idempotencyKey
	}
	return &wf, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
