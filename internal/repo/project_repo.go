package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Conveyor/internal/domain"
)

// ProjectRepo — репозиторий для работы с projects и samples.
type ProjectRepo struct {
	pool *pgxpool.Pool
}

// NewProjectRepo создаёт новый ProjectRepo.
func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

// Create создаёт новый project.
func (r *ProjectRepo) Create(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.pool.Exec(ctx, query, project.ID, project.Name, project.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", project.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID возвращает project по ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `
		SELECT id, name, created_at
		FROM projects
		WHERE id = $1
	`
	var p domain.Project
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}

// GetByName возвращает project по имени.
func (r *ProjectRepo) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	query := `
		SELECT id, name, created_at
		FROM projects
		WHERE name = $1
	`
	var p domain.Project
	err := r.pool.QueryRow(ctx, query, name).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}

// List возвращает все projects.
func (r *ProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	query := `
		SELECT id, name, created_at
		FROM projects
		ORDER BY name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// AddSample добавляет sample в project. Повторное добавление sample
// с тем же именем обновляет метаданные.
func (r *ProjectRepo) AddSample(ctx context.Context, sample *domain.Sample) error {
	metadataJSON, err := json.Marshal(sample.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO samples (id, project_id, name, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, name) DO UPDATE SET metadata = EXCLUDED.metadata
	`
	_, err = r.pool.Exec(ctx, query,
		sample.ID,
		sample.ProjectID,
		sample.Name,
		metadataJSON,
		sample.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// ListSamples возвращает samples проекта.
func (r *ProjectRepo) ListSamples(ctx context.Context, projectID uuid.UUID) ([]domain.Sample, error) {
	query := `
		SELECT id, project_id, name, metadata, created_at
		FROM samples
		WHERE project_id = $1
		ORDER BY name ASC
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.Sample
	for rows.Next() {
		var s domain.Sample
		var metadataJSON []byte
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Name, &metadataJSON, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &s.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// isUniqueViolation проверяет ошибку на конфликт уникальности (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
