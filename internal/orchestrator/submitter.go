package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// AddJob проводит задачу через фиксированный порядок проверок и,
// если ни одна не сняла необходимость, сабмитит её.
//
// Порядок существенен: существующий результат важнее статуса сервиса,
// живая задача с тем же identity важнее нового сабмита, непригодный
// upstream блокирует сабмит до вмешательства оператора.
func (s *Session) AddJob(ctx context.Context, job *domain.Job) error {
	if s.isCancelled() {
		return ErrWorkflowCancelled
	}
	if job.IsTerminal() {
		return nil
	}

	// Шаг 1: output-truth
	done, err := s.checker.ExistAll(ctx, job.Outputs)
	if err != nil {
		return &SubmissionError{JobName: job.Name, Identity: job.Identity, Err: err}
	}
	if done {
		job.MarkSucceededByOutput()
		telemetry.OutputSkips.Inc()
		s.logger.Info("outputs already exist, skipping submit",
			"job", job.Name, "sample", job.Sample)
		s.persistJob(ctx, job)
		return nil
	}

	// Шаг 2: дедупликация по identity
	entry, hit, err := s.registry.Lookup(ctx, job.Identity, job.Queue)
	if err != nil {
		return &SubmissionError{JobName: job.Name, Identity: job.Identity, Err: err}
	}
	if hit {
		job.MarkSubmitted(entry.RemoteID)
		job.AdvanceTo(entry.State)
		telemetry.DedupHits.Inc()
		s.logger.Info("reusing existing job",
			"job", job.Name, "remote_id", entry.RemoteID, "state", entry.State)
		s.persistJob(ctx, job)
		return nil
	}

	// Шаг 3: ворота по upstream-задачам
	dependsOn, err := s.upstreamGate(job)
	if err != nil {
		job.Error = err.Error()
		return err
	}

	// Шаг 4: сабмит
	if s.dryRun {
		s.logger.Info("dry-run: would submit job",
			"job", job.Name, "queue", job.Queue, "depends_on", len(dependsOn))
		return nil
	}

	remoteID, err := s.compute.Submit(ctx, compute.SubmitInput{
		Name:       job.Name,
		Definition: job.Definition,
		Queue:      job.Queue,
		Parameters: job.Parameters,
		DependsOn:  dependsOn,
		TimeoutSec: job.TimeoutSec,
	})
	if err != nil {
		job.MarkFailed(err.Error())
		telemetry.SubmissionErrors.Inc()
		s.persistJob(ctx, job)
		return &SubmissionError{JobName: job.Name, Identity: job.Identity, Err: err}
	}

	job.MarkSubmitted(remoteID)
	s.registry.Record(job.Identity, remoteID, domain.JobStateSubmitted)
	telemetry.Submissions.WithLabelValues(job.Queue).Inc()
	s.persistJob(ctx, job)
	return nil
}

// upstreamGate проверяет пригодность upstream-задач и собирает remote IDs
// для dependsOn. Upstream, завершённый по выходам, в dependsOn не попадает:
// сервису не на что ссылаться, да и незачем.
func (s *Session) upstreamGate(job *domain.Job) ([]string, error) {
	var dependsOn []string

	for _, up := range s.workflow.UpstreamsOf(job) {
		switch {
		case up.State == domain.JobStateFailed:
			return nil, fmt.Errorf("%w: upstream %s failed: %s",
				ErrDependencyBlocked, up.Name, up.Error)
		case up.State == domain.JobStateSucceeded:
			// выходы есть, зависимость удовлетворена
		case up.IsSubmitted():
			dependsOn = append(dependsOn, up.RemoteID)
		default:
			return nil, fmt.Errorf("%w: upstream %s was not submitted",
				ErrDependencyBlocked, up.Name)
		}
	}

	return dependsOn, nil
}

// SubmitWorkflow добавляет все задачи workflow в топологическом порядке.
//
// Ошибка одной задачи не прерывает обход: независимые цепочки
// продолжают сабмититься, провалы собираются в одну ошибку.
func (s *Session) SubmitWorkflow(ctx context.Context) error {
	var errs []error

	for _, job := range s.workflow.Jobs() {
		if err := s.AddJob(ctx, job); err != nil {
			s.logger.Error("failed to add job",
				"job", job.Name, "sample", job.Sample, "error", err)
			errs = append(errs, err)
		}
	}

	s.workflow.SetStatus(domain.WorkflowStatusSubmitted)
	if s.store != nil {
		if err := s.store.SaveWorkflow(ctx, s.workflow); err != nil {
			s.logger.Warn("failed to persist workflow", "error", err)
		}
	}

	if s.publisher != nil && !s.dryRun {
		err := s.publisher.PublishWorkflowSubmitted(ctx, mq.WorkflowSubmittedPayload{
			WorkflowID: s.workflow.ID,
			ProjectID:  s.workflow.ProjectID,
			Name:       s.workflow.Name,
			JobCount:   s.workflow.Size(),
		})
		if err != nil {
			s.logger.Warn("failed to publish workflow event", "error", err)
		}
	}

	return errors.Join(errs...)
}

// ResubmitFailed сбрасывает проваленные задачи и проводит их через AddJob
// заново. Возвращает количество задач, ушедших на повторный сабмит.
func (s *Session) ResubmitFailed(ctx context.Context) (int, error) {
	failed := s.workflow.FailedJobs()
	if len(failed) == 0 {
		return 0, nil
	}

	var (
		count int
		errs  []error
	)

	for _, job := range failed {
		if err := s.resubmitOne(ctx, job); err != nil {
			errs = append(errs, err)
			continue
		}
		count++
		s.logger.Info("job resubmitted", "job", job.Name, "remote_id", job.RemoteID)
	}

	return count, errors.Join(errs...)
}

// ResubmitJob сбрасывает одну задачу по ID и проводит её через AddJob
// заново. Возвращает ErrJobNotFailed, если задача не в FAILED:
// точечный пересабмит чинит провалы, живые и успешные задачи не трогает.
func (s *Session) ResubmitJob(ctx context.Context, jobID uuid.UUID) error {
	job, ok := s.workflow.Job(jobID)
	if !ok {
		return fmt.Errorf("job %s not found in workflow", jobID)
	}
	if job.State != domain.JobStateFailed {
		return fmt.Errorf("%w: %s is %s", ErrJobNotFailed, job.Name, job.State)
	}

	if err := s.resubmitOne(ctx, job); err != nil {
		return err
	}
	s.logger.Info("job resubmitted", "job", job.Name, "remote_id", job.RemoteID)
	return nil
}

// resubmitOne забывает прошлую жизнь задачи (реестр, кэш выходов,
// состояние) и сабмитит её заново.
func (s *Session) resubmitOne(ctx context.Context, job *domain.Job) error {
	s.registry.Forget(job.Identity)
	for _, out := range job.Outputs {
		s.checker.Invalidate(out)
	}
	job.ResetForResubmit()
	return s.AddJob(ctx, job)
}

// CancelWorkflow останавливает все живые задачи workflow и закрывает
// сессию для новых сабмитов.
func (s *Session) CancelWorkflow(ctx context.Context, reason string) error {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()

	var errs []error

	for _, job := range s.workflow.Jobs() {
		if !job.IsSubmitted() || job.IsTerminal() {
			continue
		}
		if err := s.compute.Cancel(ctx, job.RemoteID, reason); err != nil {
			errs = append(errs, err)
			continue
		}
		job.MarkFailed("cancelled: " + reason)
		s.persistJob(ctx, job)
	}

	s.workflow.SetStatus(domain.WorkflowStatusCancelled)
	if s.store != nil {
		if err := s.store.SaveWorkflow(ctx, s.workflow); err != nil {
			s.logger.Warn("failed to persist workflow", "error", err)
		}
	}

	return errors.Join(errs...)
}
