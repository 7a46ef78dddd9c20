package compute

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/batch/types"
)

// Describe принимает не больше 100 идентификаторов за вызов (лимит AWS).
const describeChunkSize = 100

// batchAPI — подмножество клиента AWS Batch, используемое пакетом.
type batchAPI interface {
	SubmitJob(ctx context.Context, params *batch.SubmitJobInput, optFns ...func(*batch.Options)) (*batch.SubmitJobOutput, error)
	DescribeJobs(ctx context.Context, params *batch.DescribeJobsInput, optFns ...func(*batch.Options)) (*batch.DescribeJobsOutput, error)
	ListJobs(ctx context.Context, params *batch.ListJobsInput, optFns ...func(*batch.Options)) (*batch.ListJobsOutput, error)
	TerminateJob(ctx context.Context, params *batch.TerminateJobInput, optFns ...func(*batch.Options)) (*batch.TerminateJobOutput, error)
}

// BatchService — реализация Service поверх AWS Batch.
type BatchService struct {
	client batchAPI
	logger *slog.Logger
}

// NewBatchService создаёт BatchService поверх готового клиента Batch.
func NewBatchService(client *batch.Client, logger *slog.Logger) *BatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchService{client: client, logger: logger}
}

// Submit отправляет задачу в AWS Batch.
func (s *BatchService) Submit(ctx context.Context, in SubmitInput) (string, error) {
	input := &batch.SubmitJobInput{
		JobName:       aws.String(in.Name),
		JobQueue:      aws.String(in.Queue),
		JobDefinition: aws.String(in.Definition),
		Parameters:    in.Parameters,
	}

	for _, id := range in.DependsOn {
		input.DependsOn = append(input.DependsOn, types.JobDependency{
			JobId: aws.String(id),
			Type:  types.ArrayJobDependencySequential,
		})
	}

	if in.TimeoutSec > 0 {
		input.Timeout = &types.JobTimeout{
			AttemptDurationSeconds: aws.Int32(in.TimeoutSec),
		}
	}

	out, err := s.client.SubmitJob(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSubmitFailed, in.Name, err)
	}
	if out.JobId == nil {
		return "", fmt.Errorf("%w: %s: empty job id in response", ErrSubmitFailed, in.Name)
	}

	s.logger.Info("job submitted",
		"name", in.Name,
		"queue", in.Queue,
		"remote_id", aws.ToString(out.JobId),
	)

	return aws.ToString(out.JobId), nil
}

// Describe возвращает детали задач, разбивая запрос на чанки по 100.
func (s *BatchService) Describe(ctx context.Context, remoteIDs []string) ([]JobDetail, error) {
	details := make([]JobDetail, 0, len(remoteIDs))

	for start := 0; start < len(remoteIDs); start += describeChunkSize {
		end := start + describeChunkSize
		if end > len(remoteIDs) {
			end = len(remoteIDs)
		}

		out, err := s.client.DescribeJobs(ctx, &batch.DescribeJobsInput{
			Jobs: remoteIDs[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDescribeFailed, err)
		}

		for _, j := range out.Jobs {
			details = append(details, toJobDetail(j))
		}
	}

	return details, nil
}

// ListActive возвращает детали всех незавершённых задач очереди.
// Batch отдаёт список отдельно по каждому статусу, детали добираются
// через Describe.
func (s *BatchService) ListActive(ctx context.Context, queue string) ([]JobDetail, error) {
	var ids []string

	for _, status := range activeBatchStatuses {
		var token *string
		for {
			out, err := s.client.ListJobs(ctx, &batch.ListJobsInput{
				JobQueue:  aws.String(queue),
				JobStatus: types.JobStatus(status),
				NextToken: token,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: list %s jobs in %s: %v", ErrDescribeFailed, status, queue, err)
			}

			for _, summary := range out.JobSummaryList {
				ids = append(ids, aws.ToString(summary.JobId))
			}

			if out.NextToken == nil {
				break
			}
			token = out.NextToken
		}
	}

	return s.Describe(ctx, ids)
}

// Cancel останавливает задачу. TerminateJob покрывает оба случая:
// ещё не запущенная задача отменяется, запущенная — убивается.
func (s *BatchService) Cancel(ctx context.Context, remoteID, reason string) error {
	_, err := s.client.TerminateJob(ctx, &batch.TerminateJobInput{
		JobId:  aws.String(remoteID),
		Reason: aws.String(reason),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCancelFailed, remoteID, err)
	}

	s.logger.Info("job cancelled", "remote_id", remoteID, "reason", reason)
	return nil
}

func toJobDetail(j types.JobDetail) JobDetail {
	d := JobDetail{
		RemoteID:     aws.ToString(j.JobId),
		Name:         aws.ToString(j.JobName),
		Definition:   aws.ToString(j.JobDefinition),
		Queue:        aws.ToString(j.JobQueue),
		Parameters:   j.Parameters,
		State:        NormalizeState(string(j.Status)),
		StatusReason: aws.ToString(j.StatusReason),
	}

	if j.Container != nil {
		d.LogStreamName = aws.ToString(j.Container.LogStreamName)
	}
	if j.StoppedAt != nil {
		t := time.UnixMilli(*j.StoppedAt)
		d.StoppedAt = &t
	}

	return d
}
