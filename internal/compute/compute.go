package compute

import (
	"context"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Service — управляемый вычислительный сервис.
//
// Все методы возвращают нормализованные доменные состояния,
// специфичные для провайдера статусы наружу не выходят.
type Service interface {
	// Submit отправляет задачу и возвращает её идентификатор в сервисе.
	Submit(ctx context.Context, in SubmitInput) (string, error)

	// Describe возвращает детали задач по идентификаторам.
	// Неизвестные сервису идентификаторы молча пропускаются:
	// вызывающий код сверяет ответ с запросом.
	Describe(ctx context.Context, remoteIDs []string) ([]JobDetail, error)

	// ListActive возвращает детали всех незавершённых задач очереди.
	ListActive(ctx context.Context, queue string) ([]JobDetail, error)

	// Cancel останавливает задачу с указанием причины.
	Cancel(ctx context.Context, remoteID, reason string) error
}

// SubmitInput — параметры сабмита задачи.
type SubmitInput struct {
	Name       string
	Definition string
	Queue      string
	Parameters map[string]string
	DependsOn  []string // remote IDs незавершённых upstream-задач
	TimeoutSec int32    // 0 — дефолт сервиса
}

// JobDetail — состояние задачи в сервисе.
type JobDetail struct {
	RemoteID      string
	Name          string
	Definition    string
	Queue         string
	Parameters    map[string]string
	State         domain.JobState
	StatusReason  string
	LogStreamName string
	StoppedAt     *time.Time
}

// NormalizeState приводит статус AWS Batch к доменному состоянию.
//
// Batch различает восемь статусов, домен — пять активных/терминальных:
// PENDING схлопывается в SUBMITTED, STARTING — в RUNNING. Неизвестный
// статус трактуется как SUBMITTED: задача существует, деталей нет.
func NormalizeState(batchStatus string) domain.JobState {
	switch batchStatus {
	case "SUBMITTED", "PENDING":
		return domain.JobStateSubmitted
	case "RUNNABLE":
		return domain.JobStateRunnable
	case "STARTING", "RUNNING":
		return domain.JobStateRunning
	case "SUCCEEDED":
		return domain.JobStateSucceeded
	case "FAILED":
		return domain.JobStateFailed
	default:
		return domain.JobStateSubmitted
	}
}

// activeBatchStatuses — статусы Batch, в которых задача ещё не завершилась.
var activeBatchStatuses = []string{
	"SUBMITTED", "PENDING", "RUNNABLE", "STARTING", "RUNNING",
}
