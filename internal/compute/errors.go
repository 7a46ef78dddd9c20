package compute

import "errors"

// Ошибки пакета compute.
var (
	// ErrSubmitFailed — сервис не принял задачу.
	ErrSubmitFailed = errors.New("compute: job submission failed")

	// ErrDescribeFailed — не удалось получить статусы задач.
	ErrDescribeFailed = errors.New("compute: describe jobs failed")

	// ErrUnknownJob — сервис не знает задачу с таким идентификатором.
	// Обычно означает, что задача вышла за горизонт хранения истории.
	ErrUnknownJob = errors.New("compute: unknown job id")

	// ErrCancelFailed — не удалось отменить задачу.
	ErrCancelFailed = errors.New("compute: job cancellation failed")
)
