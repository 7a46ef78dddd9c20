package orchestrator

import (
	"errors"
	"fmt"
)

// Ошибки пакета orchestrator.
var (
	// ErrDependencyBlocked — задачу нельзя сабмитить: upstream провален
	// или не был отправлен и не завершён по выходам.
	ErrDependencyBlocked = errors.New("orchestrator: dependency blocked")

	// ErrWorkflowCancelled — сессия отменена, новые сабмиты не принимаются.
	ErrWorkflowCancelled = errors.New("orchestrator: workflow cancelled")

	// ErrJobNotFailed — пересабмит допустим только для проваленных задач.
	ErrJobNotFailed = errors.New("orchestrator: job is not in FAILED state")
)

// SubmissionError — ошибка сабмита конкретной задачи с контекстом.
type SubmissionError struct {
	JobName  string
	Identity string
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s (identity %.12s): %v", e.JobName, e.Identity, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
