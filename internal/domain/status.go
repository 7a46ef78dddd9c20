package domain

// JobState — состояние задачи на внешнем вычислительном сервисе.
//
// Жизненный цикл:
//
//	NOT_SUBMITTED → SUBMITTED → RUNNABLE → RUNNING → SUCCEEDED
//	                                               ↘ FAILED
//
// Плюс override по output-truth: если все выходные файлы задачи уже
// существуют в хранилище, задача считается SUCCEEDED из любого состояния,
// независимо от кода завершения на сервисе.
type JobState string

const (
	// JobStateNotSubmitted — задача создана локально, но не отправлена.
	JobStateNotSubmitted JobState = "NOT_SUBMITTED"

	// JobStateSubmitted — задача принята сервисом, ждёт планирования.
	JobStateSubmitted JobState = "SUBMITTED"

	// JobStateRunnable — задача готова к запуску, ждёт ресурсы.
	JobStateRunnable JobState = "RUNNABLE"

	// JobStateRunning — задача выполняется.
	JobStateRunning JobState = "RUNNING"

	// JobStateSucceeded — задача завершена успешно (по exit-коду или по output-truth).
	JobStateSucceeded JobState = "SUCCEEDED"

	// JobStateFailed — задача завершилась с ошибкой.
	JobStateFailed JobState = "FAILED"
)

// IsTerminal возвращает true, если состояние финальное.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed:
		return true
	default:
		return false
	}
}

// IsActive возвращает true, если задача существует на сервисе и ещё не
// завершена. Только active-задачи участвуют в дедупликации через Registry.
func (s JobState) IsActive() bool {
	switch s {
	case JobStateSubmitted, JobStateRunnable, JobStateRunning:
		return true
	default:
		return false
	}
}

// rank — порядок состояний для проверки монотонности.
// Терминальные состояния имеют максимальный ранг.
func (s JobState) rank() int {
	switch s {
	case JobStateNotSubmitted:
		return 0
	case JobStateSubmitted:
		return 1
	case JobStateRunnable:
		return 2
	case JobStateRunning:
		return 3
	case JobStateSucceeded, JobStateFailed:
		return 4
	default:
		return -1
	}
}

// CanAdvanceTo проверяет, допустим ли переход в состояние next.
// Состояние не может регрессировать (SUCCEEDED никогда не станет RUNNING),
// а из терминального состояния переходов нет.
func (s JobState) CanAdvanceTo(next JobState) bool {
	if s == next {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

// CompletionKind — способ, которым задача достигла SUCCEEDED.
//
// Отчёт монитора различает "done via output" и "done via exit":
// первое значит, что результат уже лежал в хранилище и сервис не вызывался
// (или сервис ещё работал, но результат появился).
type CompletionKind string

const (
	// CompletedByExit — сервис сообщил об успешном exit-коде.
	CompletedByExit CompletionKind = "exit"

	// CompletedByOutput — все выходные файлы найдены в хранилище.
	CompletedByOutput CompletionKind = "output"
)

// WorkflowStatus — статус workflow целиком.
//
// Жизненный цикл:
//
//	PENDING → SUBMITTED → COMPLETED
//	                    ↘ CANCELLED
type WorkflowStatus string

const (
	// WorkflowStatusPending — workflow создан, задачи ещё не отправлены.
	WorkflowStatusPending WorkflowStatus = "PENDING"

	// WorkflowStatusSubmitted — задачи отправлены, идёт мониторинг.
	WorkflowStatusSubmitted WorkflowStatus = "SUBMITTED"

	// WorkflowStatusCompleted — все задачи в терминальном состоянии;
	// провалы видны по состояниям задач, отдельного статуса для них нет.
	WorkflowStatusCompleted WorkflowStatus = "COMPLETED"

	// WorkflowStatusCancelled — workflow отменён оператором.
	WorkflowStatusCancelled WorkflowStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s WorkflowStatus) IsTerminal() bool {
	switch s {
	case WorkflowStatusCompleted, WorkflowStatusCancelled:
		return true
	default:
		return false
	}
}
