package engine

import "errors"

// Ошибки валидации шаблона workflow.
var (
	// ErrEmptyStages — шаблон не содержит стадий.
	ErrEmptyStages = errors.New("workflow template has no stages")

	// ErrEmptyStageID — стадия не имеет ID.
	ErrEmptyStageID = errors.New("stage has empty ID")

	// ErrDuplicateStageID — несколько стадий с одинаковым ID.
	ErrDuplicateStageID = errors.New("duplicate stage ID")

	// ErrMissingDependency — стадия зависит от несуществующей стадии.
	ErrMissingDependency = errors.New("stage depends on unknown stage")

	// ErrSelfDependency — стадия зависит от самой себя.
	ErrSelfDependency = errors.New("stage depends on itself")

	// ErrCyclicDependency — обнаружен цикл в зависимостях стадий.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrEmptyOutputs — стадия не объявляет ни одного выходного файла.
	// Без выводов невозможно ни определить завершённость, ни пропустить
	// уже посчитанное.
	ErrEmptyOutputs = errors.New("stage has no outputs")

	// ErrEmptyDefinition — стадия не указывает job definition.
	ErrEmptyDefinition = errors.New("stage has empty job definition")

	// ErrEmptyQueue — стадия не указывает очередь.
	ErrEmptyQueue = errors.New("stage has empty queue")

	// ErrInvalidOutput — путь вывода не является адресом объектного хранилища.
	ErrInvalidOutput = errors.New("output is not an object store path")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateParse — ошибка парсинга плейсхолдера.
	ErrTemplateParse = errors.New("template parse failed")

	// ErrTemplateRender — ошибка подстановки значений.
	ErrTemplateRender = errors.New("template render failed")
)

// ValidationError — ошибка валидации шаблона с контекстом.
type ValidationError struct {
	StageID string // ID стадии, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.StageID != "" {
		return "stage " + e.StageID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(stageID, field, message string, err error) *ValidationError {
	return &ValidationError{
		StageID: stageID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
