package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project — набор образцов, над которыми выполняются workflows.
//
// Проект создаётся импортом CSV-метаданных. Один проект может иметь
// несколько workflows (например, разные стадии анализа или повторные
// прогоны по новому шаблону).
type Project struct {
	// ID — уникальный идентификатор проекта.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя проекта. Только буквы, цифры и подчёркивания —
	// имя участвует в именах задач на внешнем сервисе.
	Name string `json:"name"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// Sample — один образец с метаданными из импортированного CSV.
type Sample struct {
	// ID — уникальный идентификатор образца.
	ID uuid.UUID `json:"id"`

	// ProjectID — ссылка на проект.
	ProjectID uuid.UUID `json:"project_id"`

	// Name — идентификатор образца (уникальный в рамках проекта).
	Name string `json:"name"`

	// Metadata — все колонки CSV-строки образца.
	// Используется при разрешении плейсхолдеров шаблона.
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt — время импорта.
	CreatedAt time.Time `json:"created_at"`
}

// WorkflowTemplate — шаблон workflow: набор стадий с зависимостями.
//
// Шаблон — это JSON-файл, который оператор передаёт в `workflow create`.
// Плейсхолдеры в параметрах и путях выводов ({{ .Sample.x }}, {{ .Project.name }})
// разрешаются для каждого образца при построении графа.
type WorkflowTemplate struct {
	// Name — имя шаблона (войдёт в имя workflow и имена задач).
	Name string `json:"workflow_name"`

	// Description — описание назначения.
	Description string `json:"description,omitempty"`

	// Stages — стадии анализа. Порядок в списке не важен:
	// реальный порядок задаёт depends_on.
	Stages []StageDef `json:"stages"`
}

// StageDef — определение одной стадии шаблона.
type StageDef struct {
	// ID — уникальный идентификатор стадии в рамках шаблона.
	ID string `json:"id"`

	// Definition — job definition внешнего сервиса (имя:ревизия).
	Definition string `json:"job_definition"`

	// Queue — очередь для отправки.
	Queue string `json:"queue"`

	// DependsOn — ID стадий, которые должны завершиться раньше.
	// Пустой список — корневая стадия. Произвольный DAG, циклы
	// отвергаются при валидации шаблона.
	DependsOn []string `json:"depends_on,omitempty"`

	// Parameters — шаблоны параметров задачи.
	Parameters map[string]string `json:"parameters,omitempty"`

	// Outputs — шаблоны путей выходных файлов (s3://...).
	Outputs []string `json:"outputs"`

	// TimeoutSec — таймаут задачи в секундах (0 — значение сервиса).
	TimeoutSec int `json:"timeout_sec,omitempty"`
}
