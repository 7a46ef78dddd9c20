package domain

import "errors"

// Ошибки построения workflow-графа.
var (
	// ErrDuplicateIdentity — задача с такой identity уже есть в графе.
	ErrDuplicateIdentity = errors.New("duplicate job identity in workflow")

	// ErrUnknownUpstream — upstream-задача ещё не добавлена в граф.
	// Порядок добавления обязан быть топологическим.
	ErrUnknownUpstream = errors.New("upstream job not in workflow")
)
