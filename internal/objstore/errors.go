package objstore

import "errors"

// Ошибки пакета objstore.
var (
	// ErrCheckFailed — листинг папки не удался. Отличать от "файла нет":
	// недоступное хранилище не означает отсутствие результата.
	ErrCheckFailed = errors.New("objstore: existence check failed")

	// ErrInvalidPath — путь не в формате s3://bucket/key или указывает на папку.
	ErrInvalidPath = errors.New("objstore: invalid object path")
)
