package objstore

import (
	"context"
	"fmt"
	"strings"
)

// Store — листинг объектного хранилища.
//
// List возвращает имена объектов (без префикса папки), лежащих
// непосредственно под указанной папкой. Folder — полный путь вида
// "s3://bucket/prefix" без завершающего слэша.
type Store interface {
	List(ctx context.Context, folder string) ([]string, error)
}

// SplitPath разбирает путь "s3://bucket/prefix/file" на папку и имя файла.
func SplitPath(path string) (folder, file string, err error) {
	if !strings.HasPrefix(path, "s3://") {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	if strings.HasSuffix(path, "/") {
		return "", "", fmt.Errorf("%w: path targets a folder: %s", ErrInvalidPath, path)
	}

	idx := strings.LastIndex(path, "/")
	folder, file = path[:idx], path[idx+1:]
	if folder == "s3:/" || file == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	return folder, file, nil
}

// SplitBucketKey разбирает путь "s3://bucket/key" на bucket и key.
func SplitBucketKey(path string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(path, "s3://")
	if trimmed == path {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}

	return bucket, key, nil
}
