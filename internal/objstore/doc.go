// Package objstore отвечает за проверку существования выходных файлов
// в объектном хранилище (S3).
//
// Центральный компонент — Checker: кэширующая проверка "файл существует?",
// построенная на листинге родительской папки. Один листинг покрывает все
// выходы задачи в этой папке, поэтому проверка тысяч файлов не превращается
// в тысячи HEAD-запросов.
//
// Структура пакета:
//   - store.go   — интерфейс Store (листинг папки)
//   - s3.go      — реализация Store поверх AWS S3
//   - checker.go — Checker с кэшем и интервалом перепроверки
//   - errors.go  — ошибки пакета
package objstore
