// Package compute — клиент управляемого вычислительного сервиса (AWS Batch).
//
// Пакет скрывает детали AWS Batch за интерфейсом Service: сабмит задач
// с зависимостями, пакетный опрос статусов, листинг активных задач очереди
// и отмена. Статусы Batch нормализуются к доменным состояниям на границе
// пакета: PENDING → SUBMITTED, STARTING → RUNNING. Остальной код видит
// только domain.JobState.
//
// Структура пакета:
//   - compute.go — интерфейс Service, типы запросов/ответов, нормализация
//   - batch.go   — реализация поверх AWS Batch
//   - logs.go    — выгрузка логов задач из CloudWatch Logs
//   - errors.go  — ошибки пакета
package compute
