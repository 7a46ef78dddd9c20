// Package cli реализует инструмент командной строки Conveyor.
//
// # Обзор
//
// CLI — основной инструмент оператора: создание проектов, импорт
// образцов, отправка workflow, управление очередями и schedules.
// В отличие от монитора, CLI короткоживущий: команды submit/resubmit
// работают напрямую с БД и внешним вычислительным сервисом, а
// статусные команды (status, dashboard) ходят в HTTP API монитора,
// у которого живое состояние свежее, чем в БД.
//
// # Ключевые компоненты
//
// ## Env
//
// Ленивое создание тяжёлых зависимостей (пул БД, клиенты облачного
// сервиса, Store/Checker/Registry). Зависимости создаются при первом
// обращении: команда list не должна требовать облачных credentials.
//
// ## Client
//
// HTTP-клиент для API монитора. Инкапсулирует парсинг ответов
// (DataResponse, ListResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	summary, err := client.Summary()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: conveyor workflow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - project:  create, list, import-samples, samples
//   - workflow: submit, list, status, jobs, resubmit, cancel, logs
//   - queue:    status, clear
//   - schedule: create, list, show, enable, disable, delete
//   - dashboard: живая сводка по отслеживаемым workflow
//
// Каждая группа создаётся через фабричную функцию (NewProjectCmd и
// т.д.), принимающую *Env и outputFn — замыкания для ленивого
// создания зависимостей после парсинга PersistentFlags.
package cli
