// Package api содержит HTTP API монитора.
//
// Структура:
//   - handler.go          — Handler с DI (store, monitor, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (response)
//   - workflow_handler.go — обработчики для /workflows и /summary
//   - project_handler.go  — обработчики для /projects и /schedules
//
// API только читающий: workflow создаются через CLI, а их состояние
// определяется внешним вычислительным сервисом и выходными файлами.
// HTTP-слой отдаёт то, что уже знают Monitor и БД, и ничего не мутирует.
package api
