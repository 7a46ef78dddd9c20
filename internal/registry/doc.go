// Package registry — реестр известных задач для дедупликации сабмитов.
//
// Реестр ключуется на identity задачи (hash от definition, очереди
// и параметров). Перед сабмитом Session спрашивает реестр: если задача
// с таким identity уже живёт в вычислительном сервисе, новая не создаётся,
// а используется существующий remote ID.
//
// Реестр заполняется двумя путями:
//   - лениво, один раз на очередь за сессию — листингом активных задач
//     сервиса (дедупликация против работы, запущенной другим процессом);
//   - по ходу сессии — записью каждого собственного сабмита.
package registry
