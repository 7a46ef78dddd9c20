// Package orchestrator — координация сабмита workflow в вычислительный сервис.
//
// Центральный тип — Session: явный координатор одного workflow, связывающий
// граф задач, проверку выходных файлов, реестр дедупликации и клиент
// сервиса. Никаких глобальных синглтонов: сколько сессий создано,
// столько независимых конвейеров работает.
//
// Порядок добавления задачи (AddJob) фиксирован:
//  1. выходы существуют → SUCCEEDED без сабмита;
//  2. реестр знает живую задачу с тем же identity → переиспользовать её ID;
//  3. upstream провален или не отслеживается → DependencyBlocked;
//  4. сабмит с dependsOn на незавершённые upstream-задачи.
//
// Истина о завершении — выходные файлы, а не статус сервиса.
package orchestrator
