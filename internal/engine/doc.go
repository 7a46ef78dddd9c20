// Package engine содержит построение workflow-графа из шаблона.
//
// Включает:
//   - identity.go — каноничная identity задачи для дедупликации
//   - template.go — разрешение плейсхолдеров параметров и путей выводов
//   - graph.go    — валидация стадий и топологический порядок (DAG)
//
// Engine отвечает за превращение шаблона + метаданных образцов
// в детерминированный набор задач; общение с внешними сервисами —
// забота других пакетов.
package engine
