// Package monitor — периодическое отслеживание отправленных workflow.
//
// Monitor опрашивает вычислительный сервис по тикеру и сводит состояние
// каждой задачи из двух источников:
//   - статус сервиса (Describe по remote IDs, чанками);
//   - существование выходных файлов (output-truth).
//
// Приоритет у выходных файлов: задача со всеми существующими выходами
// считается SUCCEEDED, что бы ни говорил сервис — включая FAILED
// и исчезновение из истории. Состояние задачи в рамках сессии монотонно,
// регрессии статусов сервиса игнорируются.
//
// Ошибки изолируются по задачам: недоступность одного выходного пути
// не прерывает цикл. Недоступность самого сервиса завершает цикл
// предупреждением и счётчиком — следующий тик попробует снова.
package monitor
