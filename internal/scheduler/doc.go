// Package scheduler — автоматический запуск workflow по расписанию.
//
// Scheduler периодически проверяет schedules с истекшим next_due_at,
// строит workflow из сохранённого шаблона по текущим образцам проекта
// и отдаёт его на сабмит.
//
// Структура:
//   - scheduler.go — основная логика (Tick, processSchedule)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Store:  store,
//	    Submit: submitFn,
//	    Logger: logger,
//	})
//
//	// Вызывается каждый тик (обычно раз в 10 секунд)
//	if err := sched.Tick(ctx); err != nil {
//	    logger.Error("scheduler tick failed", "error", err)
//	}
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Метод Tick() вызывается только лидером.
package scheduler
