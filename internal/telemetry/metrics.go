package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики конвейера. Регистрируются в default registry,
// отдаются через promhttp на /metrics.
var (
	// Submissions — количество задач, отправленных в вычислительный сервис.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_submissions_total",
		Help: "Jobs submitted to the compute service.",
	}, []string{"queue"})

	// SubmissionErrors — количество отказов сабмита.
	SubmissionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_submission_errors_total",
		Help: "Job submissions rejected by the compute service.",
	})

	// DedupHits — сабмиты, замещённые переиспользованием живой задачи.
	DedupHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_dedup_hits_total",
		Help: "Submissions replaced by reusing an already running job.",
	})

	// OutputSkips — сабмиты, снятые существующими выходными файлами.
	OutputSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_output_skips_total",
		Help: "Submissions skipped because outputs already exist.",
	})

	// PollCycles — количество завершённых циклов опроса монитора.
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_poll_cycles_total",
		Help: "Completed status monitor poll cycles.",
	})

	// PollErrors — количество циклов, завершившихся ошибкой опроса сервиса.
	PollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_poll_errors_total",
		Help: "Poll cycles that failed to reach the compute service.",
	})

	// JobsByState — текущее количество отслеживаемых задач по состояниям.
	JobsByState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "conveyor_jobs_by_state",
		Help: "Tracked jobs per state.",
	}, []string{"state"})
)
