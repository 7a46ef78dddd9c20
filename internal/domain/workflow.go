package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Workflow — граф задач одного проекта (или одного прогона шаблона).
//
// Workflow эксклюзивно владеет своими Job: задачи добавляются только
// через AddJob и никогда не удаляются. Зависимости хранятся как ссылки
// на задачи того же графа, поэтому обновление состояния upstream сразу
// видно всем зависимым.
//
// Дисциплина записи: состояние задач мутирует либо Resolver (в момент
// отправки), либо Monitor (в своём цикле) — но не оба одновременно,
// задача попадает под мониторинг только после того, как Resolver
// закончил её инициализацию. Один мьютекс защищает и структуру графа,
// и поля задач: все мутации состояния идут через MutateJob/SetStatus,
// параллельные читатели (API, отчёты) берут снимки через
// SnapshotJobs/CurrentStatus.
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// ProjectID — ссылка на проект.
	ProjectID uuid.UUID `json:"project_id"`

	// Name — имя workflow (уникальное в рамках проекта).
	Name string `json:"name"`

	// Status — статус workflow целиком.
	Status WorkflowStatus `json:"status"`

	// IdempotencyKey — ключ идемпотентности для scheduled workflows.
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	mu         sync.RWMutex
	jobs       []*Job // в порядке добавления
	byID       map[uuid.UUID]*Job
	byIdentity map[string]*Job
}

// NewWorkflow создаёт пустой workflow.
func NewWorkflow(projectID uuid.UUID, name string) *Workflow {
	return &Workflow{
		ID:         uuid.New(),
		ProjectID:  projectID,
		Name:       name,
		Status:     WorkflowStatusPending,
		CreatedAt:  time.Now(),
		byID:       make(map[uuid.UUID]*Job),
		byIdentity: make(map[string]*Job),
	}
}

// AddJob добавляет задачу в граф.
//
// Возвращает ErrDuplicateIdentity, если задача с той же identity уже
// есть в этом workflow (дедупликация между процессами — забота Registry,
// внутри одного графа дубликат всегда ошибка построения).
// Возвращает ErrUnknownUpstream, если какой-то upstream ещё не добавлен:
// порядок добавления обязан быть топологическим, это исключает циклы
// по построению.
func (w *Workflow) AddJob(job *Job) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.byID == nil {
		w.byID = make(map[uuid.UUID]*Job)
		w.byIdentity = make(map[string]*Job)
	}

	if _, exists := w.byIdentity[job.Identity]; exists {
		return ErrDuplicateIdentity
	}
	for _, up := range job.Upstreams {
		if _, exists := w.byID[up]; !exists {
			return ErrUnknownUpstream
		}
	}

	job.WorkflowID = w.ID
	w.jobs = append(w.jobs, job)
	w.byID[job.ID] = job
	w.byIdentity[job.Identity] = job
	return nil
}

// Jobs возвращает задачи в порядке добавления (топологическом).
// Слайс — копия, сами задачи — разделяемые ссылки.
func (w *Workflow) Jobs() []*Job {
	w.mu.RLock()
	defer w.mu.RUnlock()

	jobs := make([]*Job, len(w.jobs))
	copy(jobs, w.jobs)
	return jobs
}

// SnapshotJobs возвращает копии задач в порядке добавления.
// Слайсы и мапы внутри Job после построения графа не мутируются,
// поэтому поверхностной копии достаточно для чтения без гонок.
func (w *Workflow) SnapshotJobs() []Job {
	w.mu.RLock()
	defer w.mu.RUnlock()

	jobs := make([]Job, len(w.jobs))
	for i, j := range w.jobs {
		jobs[i] = *j
	}
	return jobs
}

// MutateJob выполняет fn над задачей под write-lock графа. Единственный
// легальный способ менять состояние задачи, пока workflow читается из
// других горутин.
func (w *Workflow) MutateJob(job *Job, fn func(*Job)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(job)
}

// SetStatus обновляет статус workflow под write-lock.
func (w *Workflow) SetStatus(status WorkflowStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Status = status
}

// CurrentStatus возвращает статус workflow под read-lock.
func (w *Workflow) CurrentStatus() WorkflowStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.Status
}

// Job возвращает задачу по внутреннему ID.
func (w *Workflow) Job(id uuid.UUID) (*Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	job, ok := w.byID[id]
	return job, ok
}

// JobByIdentity возвращает задачу по каноничной identity.
func (w *Workflow) JobByIdentity(identity string) (*Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	job, ok := w.byIdentity[identity]
	return job, ok
}

// UpstreamsOf возвращает upstream-задачи для job (ссылки на задачи графа).
func (w *Workflow) UpstreamsOf(job *Job) []*Job {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ups := make([]*Job, 0, len(job.Upstreams))
	for _, id := range job.Upstreams {
		if up, ok := w.byID[id]; ok {
			ups = append(ups, up)
		}
	}
	return ups
}

// Size возвращает количество задач.
func (w *Workflow) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.jobs)
}

// AllTerminal возвращает true, если все задачи в терминальном состоянии.
func (w *Workflow) AllTerminal() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, j := range w.jobs {
		if !j.IsTerminal() {
			return false
		}
	}
	return true
}

// AllSucceeded возвращает true, если все задачи достигли SUCCEEDED.
func (w *Workflow) AllSucceeded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, j := range w.jobs {
		if j.State != JobStateSucceeded {
			return false
		}
	}
	return len(w.jobs) > 0
}

// FailedJobs возвращает задачи в состоянии FAILED.
func (w *Workflow) FailedJobs() []*Job {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var failed []*Job
	for _, j := range w.jobs {
		if j.State == JobStateFailed {
			failed = append(failed, j)
		}
	}
	return failed
}

// Restore восстанавливает граф из сохранённых задач (после рестарта
// процесса). Задачи должны приходить в порядке создания.
func (w *Workflow) Restore(jobs []*Job) error {
	for _, j := range jobs {
		if err := w.AddJob(j); err != nil {
			return err
		}
	}
	return nil
}
