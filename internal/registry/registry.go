package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
)

// Entry — известная реестру задача.
type Entry struct {
	Identity string
	RemoteID string
	State    domain.JobState
}

// Registry — потокобезопасный реестр задач, ключованный на identity.
type Registry struct {
	compute compute.Service
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry
	seeded  map[string]bool // queue → история загружена
}

// Config — конфигурация Registry.
type Config struct {
	Compute compute.Service
	Logger  *slog.Logger // default: slog.Default()
}

// New создаёт пустой Registry.
func New(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{
		compute: cfg.Compute,
		logger:  cfg.Logger,
		entries: make(map[string]Entry),
		seeded:  make(map[string]bool),
	}
}

// Lookup ищет переиспользуемую задачу по identity.
//
// Возвращает запись, только если задача не FAILED: провалившаяся задача
// не препятствует новому сабмиту. Перед первым обращением к очереди
// реестр засеивается её активными задачами.
func (r *Registry) Lookup(ctx context.Context, identity, queue string) (Entry, bool, error) {
	if err := r.ensureSeeded(ctx, queue); err != nil {
		return Entry{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[identity]
	if !ok || e.State == domain.JobStateFailed {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Record запоминает задачу. Повторная запись того же identity
// перетирает состояние: реестр хранит последнее известное.
func (r *Registry) Record(identity, remoteID string, state domain.JobState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[identity] = Entry{Identity: identity, RemoteID: remoteID, State: state}
}

// Forget удаляет запись. Используется при пересабмите:
// старый identity должен снова вести к сабмиту.
func (r *Registry) Forget(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, identity)
}

// Size возвращает количество известных задач.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ensureSeeded один раз загружает активные задачи очереди.
//
// Завершённые задачи не засеиваются: успевшая работа видна по своим
// выходным файлам и отсекается до обращения к реестру, а провалившаяся
// в любом случае пересабмичивается.
func (r *Registry) ensureSeeded(ctx context.Context, queue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seeded[queue] || r.compute == nil {
		return nil
	}

	r.logger.Info("seeding registry from queue", "queue", queue)

	details, err := r.compute.ListActive(ctx, queue)
	if err != nil {
		return fmt.Errorf("seed registry for queue %s: %w", queue, err)
	}

	for _, d := range details {
		// Describe отдаёт ARN очереди, identity считается от её имени
		identity, err := engine.Identity(shortDefinition(d.Definition), queue, d.Parameters)
		if err != nil {
			r.logger.Warn("skipping unhashable extant job", "remote_id", d.RemoteID, "error", err)
			continue
		}
		r.entries[identity] = Entry{Identity: identity, RemoteID: d.RemoteID, State: d.State}
	}

	r.seeded[queue] = true
	r.logger.Info("registry seeded", "queue", queue, "jobs", len(details))
	return nil
}

// shortDefinition срезает ARN до имени definition: identity считается
// от того же значения, которое указывают при сабмите.
func shortDefinition(def string) string {
	if idx := strings.LastIndex(def, "/"); idx >= 0 {
		return def[idx+1:]
	}
	return def
}
