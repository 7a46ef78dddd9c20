package objstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
)

// Default configuration values.
const (
	defaultRecheckInterval = 30 * time.Second
	defaultListRetries     = 3
)

// Checker проверяет существование файлов в хранилище с кэшированием.
//
// Вместо точечных запросов "есть ли файл X" Checker читает содержимое
// родительской папки целиком и держит его в памяти. Положительный ответ
// кэша финален: появившийся файл не исчезает. Отрицательный ответ
// перепроверяется не чаще, чем раз в RecheckInterval — задача могла
// дописать результат между опросами.
type Checker struct {
	store   Store
	clock   clock.Clock
	logger  *slog.Logger
	recheck time.Duration
	retries uint64

	mu          sync.Mutex
	contents    map[string]map[string]struct{}
	lastChecked map[string]time.Time
}

// CheckerConfig — конфигурация Checker.
type CheckerConfig struct {
	Store           Store
	RecheckInterval time.Duration // default: 30s
	ListRetries     uint64        // default: 3
	Clock           clock.Clock   // default: real clock
	Logger          *slog.Logger  // default: slog.Default()
}

// NewChecker создаёт Checker с указанной конфигурацией.
func NewChecker(cfg CheckerConfig) *Checker {
	if cfg.RecheckInterval <= 0 {
		cfg.RecheckInterval = defaultRecheckInterval
	}
	if cfg.ListRetries == 0 {
		cfg.ListRetries = defaultListRetries
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Checker{
		store:       cfg.Store,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		recheck:     cfg.RecheckInterval,
		retries:     cfg.ListRetries,
		contents:    make(map[string]map[string]struct{}),
		lastChecked: make(map[string]time.Time),
	}
}

// Exists проверяет, существует ли объект по указанному пути.
//
// Ошибка означает "не удалось проверить", а не "файла нет":
// вызывающий код не должен трактовать её как отсутствие результата.
func (c *Checker) Exists(ctx context.Context, path string) (bool, error) {
	folder, file, err := SplitPath(path)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cached, seen := c.contents[folder]
	if seen {
		if _, ok := cached[file]; ok {
			return true, nil
		}
		// Негативный результат устаревает
		if c.clock.Since(c.lastChecked[folder]) < c.recheck {
			return false, nil
		}
	}

	if err := c.refreshFolder(ctx, folder); err != nil {
		return false, err
	}

	_, ok := c.contents[folder][file]
	return ok, nil
}

// ExistAll проверяет существование всех путей. Возвращает false при первом
// отсутствующем файле; ошибка любой проверки прерывает обход.
func (c *Checker) ExistAll(ctx context.Context, paths []string) (bool, error) {
	for _, p := range paths {
		ok, err := c.Exists(ctx, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Invalidate сбрасывает кэш для папки указанного пути.
// Используется после отмены или пересабмита задачи.
func (c *Checker) Invalidate(path string) {
	folder, _, err := SplitPath(path)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contents, folder)
	delete(c.lastChecked, folder)
}

// refreshFolder перечитывает содержимое папки. Вызывается под c.mu.
func (c *Checker) refreshFolder(ctx context.Context, folder string) error {
	c.logger.Debug("reading folder contents", "folder", folder)

	var names []string
	op := func() error {
		var err error
		names, err = c.store.List(ctx, folder)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return err
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	c.contents[folder] = set
	c.lastChecked[folder] = c.clock.Now()
	return nil
}
