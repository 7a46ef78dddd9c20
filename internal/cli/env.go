package cli

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/objstore"
	"github.com/shaiso/Conveyor/internal/registry"
	"github.com/shaiso/Conveyor/internal/repo"
)

// Env — ленивое создание тяжёлых зависимостей CLI.
//
// CLI однопоточный, зависимости кэшируются без синхронизации.
// Пул БД и облачные клиенты создаются при первом обращении:
// команды, которым они не нужны, не требуют ни БД, ни credentials.
type Env struct {
	Logger *slog.Logger

	store    *repo.Store
	compute  compute.Service
	checker  *objstore.Checker
	registry *registry.Registry
	logs     *compute.LogFetcher

	awsLoaded bool
	batchCli  *batch.Client
	s3Cli     *s3.Client
	logsCli   *cloudwatchlogs.Client
}

// NewEnv создаёт пустое окружение.
func NewEnv(logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.Default()
	}
	return &Env{Logger: logger}
}

// Store возвращает Store, создавая пул БД при первом вызове.
func (e *Env) Store(ctx context.Context) (*repo.Store, error) {
	if e.store != nil {
		return e.store, nil
	}

	pool, err := repo.NewPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	e.store = repo.NewStore(pool)
	return e.store, nil
}

// Compute возвращает клиент вычислительного сервиса.
func (e *Env) Compute(ctx context.Context) (compute.Service, error) {
	if e.compute != nil {
		return e.compute, nil
	}
	if err := e.loadAWS(ctx); err != nil {
		return nil, err
	}

	e.compute = compute.NewBatchService(e.batchCli, e.Logger)
	return e.compute, nil
}

// Checker возвращает кэширующий чекер выходных файлов.
func (e *Env) Checker(ctx context.Context) (*objstore.Checker, error) {
	if e.checker != nil {
		return e.checker, nil
	}
	if err := e.loadAWS(ctx); err != nil {
		return nil, err
	}

	e.checker = objstore.NewChecker(objstore.CheckerConfig{
		Store:  objstore.NewS3Store(e.s3Cli),
		Logger: e.Logger,
	})
	return e.checker, nil
}

// Registry возвращает реестр известных задач.
func (e *Env) Registry(ctx context.Context) (*registry.Registry, error) {
	if e.registry != nil {
		return e.registry, nil
	}

	svc, err := e.Compute(ctx)
	if err != nil {
		return nil, err
	}

	e.registry = registry.New(registry.Config{Compute: svc, Logger: e.Logger})
	return e.registry, nil
}

// Logs возвращает выгрузчик логов задач.
func (e *Env) Logs(ctx context.Context) (*compute.LogFetcher, error) {
	if e.logs != nil {
		return e.logs, nil
	}
	if err := e.loadAWS(ctx); err != nil {
		return nil, err
	}

	e.logs = compute.NewLogFetcher(e.logsCli)
	return e.logs, nil
}

// Close освобождает ресурсы окружения.
func (e *Env) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

func (e *Env) loadAWS(ctx context.Context) error {
	if e.awsLoaded {
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	e.batchCli = batch.NewFromConfig(cfg)
	e.s3Cli = s3.NewFromConfig(cfg)
	e.logsCli = cloudwatchlogs.NewFromConfig(cfg)
	e.awsLoaded = true
	return nil
}
