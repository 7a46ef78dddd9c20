// Conveyor Monitor — следит за отправленными workflow.
//
// Monitor:
//   - Узнаёт о новых workflow из RabbitMQ (и добирает незавершённые из БД)
//   - Периодически опрашивает вычислительный сервис
//   - Считает успешной задачу, чьи выходные файлы существуют,
//     независимо от exit-статуса сервиса
//   - Отдаёт состояние через HTTP API (/api/v1) и метрики (/metrics)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/batch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conveyor/internal/api"
	"github.com/shaiso/Conveyor/internal/compute"
	"github.com/shaiso/Conveyor/internal/monitor"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/objstore"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// unfinishedLimit ограничивает добор незавершённых workflow при старте.
const unfinishedLimit = 1000

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-monitor")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	store := repo.NewStore(pool)

	// Клиенты облачного сервиса
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	service := compute.NewBatchService(batch.NewFromConfig(awsCfg), logger)
	checker := objstore.NewChecker(objstore.CheckerConfig{
		Store:  objstore.NewS3Store(s3.NewFromConfig(awsCfg)),
		Logger: logger,
	})

	// RabbitMQ: события — ускорение, добор из БД — гарантия
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Monitor
	mon := monitor.New(monitor.Config{
		Compute:   service,
		Checker:   checker,
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
	})

	// Добираем незавершённые workflow из БД: события могли быть
	// опубликованы до рестарта монитора или вовсе потеряны.
	unfinished, err := store.Workflows.ListUnfinished(ctx, unfinishedLimit)
	if err != nil {
		logger.Error("failed to list unfinished workflows", "error", err)
		os.Exit(1)
	}
	for i := range unfinished {
		wf, err := store.LoadWorkflow(ctx, unfinished[i].ID)
		if err != nil {
			logger.Warn("failed to load workflow", "workflow_id", unfinished[i].ID, "error", err)
			continue
		}
		mon.Track(wf)
	}
	logger.Info("tracking unfinished workflows", "count", len(unfinished))

	// Подписка на новые workflow
	if mqConn != nil {
		consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
			Queue: string(mq.QueueWorkflowsSubmitted),
			Handler: func(ctx context.Context, msg *mq.Delivery) error {
				var payload mq.WorkflowSubmittedPayload
				raw, err := json.Marshal(msg.Message.Payload)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &payload); err != nil {
					return err
				}

				wf, err := store.LoadWorkflow(ctx, payload.WorkflowID)
				if err != nil {
					return err
				}
				mon.Track(wf)
				logger.Info("tracking workflow", "workflow_id", payload.WorkflowID, "name", wf.Name)
				return msg.Ack()
			},
		})
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Warn("consumer stopped", "error", err)
			}
		}()
		defer consumer.Stop()
	}

	// Цикл мониторинга
	go func() {
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("monitor stopped", "error", err)
			cancel()
		}
	}()

	// HTTP mux: /healthz + /metrics + API
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler := api.NewHandler(api.Config{
		Store:   store,
		Monitor: mon,
		Logger:  logger,
	})
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("MONITOR_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	server.Close()
	logger.Info("conveyor-monitor stopped")
}
