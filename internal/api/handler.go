package api

import (
	"log/slog"

	"github.com/shaiso/Conveyor/internal/monitor"
	"github.com/shaiso/Conveyor/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	store   *repo.Store
	monitor *monitor.Monitor
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Store   *repo.Store
	Monitor *monitor.Monitor
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		store:   cfg.Store,
		monitor: cfg.Monitor,
		logger:  cfg.Logger,
	}
}
