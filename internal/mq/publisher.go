package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeWorkflowSubmitted MessageType = "workflow.submitted"
	MessageTypeJobStateChanged   MessageType = "job.state_changed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowSubmittedPayload — payload для сообщения о новом workflow.
type WorkflowSubmittedPayload struct {
	WorkflowID uuid.UUID `json:"workflow_id"`
	ProjectID  uuid.UUID `json:"project_id"`
	Name       string    `json:"name"`
	JobCount   int       `json:"job_count"`
}

// JobStateChangedPayload — payload для сообщения о смене состояния задачи.
type JobStateChangedPayload struct {
	JobID       uuid.UUID `json:"job_id"`
	WorkflowID  uuid.UUID `json:"workflow_id"`
	Sample      string    `json:"sample"`
	Stage       string    `json:"stage"`
	State       string    `json:"state"`
	CompletedBy string    `json:"completed_by,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishWorkflowSubmitted публикует событие об отправленном workflow.
// Потребитель: Monitor.
func (p *Publisher) PublishWorkflowSubmitted(ctx context.Context, payload WorkflowSubmittedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeWorkflowSubmitted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeWorkflows, RoutingKeySubmitted, msg)
}

// PublishJobStateChanged публикует событие о смене состояния задачи.
// Потребители: дашборд и внешние интеграции.
func (p *Publisher) PublishJobStateChanged(ctx context.Context, payload JobStateChangedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeJobStateChanged,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyStateChanged, msg)
}

// PublishJSON публикует произвольный JSON payload.
func (p *Publisher) PublishJSON(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, exchange, routingKey, msg)
}
