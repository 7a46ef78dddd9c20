package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeWorkflows Exchange = "conveyor.workflows"
	ExchangeJobs      Exchange = "conveyor.jobs"
	ExchangeDLQ       Exchange = "conveyor.dlq"
)

// Queues — имена очередей.
const (
	QueueWorkflowsSubmitted Queue = "workflows.submitted"
	QueueJobsStateChanged   Queue = "jobs.state_changed"
	QueueDLQWorkflows       Queue = "dlq.workflows"
)

// Routing keys.
const (
	RoutingKeySubmitted     RoutingKey = "submitted"
	RoutingKeyStateChanged  RoutingKey = "state_changed"
	RoutingKeyDLQWorkflows  RoutingKey = "workflows"
)

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		if err := bindQueues(ch); err != nil {
			return err
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeWorkflows, "direct"},
		{ExchangeJobs, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Аргументы для очередей с DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQWorkflows),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// workflows.submitted — с DLQ (монитор должен подхватить каждый workflow)
		{QueueWorkflowsSubmitted, dlqArgs},

		// jobs.state_changed — без DLQ (события состояний, есть polling fallback)
		{QueueJobsStateChanged, nil},

		// dlq.workflows — сама DLQ очередь
		{QueueDLQWorkflows, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueWorkflowsSubmitted, RoutingKeySubmitted, ExchangeWorkflows},
		{QueueJobsStateChanged, RoutingKeyStateChanged, ExchangeJobs},
		{QueueDLQWorkflows, RoutingKeyDLQWorkflows, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Conveyor RabbitMQ Topology:

    conveyor.workflows (direct)
    └── workflows.submitted [routing: submitted]
            Consumer: Monitor
            DLQ: dlq.workflows

    conveyor.jobs (direct)
    └── jobs.state_changed [routing: state_changed]
            Consumer: Dashboard / integrations

    conveyor.dlq (direct)
    └── dlq.workflows [routing: workflows]
            Manual processing
  `
}
