// Package mq — работа с RabbitMQ: события конвейера между CLI и демонами.
//
// Включает:
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go   — объявление exchanges, queues и bindings
//   - publisher.go  — публикация типизированных событий
//   - consumer.go   — потребление с ack/nack и prefetch
//
// Топология:
//   - conveyor.workflows — отправленные workflow (потребляет Monitor)
//   - conveyor.jobs      — смены состояний задач (дашборд, интеграции)
//   - conveyor.dlq       — dead letter queue
//
// События ускоряют реакцию, но не являются источником истины:
// при недоступном RabbitMQ демоны переходят на polling по БД.
package mq
