package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Worker consumes order events with manual acknowledgements and feeds a Tracker.
type Worker struct {
	workerID  int
	channel   *amqp.Channel
	queueName string
	tracker   *Tracker
	log       *slog.Logger
}

// NewWorker opens a dedicated channel with prefetch 1.
func NewWorker(workerID int, conn *amqp.Connection, queueName string, tracker *Tracker, log *slog.Logger) (*Worker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel for worker %d: %w", workerID, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set QoS for worker %d: %w", workerID, err)
	}
	if err := declareQueue(ch, queueName); err != nil {
		ch.Close()
		return nil, err
	}
	w := newWorker(workerID, queueName, tracker, log)
	w.channel = ch
	return w, nil
}

func newWorker(workerID int, queueName string, tracker *Tracker, log *slog.Logger) *Worker {
	return &Worker{
		workerID:  workerID,
		queueName: queueName,
		tracker:   tracker,
		log:       log.With("worker", workerID),
	}
}

// Start consumes until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context) error {
	defer w.channel.Close()

	msgs, err := w.channel.ConsumeWithContext(ctx,
		w.queueName, // queue
		fmt.Sprintf("worker-%d", w.workerID), // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("worker %d failed to register consumer: %w", w.workerID, err)
	}

	w.log.Info("event worker started", "queue", w.queueName)
	w.consume(ctx, msgs)
	w.log.Info("event worker stopped")
	return nil
}

func (w *Worker) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			w.processMessage(msg)
		}
	}
}

func (w *Worker) processMessage(msg amqp.Delivery) {
	var e OrderEvent
	if err := json.Unmarshal(msg.Body, &e); err != nil || e.Type == "" {
		w.log.Warn("dropping malformed event", "error", err)
		// malformed, requeueing would loop forever
		_ = msg.Nack(false, false)
		return
	}

	w.tracker.Record(e)

	if err := msg.Ack(false); err != nil {
		w.log.Error("failed to acknowledge event", "error", err, "order_id", e.OrderID)
		return
	}
	w.log.Debug("processed order event", "type", e.Type, "order_id", e.OrderID)
}
