// Package ingest implements the event ingester (spec §4.8, C9): a
// long-running task that receives pushed messages from the submarine
// upstream over AMQP, applies them to the universe view, and enqueues them
// for scheduled programs to drain. Modeled on the teacher's
// internal/nats.Bridge Start/Stop goroutine-forwarding pattern, adapted
// from NATS subjects to an AMQP queue consumer.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
	"github.com/mrd0ll4r/kaleidoscope/internal/metrics"
	"github.com/mrd0ll4r/kaleidoscope/internal/universe"
)

// Ingester consumes the submarine upstream's pushed-event feed.
type Ingester struct {
	amqpURL   string
	queueName string

	view *universe.View
	fifo *events.FIFO
	bus  *events.Bus

	logger *slog.Logger

	conn    *amqp.Connection
	channel *amqp.Channel

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates an Ingester that will dial amqpURL and consume from
// queueName, applying updates to view and enqueuing to fifo.
func New(amqpURL, queueName string, view *universe.View, fifo *events.FIFO, bus *events.Bus, logger *slog.Logger) *Ingester {
	return &Ingester{
		amqpURL:   amqpURL,
		queueName: queueName,
		view:      view,
		fifo:      fifo,
		bus:       bus,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start dials upstream, declares the queue, and begins consuming in a
// background goroutine. Returns once the initial connection succeeds.
func (in *Ingester) Start(ctx context.Context) error {
	conn, err := amqp.DialConfig(in.amqpURL, amqp.Config{})
	if err != nil {
		return fmt.Errorf("dial amqp %s: %w", in.amqpURL, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open amqp channel: %w", err)
	}

	q, err := ch.QueueDeclare(in.queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare amqp queue %s: %w", in.queueName, err)
	}

	deliveries, err := ch.Consume(q.Name, "kaleidoscope-ingest", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("consume amqp queue %s: %w", in.queueName, err)
	}

	in.conn = conn
	in.channel = ch

	in.wg.Add(1)
	go in.run(ctx, deliveries)
	return nil
}

// Stop closes the AMQP channel and connection and waits for the consumer
// goroutine to exit.
func (in *Ingester) Stop() {
	in.stopOnce.Do(func() { close(in.stopChan) })
	if in.channel != nil {
		in.channel.Close()
	}
	if in.conn != nil {
		in.conn.Close()
	}
	in.wg.Wait()
}

func (in *Ingester) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer in.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-in.stopChan:
			return
		case d, ok := <-deliveries:
			if !ok {
				in.logger.Warn("amqp delivery channel closed")
				if in.bus != nil {
					in.bus.Publish(events.UpstreamDisconnectedEvent{Reason: "delivery channel closed", Timestamp: time.Now()})
				}
				return
			}
			if in.handle(d) {
				return
			}
		}
	}
}

// handle processes one delivery and reports whether the ingester must
// terminate (a Config message received mid-run, per spec §4.8).
func (in *Ingester) handle(d amqp.Delivery) bool {
	msg, err := decodeMessage(d.Body)
	if err != nil {
		in.logger.Error("ingest: malformed message", "error", err)
		d.Nack(false, false)
		return false
	}

	if msg.Type == "config" {
		in.logger.Error("ingest: received Config message after startup, terminating ingester")
		d.Ack(false)
		if in.bus != nil {
			in.bus.Publish(events.UpstreamDisconnectedEvent{Reason: "unexpected mid-run Config message", Timestamp: time.Now()})
		}
		return true
	}

	metrics.EventsProcessedTotal.Inc()

	ae, err := msg.toAddressedEvent()
	if err != nil {
		in.logger.Error("ingest: malformed event", "error", err)
		d.Nack(false, false)
		return false
	}

	in.view.Apply(ae)
	in.fifo.Push(ae)
	d.Ack(false)
	return false
}
