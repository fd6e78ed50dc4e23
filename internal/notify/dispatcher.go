package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize   = 64
	defaultSendTimeout = 30 * time.Second
)

// Dispatcher sends messages from a background worker so intake requests
// never wait on the mail server. Every attempt, successful or not, is
// written to the delivery log.
type Dispatcher struct {
	channel Channel
	records Repository
	logger  *slog.Logger

	queue chan Message
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewDispatcher starts the background worker. Call Close to drain and
// stop it.
func NewDispatcher(channel Channel, records Repository, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		channel: channel,
		records: records,
		logger:  logger,
		queue:   make(chan Message, defaultQueueSize),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Enqueue hands a message to the worker without blocking. When the queue
// is full the message is dropped with a failed delivery record; the
// caller is never held up.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("notification queue full, dropping message",
			slog.String("template", msg.Template),
			slog.String("recipient", msg.To))
		d.record(msg, StatusFailed, "notification queue full")
	}
}

// Close stops accepting messages, drains the queue and waits for the
// worker to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSendTimeout)
	defer cancel()

	status, errMsg := StatusSent, ""
	if d.channel == nil {
		status, errMsg = StatusFailed, "no delivery channel configured"
		d.logger.Warn("notification skipped, no delivery channel",
			slog.String("template", msg.Template),
			slog.String("recipient", msg.To))
	} else if err := d.channel.Send(ctx, msg); err != nil {
		status, errMsg = StatusFailed, err.Error()
		d.logger.Error("notification delivery failed",
			slog.String("template", msg.Template),
			slog.String("recipient", msg.To),
			slog.String("error", err.Error()))
	}
	d.record(msg, status, errMsg)
}

// record writes one delivery log row for an attempt.
func (d *Dispatcher) record(msg Message, status, errMsg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := &Record{
		Recipient:    msg.To,
		Subject:      msg.Subject,
		Template:     msg.Template,
		EntityType:   msg.EntityType,
		EntityID:     msg.EntityID,
		Status:       status,
		ErrorMessage: errMsg,
	}
	if err := d.records.Insert(ctx, rec); err != nil {
		d.logger.Error("failed to log notification attempt",
			slog.String("template", msg.Template),
			slog.String("error", err.Error()))
	}
}
