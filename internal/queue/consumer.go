// Package queue contains the background consumer that listens to the
// recolecciones.registradas queue and keeps a one-line-per-event
// traceability log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer appends every RecoleccionRegistradaEvent to LogPath.
type Consumer struct {
	URL     string
	LogPath string
	Log     logrus.FieldLogger
}

// NewConsumer returns a consumer writing to logs/recolecciones.log.
func NewConsumer(url string, log logrus.FieldLogger) *Consumer {
	return &Consumer{URL: url, LogPath: filepath.Join("logs", "recolecciones.log"), Log: log}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff capped at 30 seconds.  Messages that cannot
// be handled are rejected without requeue so a poison message does not
// spin.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.WithError(err).Warnf("recolecciones-consumer: dial failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.WithError(err).Warn("recolecciones-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.WithError(err).Warn("recolecciones-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(RecoleccionesQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(RecoleccionesQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.Log.WithError(err).Warn("recolecciones-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteEventLine(f, body)
}

// WriteEventLine decodes one event and writes its log line to w.
func WriteEventLine(w io.Writer, body []byte) error {
	var ev RecoleccionRegistradaEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Folio == "" {
		return errors.New("event without folio")
	}
	_, err := fmt.Fprintf(w,
		"[%s] Recolección registrada | folio=%s | id=%d | plaza=\"%s\" | local=\"%s\" | tipo=\"%s\" | kg=%.2f | fecha=%s | capturador_id=%d\n",
		ev.RegistradaAt, ev.Folio, ev.RecoleccionID, ev.PlazaNombre, ev.LocalNombre, ev.TipoResiduo, ev.CantidadKg, ev.Fecha, ev.CapturadorID)
	if err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
