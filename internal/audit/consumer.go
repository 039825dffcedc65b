package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// StartConsumer connects to the broker, declares the audit.recorded queue
// and appends one line per event to logs/audit.log.  It runs a reconnect
// loop with exponential backoff and never returns under normal operation;
// run it in its own goroutine.  Malformed messages are rejected without
// requeue so a bad payload cannot wedge the queue.
func StartConsumer(log *logrus.Logger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("audit-consumer: broker dial failed, retrying in %s", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after a successful connect

		if err := consumeLoop(conn, log); err != nil {
			log.WithError(err).Warn("audit-consumer: consume loop ended, reconnecting")
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, log *logrus.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("audit-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := appendLogLine(d.Body); err != nil {
			log.WithError(err).Warn("audit-consumer: handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func appendLogLine(body []byte) error {
	var ev RecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "audit.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := formatLine(ev)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev RecordedEvent) string {
	tenant := ev.TenantID
	if tenant == "" {
		tenant = "-"
	}
	user := ev.UserID
	if user == "" {
		user = "-"
	}
	object := "-"
	if ev.ObjectType != "" {
		object = ev.ObjectType
		if ev.ObjectID != "" {
			object += "/" + ev.ObjectID
		}
	}
	return fmt.Sprintf("[%s] %s | tenant=%s | user=%s | object=%s\n",
		ev.RecordedAt, ev.Action, tenant, user, object)
}
