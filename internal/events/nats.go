package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const StreamName = "ART_SOCIETY_GAMES"

// NATS publishes events to a JetStream stream so other instances and
// offline consumers see every recorded game.
type NATS struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	logger  *slog.Logger
}

// NewNATS connects to url and makes sure the stream covering subject
// exists.
func NewNATS(url, subject string, logger *slog.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("art-society"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(StreamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			nc.Close()
			return nil, fmt.Errorf("looking up stream: %w", err)
		}
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     StreamName,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
			MaxAge:   30 * 24 * time.Hour,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("creating stream: %w", err)
		}
	}

	return &NATS{nc: nc, js: js, subject: subject, logger: logger}, nil
}

func (n *NATS) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if _, err := n.js.Publish(n.subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publishing to %s: %w", n.subject, err)
	}
	return nil
}

// Relay forwards every event on the subject to b. The returned func stops
// forwarding.
func (n *NATS) Relay(b *Broker) (func() error, error) {
	sub, err := n.nc.Subscribe(n.subject, func(msg *nats.Msg) {
		var e Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			n.logger.Warn("dropping malformed event", "subject", msg.Subject, "error", err)
			return
		}
		b.broadcast(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", n.subject, err)
	}
	if err := n.nc.Flush(); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}
	return sub.Unsubscribe, nil
}

// Check reports whether the connection is usable.
func (n *NATS) Check(_ context.Context) error {
	if s := n.nc.Status(); s != nats.CONNECTED {
		return fmt.Errorf("nats connection %s", s)
	}
	return nil
}

func (n *NATS) Close() {
	n.nc.Close()
}
