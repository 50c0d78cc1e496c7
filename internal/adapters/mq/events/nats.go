package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okian/tradevalue/pkg/logger"
	"github.com/okian/tradevalue/pkg/metrics"
)

// drainWait bounds how long Close waits for pending messages to flush.
const drainWait = 5 * time.Second

// NATSPublisher publishes events as JSON on <prefix>.<type> subjects.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	log    logger.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{} // closed by the connection's ClosedHandler
}

// NATSOption configures a NATSPublisher.
type NATSOption func(*NATSPublisher)

// WithSubjectPrefix overrides DefaultSubjectPrefix.
func WithSubjectPrefix(prefix string) NATSOption {
	return func(p *NATSPublisher) { p.prefix = prefix }
}

// WithLogger sets the logger used for connection state changes.
func WithLogger(l logger.Logger) NATSOption {
	return func(p *NATSPublisher) {
		if l != nil {
			p.log = l
		}
	}
}

// ConnectNATS dials url and returns a publisher on that connection.
func ConnectNATS(url string, opts ...NATSOption) (*NATSPublisher, error) {
	p := &NATSPublisher{prefix: DefaultSubjectPrefix, log: logger.Nop(), done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}

	nc, err := nats.Connect(url,
		nats.Name("tradevalue"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				p.log.Warn(context.Background(), "nats disconnected", logger.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			p.log.Info(context.Background(), "nats reconnected", logger.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) { close(p.done) }),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	p.nc = nc
	return p, nil
}

// Publish sends e on its subject. It returns ErrClosed once Close was called.
func (p *NATSPublisher) Publish(_ context.Context, e Event) error {
	subject := Subject(p.prefix, e.Type)
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed || p.nc.IsClosed() {
		metrics.RecordEventPublishError(e.Type)
		return ErrClosed
	}
	data, err := json.Marshal(e)
	if err != nil {
		metrics.RecordEventPublishError(e.Type)
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		metrics.RecordEventPublishError(e.Type)
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	metrics.RecordEventPublished(e.Type)
	return nil
}

// Conn exposes the underlying connection, e.g. for subscribers.
func (p *NATSPublisher) Conn() *nats.Conn { return p.nc }

// Close flushes pending messages and closes the connection. It returns once
// the connection is closed or drainWait elapses. Later calls are no-ops.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.nc.IsClosed() {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return err
	}
	select {
	case <-p.done:
	case <-time.After(drainWait):
		p.nc.Close()
	}
	return nil
}
