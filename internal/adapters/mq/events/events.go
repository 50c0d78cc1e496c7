// Package events publishes domain events (applied rounds, snapshots, trade
// submissions) to in-process subscribers or a NATS subject tree.
package events

import (
	"context"
	"errors"
	"time"
)

// Event types.
const (
	TypeValuesUpdated  = "values.updated"
	TypeSnapshotSaved  = "snapshot.saved"
	TypeTradeSubmitted = "trade.submitted"
)

// DefaultSubjectPrefix prefixes every NATS subject.
const DefaultSubjectPrefix = "tradevalue"

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("publisher closed")

// Event is one domain event.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

// New stamps an event of type typ with the current time.
func New(typ string, data any) Event {
	return Event{Type: typ, At: time.Now().UTC(), Data: data}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Subject returns the NATS subject of an event type under prefix.
func Subject(prefix, typ string) string {
	if prefix == "" {
		return typ
	}
	return prefix + "." + typ
}

// tee publishes to several publishers, returning every error joined.
type tee []Publisher

// Tee fans one Publish out to all ps.
func Tee(ps ...Publisher) Publisher {
	return tee(ps)
}

func (t tee) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range t {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) Close() error {
	var errs []error
	for _, p := range t {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}
