package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/citystay/auction_engine/internal/core/domain"
)

// NATSPublisher emits outbid events for the notification pipeline. Delivery
// is best effort; the bid that caused the event has already committed.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("auction-engine"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) PublishOutbid(_ context.Context, event domain.OutbidEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outbid event: %w", err)
	}

	subject := fmt.Sprintf("auction.outbid.%s", subjectToken(event.Scope))
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish outbid event: %w", err)
	}

	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Drain()
}

// subjectToken makes a scope safe for use inside a NATS subject.
func subjectToken(scope string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '*', '>':
			return '_'
		}
		return r
	}, scope)
}

// Noop drops events; used when no NATS URL is configured.
type Noop struct{}

func (Noop) PublishOutbid(context.Context, domain.OutbidEvent) error { return nil }
