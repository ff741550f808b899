package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"sync"
	"time"
	"videohub/config"
	"videohub/dto"
)

type publishChannel interface {
	topologyChannel
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	mu       sync.Mutex
	ch       publishChannel
	topology Topology
}

// Publish sends payload as a persistent JSON message to the topology's exchange.
func (p *Publisher) Publish(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	messageId := uuid.NewString()
	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.topology.Exchange, p.topology.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageId,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topology.Exchange, err)
	}

	zerolog.Ctx(ctx).Debug().Str("message_id", messageId).Str("exchange", p.topology.Exchange).Msg("message published")
	return nil
}

func (p *Publisher) EnqueueAssetCleanup(ctx context.Context, message dto.AssetCleanupMessage) error {
	return p.Publish(ctx, message)
}

func newPublisher(ch publishChannel, kind string, topology Topology) (*Publisher, error) {
	if err := declare(ch, kind, topology); err != nil {
		return nil, fmt.Errorf("declare %s: %w", topology.Exchange, err)
	}
	return &Publisher{ch: ch, topology: topology}, nil
}

// NewPublisher opens a dedicated channel on conn. The channel is closed with
// the connection.
func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ, topology Topology) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	p, err := newPublisher(ch, cfg.Kind, topology)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return p, nil
}
