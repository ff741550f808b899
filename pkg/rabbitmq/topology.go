package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"videohub/constant"
)

// Topology names the exchange and queue a consumer reads from, together with
// the dead letter pair that receives messages which exhausted their retries.
type Topology struct {
	Exchange      string
	Queue         string
	RoutingKey    string
	DLX           string
	DLQ           string
	DLQRoutingKey string
}

// AssetCleanupTopology routes cleanup requests through exchange, or the
// default cleanup exchange when it is empty.
func AssetCleanupTopology(exchange string) Topology {
	if exchange == "" {
		exchange = constant.CleanupExchange
	}
	return Topology{
		Exchange:      exchange,
		Queue:         constant.CleanupQueue,
		RoutingKey:    constant.CleanupRoutingKey,
		DLX:           constant.CleanupDLX,
		DLQ:           constant.CleanupDLQ,
		DLQRoutingKey: constant.CleanupDLQRoutingKey,
	}
}

type topologyChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// declare is idempotent; publisher and consumer both run it so that neither
// depends on the other having started first.
func declare(ch topologyChannel, kind string, t Topology) error {
	if err := ch.ExchangeDeclare(t.Exchange, kind, true, false, false, false, nil); err != nil {
		return err
	}

	var args amqp.Table
	if t.DLX != "" {
		if err := ch.ExchangeDeclare(t.DLX, kind, true, false, false, false, nil); err != nil {
			return err
		}
		dlq, err := ch.QueueDeclare(t.DLQ, true, false, false, false, nil)
		if err != nil {
			return err
		}
		if err := ch.QueueBind(dlq.Name, t.DLQRoutingKey, t.DLX, false, nil); err != nil {
			return err
		}
		args = amqp.Table{
			"x-dead-letter-exchange":    t.DLX,
			"x-dead-letter-routing-key": t.DLQRoutingKey,
		}
	}

	q, err := ch.QueueDeclare(t.Queue, true, false, false, false, args)
	if err != nil {
		return err
	}

	return ch.QueueBind(q.Name, t.RoutingKey, t.Exchange, false, nil)
}
