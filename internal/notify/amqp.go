package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/lex-codes11/skipbot/internal/domain"
)

// AMQPPublisher publishes allocation results to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *AMQPPublisher) AllocationConfirmed(ctx context.Context, a domain.Allocation) {
	p.publish(ctx, KeyConfirmed, a)
}

func (p *AMQPPublisher) AllocationRemoved(ctx context.Context, a domain.Allocation) {
	p.publish(ctx, KeyRemoved, a)
}

func (p *AMQPPublisher) AllocationMoved(ctx context.Context, a domain.Allocation) {
	p.publish(ctx, KeyMoved, a)
}

func (p *AMQPPublisher) publish(ctx context.Context, key string, a domain.Allocation) {
	body, err := json.Marshal(a)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("marshal allocation")
		return
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		log.Error().Err(err).
			Str("key", key).
			Str("night", a.Night.String()).
			Str("venue", string(a.Venue)).
			Msg("publish allocation")
	}
}
