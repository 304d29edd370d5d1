package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	amqp "github.com/rabbitmq/amqp091-go"
)

// exchangeName is shared by the exchange, its durable queue and the
// routing key of every message on a topic.
func exchangeName(prefix string, topic ChangeTopic) string {
	return fmt.Sprintf("%s_%s", prefix, topic)
}

// DeclareTopics declares a durable topic exchange and a durable queue for
// every topic, so messages published before a listener starts are kept.
func DeclareTopics(ch *amqp.Channel, prefix string, topics ...ChangeTopic) error {
	for _, topic := range topics {
		name := exchangeName(prefix, topic)
		if err := ch.ExchangeDeclare(name, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
	}
	return nil
}

// Publisher sends catalog messages for one exchange prefix. Every message
// carries the dataset it belongs to as the app id.
type Publisher struct {
	conn    *amqp.Connection
	prefix  string
	dataset string
}

func NewPublisher(conn *amqp.Connection, prefix, dataset string) *Publisher {
	return &Publisher{conn: conn, prefix: prefix, dataset: dataset}
}

func (p *Publisher) Declare(topics ...ChangeTopic) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return DeclareTopics(ch, p.prefix, topics...)
}

func (p *Publisher) Publish(ctx context.Context, topic ChangeTopic, data any) error {
	msg, err := newPublishing(topic, p.dataset, data)
	if err != nil {
		return err
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	name := exchangeName(p.prefix, topic)
	return ch.PublishWithContext(ctx, name, name, true, false, msg)
}

// DatasetReplaced tells running servers to reload the stored records.
func (p *Publisher) DatasetReplaced(ctx context.Context, records int) error {
	return p.Publish(ctx, DatasetReplaced, DatasetReplacedMessage{Dataset: p.dataset, Records: records})
}

func newPublishing(topic ChangeTopic, dataset string, data any) (amqp.Publishing, error) {
	body, err := jsoncompat.Marshal(data)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s message: %w", topic, err)
	}
	msg := amqp.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Type:        string(topic),
		AppId:       dataset,
		Timestamp:   time.Now(),
		Body:        body,
	}
	if topic == DatasetReplaced {
		msg.DeliveryMode = amqp.Persistent
	}
	return msg, nil
}
