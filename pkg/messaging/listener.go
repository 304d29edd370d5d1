package messaging

import (
	"log"

	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	amqp "github.com/rabbitmq/amqp091-go"
)

func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := exchangeName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	err = ch.QueueBind(q.Name, name, name, false, nil)
	if err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

// ListenToTopic acks every delivery the filter accepts. Failed deliveries
// are dropped without requeue so a poison message can not loop.
func ListenToTopic(ch *amqp.Channel, prefix string, topic ChangeTopic, filter func(amqp.Delivery) error) error {
	fc, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}

	go func(msgs <-chan amqp.Delivery) {
		defer ch.Close()
		for d := range msgs {
			if err := filter(d); err != nil {
				log.Printf("Error processing %s message: %v", topic, err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}(fc)
	return nil
}

// DatasetHandler decodes dataset_replaced deliveries and hands them to fn.
func DatasetHandler(fn func(DatasetReplacedMessage) error) func(amqp.Delivery) error {
	return func(d amqp.Delivery) error {
		var msg DatasetReplacedMessage
		if err := jsoncompat.Unmarshal(d.Body, &msg); err != nil {
			return err
		}
		return fn(msg)
	}
}

func ListenForDatasetChanges(ch *amqp.Channel, prefix string, fn func(DatasetReplacedMessage) error) error {
	return ListenToTopic(ch, prefix, DatasetReplaced, DatasetHandler(fn))
}
