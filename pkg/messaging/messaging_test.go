package messaging

import (
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeName(t *testing.T) {
	assert.Equal(t, "catalog_dataset_replaced", exchangeName("catalog", DatasetReplaced))
}

func TestNewPublishing(t *testing.T) {
	msg, err := newPublishing(DatasetReplaced, "tyres", DatasetReplacedMessage{Dataset: "tyres", Records: 42})
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "dataset_replaced", msg.Type)
	assert.Equal(t, "tyres", msg.AppId)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.NotEmpty(t, msg.MessageId)
	assert.False(t, msg.Timestamp.IsZero())

	var decoded DatasetReplacedMessage
	require.NoError(t, DatasetHandler(func(m DatasetReplacedMessage) error {
		decoded = m
		return nil
	})(amqp.Delivery{Body: msg.Body}))
	assert.Equal(t, 42, decoded.Records)

	tracked, err := newPublishing("tracking", "tyres", map[string]int{"page": 1})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), tracked.DeliveryMode, "tracking events are transient")

	_, err = newPublishing("tracking", "tyres", func() {})
	assert.Error(t, err)
}

func TestDatasetHandlerDecodes(t *testing.T) {
	var got DatasetReplacedMessage
	handler := DatasetHandler(func(msg DatasetReplacedMessage) error {
		got = msg
		return nil
	})
	err := handler(amqp.Delivery{Body: []byte(`{"dataset":"tyres","records":42}`)})
	require.NoError(t, err)
	assert.Equal(t, DatasetReplacedMessage{Dataset: "tyres", Records: 42}, got)
}

func TestDatasetHandlerErrors(t *testing.T) {
	called := false
	handler := DatasetHandler(func(DatasetReplacedMessage) error {
		called = true
		return errors.New("reload failed")
	})
	assert.Error(t, handler(amqp.Delivery{Body: []byte(`{bad`)}))
	assert.False(t, called)

	assert.EqualError(t, handler(amqp.Delivery{Body: []byte(`{}`)}), "reload failed")
	assert.True(t, called)
}
