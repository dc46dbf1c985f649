package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	UserExchange     Exchange   = "user_exchange"
	UserCreatedQueue Queue      = "user_created_queue"
	UserCreatedKey   BindingKey = "user.created"

	// consumers get one unacknowledged delivery at a time
	consumerPrefetch = 1
)

var ErrPublishNacked = errors.New("message broker did not confirm the message")

// UserCreatedMessage is the body published on UserCreatedKey. Token is the plain
// one-time confirmation token; only its hash is stored.
type UserCreatedMessage struct {
	Email    string
	Username string
	Token    string
}

// MessageBroker publishes on a channel in confirm mode, so Publish returns only once
// the broker has taken responsibility for the message. Deliveries are consumed on a
// separate channel.
type MessageBroker struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	pubMu sync.Mutex
	pub   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	pub, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not open publishing channel: %w", err)
	}

	if err := pub.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not enable publisher confirms: %w", err)
	}

	return &MessageBroker{
		conn: conn,
		ch:   ch,
		pub:  pub,
	}, nil
}

// Close closes both channels and the connection of the message broker.
func (mb *MessageBroker) Close() error {
	err := errors.Join(mb.pub.Close(), mb.ch.Close())
	if err != nil {
		mb.conn.Close()
		return err
	}

	return mb.conn.Close()
}

// SetupUserExchange declares the durable exchange and queue that carry user.created
// events from registration to the mail service.
func SetupUserExchange(mb *MessageBroker) error {
	err := mb.ch.ExchangeDeclare(string(UserExchange), "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = mb.ch.QueueDeclare(string(UserCreatedQueue), true, false, false, false, nil)
	if err != nil {
		return err
	}

	return mb.ch.QueueBind(string(UserCreatedQueue), string(UserCreatedKey), string(UserExchange), false, nil)
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	mb.pubMu.Lock()
	confirm, err := mb.pub.PublishWithDeferredConfirmWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         msg,
	})
	mb.pubMu.Unlock()
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("could not confirm message: %w", err)
	}
	if !acked {
		return ErrPublishNacked
	}

	return nil
}

func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	err := mb.ch.Qos(consumerPrefetch, 0, false)
	if err != nil {
		return nil, fmt.Errorf("could not set prefetch: %w", err)
	}

	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}
