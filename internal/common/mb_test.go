package common

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageBrokerRoundTrip(t *testing.T) {
	mb, err := NewMessageBroker(TestRabbitMQ(t))
	if err != nil {
		t.Fatal(err)
	}
	defer mb.Close()

	err = SetupUserExchange(mb)
	assert.NoError(t, err)

	want := UserCreatedMessage{Email: "alice@example.com", Username: "alice", Token: "TOKEN"}
	body, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = mb.Publish(ctx, body, UserCreatedKey, UserExchange)
	assert.NoError(t, err)

	msgs, err := mb.Consume(UserCreatedKey, UserExchange, UserCreatedQueue)
	if err != nil {
		t.Fatal(err)
	}

	select {
	case d := <-msgs:
		var got UserCreatedMessage
		assert.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, want, got)
		assert.Equal(t, "application/json", d.ContentType)
		assert.NotEmpty(t, d.MessageId)
		assert.NoError(t, d.Ack(false))
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
	}
}
