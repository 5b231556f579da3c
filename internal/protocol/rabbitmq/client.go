package rabbitmq

import (
	"context"

	"github.com/danmuck/samwise/internal/protocol/frame"
	"github.com/danmuck/samwise/internal/protocol/message"
)

// Client sends RabbitMQ verbs through one sender, usually a
// *session.Session.
type Client struct {
	sender message.Sender
}

func NewClient(sender message.Sender) *Client {
	return &Client{sender: sender}
}

func (c *Client) PublishRoundRobin(ctx context.Context, args PublishArgs, opts PublishOptions, payload []byte) error {
	return c.Publish(ctx, RoundRobin(), args, opts, payload)
}

// PublishRedundant fails before transmission when n < 1.
func (c *Client) PublishRedundant(ctx context.Context, n int, args PublishArgs, opts PublishOptions, payload []byte) error {
	return c.Publish(ctx, Redundant(n), args, opts, payload)
}

func (c *Client) Publish(ctx context.Context, dist Distribution, args PublishArgs, opts PublishOptions, payload []byte) error {
	seq, err := EncodePublish(dist, args, opts, payload)
	if err != nil {
		return err
	}
	return c.send(ctx, seq)
}

func (c *Client) ExchangeDeclare(ctx context.Context, name, kind string) error {
	seq, err := EncodeExchangeDeclare(name, kind)
	if err != nil {
		return err
	}
	return c.send(ctx, seq)
}

func (c *Client) ExchangeDelete(ctx context.Context, name string) error {
	seq, err := EncodeExchangeDelete(name)
	if err != nil {
		return err
	}
	return c.send(ctx, seq)
}

func (c *Client) send(ctx context.Context, seq frame.Sequence) error {
	msg := message.New(c.sender)
	msg.AddSequence(seq)
	return msg.Send(ctx)
}
