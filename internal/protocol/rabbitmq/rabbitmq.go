// Package rabbitmq encodes RabbitMQ publish and exchange requests for samd.
//
// Every request is positional. Publish requests carry the distribution
// directive, the four AMQP publish arguments, a fixed block of twelve
// message properties and a count-prefixed header block before the payload.
package rabbitmq

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/danmuck/samwise/internal/protocol"
	"github.com/danmuck/samwise/internal/protocol/frame"
)

const (
	ActionPublish = "publish"
	ActionRPC     = "rpc"

	StrategyRoundRobin = "round robin"
	StrategyRedundant  = "redundant"

	MethodExchangeDeclare = "exchange.declare"
	MethodExchangeDelete  = "exchange.delete"
)

var (
	ErrInvalidRedundancy    = errors.New("rabbitmq: redundancy count must be positive")
	ErrInvalidDistribution  = errors.New("rabbitmq: unknown distribution strategy")
	ErrExchangeNameRequired = errors.New("rabbitmq: exchange name required")
	ErrExchangeKindRequired = errors.New("rabbitmq: exchange kind required")
)

// OptionKeys is the wire order of the publish option block.
var OptionKeys = [...]string{
	"content_type",
	"content_encoding",
	"delivery_mode",
	"priority",
	"correlation_id",
	"reply_to",
	"expiration",
	"message_id",
	"type",
	"user_id",
	"app_id",
	"cluster_id",
}

// OptionCount is the value of the option count frame.
const OptionCount = len(OptionKeys)

// PublishArgs are the AMQP basic.publish arguments, in wire order.
type PublishArgs struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

// Headers are AMQP message headers. Keys are flattened in ascending order.
type Headers map[string]string

// PublishOptions are the AMQP message properties. Unset fields are sent as
// empty frames so samd can decode the block positionally.
type PublishOptions struct {
	ContentType     string
	ContentEncoding string
	DeliveryMode    string
	Priority        string
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Type            string
	UserID          string
	AppID           string
	ClusterID       string

	Headers Headers
}

// Values returns the option values in OptionKeys order.
func (o PublishOptions) Values() [OptionCount]string {
	return [OptionCount]string{
		o.ContentType,
		o.ContentEncoding,
		o.DeliveryMode,
		o.Priority,
		o.CorrelationID,
		o.ReplyTo,
		o.Expiration,
		o.MessageID,
		o.Type,
		o.UserID,
		o.AppID,
		o.ClusterID,
	}
}

// Set assigns one option by its wire key.
func (o *PublishOptions) Set(key, value string) error {
	switch strings.TrimSpace(key) {
	case "content_type":
		o.ContentType = value
	case "content_encoding":
		o.ContentEncoding = value
	case "delivery_mode":
		o.DeliveryMode = value
	case "priority":
		o.Priority = value
	case "correlation_id":
		o.CorrelationID = value
	case "reply_to":
		o.ReplyTo = value
	case "expiration":
		o.Expiration = value
	case "message_id":
		o.MessageID = value
	case "type":
		o.Type = value
	case "user_id":
		o.UserID = value
	case "app_id":
		o.AppID = value
	case "cluster_id":
		o.ClusterID = value
	default:
		return fmt.Errorf("rabbitmq: unknown publish option %q", key)
	}
	return nil
}

// Distribution declares how samd spreads a publish over its brokers.
type Distribution struct {
	Strategy string
	Count    int
}

func RoundRobin() Distribution {
	return Distribution{Strategy: StrategyRoundRobin}
}

// Redundant asks samd to publish to n brokers.
func Redundant(n int) Distribution {
	return Distribution{Strategy: StrategyRedundant, Count: n}
}

// Validate rejects directives samd cannot honor.
func (d Distribution) Validate() error {
	switch d.Strategy {
	case StrategyRoundRobin:
		return nil
	case StrategyRedundant:
		if d.Count < 1 {
			return protocol.RequestMalformed(fmt.Sprintf("redundant count %d", d.Count), ErrInvalidRedundancy)
		}
		return nil
	default:
		return protocol.RequestMalformed(fmt.Sprintf("strategy %q", d.Strategy), ErrInvalidDistribution)
	}
}

func (d Distribution) frames() frame.Sequence {
	seq := frame.Strings(ActionPublish, d.Strategy)
	if d.Strategy == StrategyRedundant {
		seq.Append(frame.Int(d.Count))
	}
	return seq
}

// EncodePublish returns the request frames, without the version trailer.
func EncodePublish(dist Distribution, args PublishArgs, opts PublishOptions, payload []byte) (frame.Sequence, error) {
	if err := dist.Validate(); err != nil {
		return frame.Sequence{}, err
	}

	seq := dist.frames()
	seq.Append(
		frame.String(args.Exchange),
		frame.String(args.RoutingKey),
		frame.Bool(args.Mandatory),
		frame.Bool(args.Immediate),
	)

	seq.Append(frame.Int(OptionCount))
	for _, v := range opts.Values() {
		seq.Append(frame.String(v))
	}

	seq.Concat(EncodeHeaders(opts.Headers))
	seq.Append(frame.Bytes(payload))
	return seq, nil
}

// EncodeHeaders returns the count frame (2k) followed by k key/value pairs.
func EncodeHeaders(h Headers) frame.Sequence {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seq := frame.NewSequence(frame.Int(2 * len(keys)))
	for _, k := range keys {
		seq.Append(frame.String(k), frame.String(h[k]))
	}
	return seq
}

func EncodeExchangeDeclare(name, kind string) (frame.Sequence, error) {
	if strings.TrimSpace(name) == "" {
		return frame.Sequence{}, protocol.RequestMalformed(MethodExchangeDeclare, ErrExchangeNameRequired)
	}
	if strings.TrimSpace(kind) == "" {
		return frame.Sequence{}, protocol.RequestMalformed(MethodExchangeDeclare, ErrExchangeKindRequired)
	}
	return frame.Strings(ActionRPC, "", MethodExchangeDeclare, name, kind), nil
}

func EncodeExchangeDelete(name string) (frame.Sequence, error) {
	if strings.TrimSpace(name) == "" {
		return frame.Sequence{}, protocol.RequestMalformed(MethodExchangeDelete, ErrExchangeNameRequired)
	}
	return frame.Strings(ActionRPC, "", MethodExchangeDelete, name), nil
}
