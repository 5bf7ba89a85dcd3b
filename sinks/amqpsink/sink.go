// Package amqpsink publishes account activity events to a RabbitMQ exchange.
package amqpsink

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	amqp "github.com/rabbitmq/amqp091-go"

	auth "github.com/goliatone/go-tours-auth"
	"github.com/goliatone/go-tours-auth/activitymap"
)

const (
	DefaultExchange       = "auth.activity"
	DefaultPublishTimeout = 5 * time.Second
)

// Publisher is the subset of *amqp.Channel used by the sink
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Sink is an auth.ActivitySink backed by an AMQP topic exchange. Events are
// routed by their event type, e.g. "auth.login.success".
type Sink struct {
	publisher Publisher
	exchange  string
	timeout   time.Duration
	logger    auth.Logger
	now       auth.Clock
	normalize []activitymap.Option

	mu     sync.Mutex
	closer func() error
}

type Option func(*Sink)

func WithExchange(name string) Option {
	return func(s *Sink) {
		if name != "" {
			s.exchange = name
		}
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger auth.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNormalizeOptions customizes the published activitymap.Record
func WithNormalizeOptions(opts ...activitymap.Option) Option {
	return func(s *Sink) {
		s.normalize = append(s.normalize, opts...)
	}
}

func WithClock(clock auth.Clock) Option {
	return func(s *Sink) {
		if clock != nil {
			s.now = clock
		}
	}
}

var _ auth.ActivitySink = (*Sink)(nil)

// New wraps an already open publisher
func New(publisher Publisher, opts ...Option) *Sink {
	s := &Sink{
		publisher: publisher,
		exchange:  DefaultExchange,
		timeout:   DefaultPublishTimeout,
		logger:    nopLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dial connects to url, declares a durable topic exchange and returns a
// sink publishing to it. Call Close to release the connection.
func Dial(url string, opts ...Option) (*Sink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open rabbitmq channel")
	}

	s := New(ch, opts...)

	if err := ch.ExchangeDeclare(s.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to declare exchange").
			WithMetadata(map[string]any{"exchange": s.exchange})
	}

	s.closer = func() error {
		_ = ch.Close()
		return conn.Close()
	}

	s.logger.Info("activity sink publishing to exchange %s", s.exchange)

	return s, nil
}

// Record publishes event, normalized into an activitymap.Record, as a
// persistent JSON message
func (s *Sink) Record(ctx context.Context, event auth.ActivityEvent) error {
	if s.publisher == nil {
		return goerrors.New("activity publisher not configured", goerrors.CategoryInternal)
	}

	body, err := json.Marshal(activitymap.Normalize(event, s.normalize...))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode activity event")
	}

	publishCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.publisher.PublishWithContext(
		publishCtx,
		s.exchange,
		RoutingKey(event),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         string(event.EventType),
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    s.now(),
		},
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to publish activity event").
			WithMetadata(map[string]any{
				"exchange":   s.exchange,
				"event_type": string(event.EventType),
			})
	}

	s.logger.Debug("activity event published: %s", event.EventType)
	return nil
}

// Close releases the connection opened by Dial, it is a no-op otherwise
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closer == nil {
		return nil
	}
	err := s.closer()
	s.closer = nil
	return err
}

// RoutingKey returns the topic routing key for an event
func RoutingKey(event auth.ActivityEvent) string {
	if event.EventType == "" {
		return "auth.event"
	}
	return string(event.EventType)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
