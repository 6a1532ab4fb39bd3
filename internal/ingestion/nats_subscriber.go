package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// Default JetStream layout.
const (
	DefaultStreamName   = "NEURON_EVENTS"
	DefaultSubject      = "neuron.events.>"
	DefaultConsumerName = "neuron-vault-indexer"
)

// RawMessage is an undecoded envelope from NATS together with its
// acknowledgement callbacks.
type RawMessage struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	AckFunc   func() // ACK after successful processing
	NakFunc   func() // NAK on failure (will be redelivered)
	TermFunc  func() // terminate delivery of a message that can never be decoded
}

// SubjectConfig describes the consumer for the event stream.
type SubjectConfig struct {
	StreamName   string
	Subject      string
	ConsumerName string
	AckWait      time.Duration
	MaxDeliver   int
}

// DefaultSubjectConfig returns the standard consumer configuration.
func DefaultSubjectConfig() SubjectConfig {
	return SubjectConfig{
		StreamName:   DefaultStreamName,
		Subject:      DefaultSubject,
		ConsumerName: DefaultConsumerName,
		AckWait:      30 * time.Second,
		MaxDeliver:   -1,
	}
}

// NATSSubscriber consumes envelopes from a JetStream durable consumer and
// hands them to a single processing goroutine over msgChan.
type NATSSubscriber struct {
	js       jetstream.JetStream
	msgChan  chan<- RawMessage
	consumer jetstream.ConsumeContext
	logger   *zap.Logger
}

// NewNATSSubscriber creates a subscriber that delivers into msgChan.
func NewNATSSubscriber(js jetstream.JetStream, msgChan chan<- RawMessage, logger *zap.Logger) *NATSSubscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSSubscriber{
		js:      js,
		msgChan: msgChan,
		logger:  logger,
	}
}

// Subscribe creates the durable consumer and starts delivery.
// MaxAckPending is 1 so events are delivered strictly one at a time.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, cfg SubjectConfig) error {
	consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		FilterSubject: cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxDeliver:    cfg.MaxDeliver,
		MaxAckPending: 1,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		raw := RawMessage{
			Subject:   msg.Subject(),
			Data:      msg.Data(),
			Timestamp: time.Now(),
			AckFunc:   func() { _ = msg.Ack() },
			NakFunc:   func() { _ = msg.Nak() },
			TermFunc:  func() { _ = msg.Term() },
		}

		select {
		case ns.msgChan <- raw:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
	}

	ns.consumer = consumeCtx
	ns.logger.Info("Subscribed to event stream",
		zap.String("subject", cfg.Subject),
		zap.String("consumer", cfg.ConsumerName))
	return nil
}

// EnsureStream creates the event stream if it does not exist.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg SubjectConfig) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{cfg.Subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", cfg.StreamName, err)
	}
	return nil
}

// Stop stops message delivery.
func (ns *NATSSubscriber) Stop() {
	if ns.consumer != nil {
		ns.consumer.Stop()
	}
	ns.logger.Info("NATS subscriber stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string, logger *zap.Logger) (*nats.Conn, jetstream.JetStream, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(url,
		nats.Name("neuron-vault-indexer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
