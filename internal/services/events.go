package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"kyccodes/internal/config"
	"kyccodes/internal/utils"
)

const (
	EventCodeGenerated = "code.generated"
	EventCodeVerified  = "code.verified"
)

// CodeGeneratedEvent carries the plaintext code to downstream senders.
type CodeGeneratedEvent struct {
	CodeID      int64     `json:"code_id"`
	UserID      int64     `json:"user_id"`
	UserUID     string    `json:"user_uid,omitempty"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type CodeVerifiedEvent struct {
	CodeID     int64     `json:"code_id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"type"`
	Category   string    `json:"category"`
	VerifiedAt time.Time `json:"verified_at"`
}

type EventPublisher interface {
	PublishCodeGenerated(ctx context.Context, evt CodeGeneratedEvent) error
	PublishCodeVerified(ctx context.Context, evt CodeVerifiedEvent) error
}

type eventEnvelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// KafkaPublisher writes code events to "<prefix>.<event>" topics through an
// async producer. Messages are keyed by user id to keep per-user ordering.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	prefix   string
	log      *zap.Logger
	done     chan struct{}
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *zap.Logger) (*KafkaPublisher, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_5_0_0
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Flush.Frequency = 100 * time.Millisecond
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	log.Info("kafka producer initialized", zap.Strings("brokers", cfg.Brokers), zap.String("topic_prefix", cfg.TopicPrefix))
	return NewKafkaPublisherWithProducer(producer, cfg.TopicPrefix, log), nil
}

func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, prefix string, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &KafkaPublisher{
		producer: producer,
		prefix:   prefix,
		log:      log,
		done:     make(chan struct{}),
	}
	go p.handleErrors()
	return p
}

func (p *KafkaPublisher) handleErrors() {
	defer close(p.done)
	for perr := range p.producer.Errors() {
		if perr == nil {
			continue
		}
		p.log.Error("kafka producer error", zap.Error(perr.Err), zap.String("topic", perr.Msg.Topic))
	}
}

func (p *KafkaPublisher) PublishCodeGenerated(ctx context.Context, evt CodeGeneratedEvent) error {
	return p.publish(ctx, EventCodeGenerated, evt.UserID, evt)
}

func (p *KafkaPublisher) PublishCodeVerified(ctx context.Context, evt CodeVerifiedEvent) error {
	return p.publish(ctx, EventCodeVerified, evt.UserID, evt)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, userID int64, payload any) error {
	body, err := json.Marshal(eventEnvelope{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.TopicName(eventType),
		Key:   sarama.StringEncoder(strconv.FormatInt(userID, 10)),
		Value: sarama.ByteEncoder(body),
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *KafkaPublisher) TopicName(eventType string) string {
	if p.prefix == "" || strings.HasPrefix(eventType, p.prefix+".") {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Close flushes pending messages and stops the error loop.
func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	<-p.done
	return nil
}

// StubPublisher logs events instead of sending them. The secret is never logged.
type StubPublisher struct {
	log *zap.Logger
}

func NewStubPublisher(log *zap.Logger) *StubPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubPublisher{log: log}
}

func (p *StubPublisher) PublishCodeGenerated(_ context.Context, evt CodeGeneratedEvent) error {
	phone := ""
	if evt.PhoneNumber != nil {
		phone = utils.SubMaskNumber(*evt.PhoneNumber)
	}
	p.log.Info("stub event published",
		zap.String("event_type", EventCodeGenerated),
		zap.Int64("code_id", evt.CodeID),
		zap.Int64("user_id", evt.UserID),
		zap.String("type", evt.Type),
		zap.String("category", evt.Category),
		zap.String("phone_number", phone),
	)
	return nil
}

func (p *StubPublisher) PublishCodeVerified(_ context.Context, evt CodeVerifiedEvent) error {
	p.log.Info("stub event published",
		zap.String("event_type", EventCodeVerified),
		zap.Int64("code_id", evt.CodeID),
		zap.Int64("user_id", evt.UserID),
		zap.Time("verified_at", evt.VerifiedAt),
	)
	return nil
}
