package notifications

import (
	"context"
	"fmt"
	"time"

	"bustix/internal/tickets"
	"bustix/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// KafkaProducerConfig contains configuration for the ticket event producer
type KafkaProducerConfig struct {
	Brokers          []string
	TicketTopic      string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		TicketTopic:      "ticket-events",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// Producer publishes ticket lifecycle events to Kafka. Implements the
// tickets.EventPublisher interface.
type Producer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	logger   *logger.Logger
}

// NewProducer creates a new ticket event producer
func NewProducer(config *KafkaProducerConfig, log *logger.Logger) (*Producer, error) {
	if config == nil {
		config = DefaultKafkaProducerConfig()
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps one user's events in order
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Info("Kafka ticket event producer created", "topic", config.TicketTopic)
	return &Producer{
		producer: producer,
		config:   config,
		logger:   log,
	}, nil
}

func (p *Producer) PublishTicketConfirmed(ctx context.Context, attempt *tickets.BookingAttempt, ticketRows []tickets.Ticket) error {
	labels := make([]string, 0, len(ticketRows))
	for i := range ticketRows {
		labels = append(labels, ticketRows[i].SeatLabel)
	}
	return p.publish(ctx, &TicketEvent{
		ID:         uuid.New(),
		Type:       EventTicketConfirmed,
		Code:       attempt.Code,
		TripID:     attempt.TripID,
		UserID:     attempt.UserID,
		SeatLabels: labels,
		Amount:     attempt.Amount,
		PaymentRef: attempt.PaymentRef,
		OccurredAt: time.Now(),
	})
}

func (p *Producer) PublishTicketCancelled(ctx context.Context, ticket *tickets.Ticket) error {
	return p.publish(ctx, &TicketEvent{
		ID:         uuid.New(),
		Type:       EventTicketCancelled,
		Code:       ticket.TicketCode,
		TripID:     ticket.TripID,
		UserID:     ticket.UserID,
		SeatLabels: []string{ticket.SeatLabel},
		Amount:     ticket.Price,
		OccurredAt: time.Now(),
	})
}

func (p *Producer) PublishCheckoutExpired(ctx context.Context, attempt *tickets.BookingAttempt) error {
	return p.publish(ctx, &TicketEvent{
		ID:         uuid.New(),
		Type:       EventCheckoutExpired,
		Code:       attempt.Code,
		TripID:     attempt.TripID,
		UserID:     attempt.UserID,
		Amount:     attempt.Amount,
		OccurredAt: time.Now(),
	})
}

func (p *Producer) publish(ctx context.Context, event *TicketEvent) error {
	messageBytes, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal ticket event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.config.TicketTopic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   p.createHeaders(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send ticket event to Kafka: %w", err)
	}

	p.logger.DebugContext(ctx, "ticket event published",
		"type", string(event.Type),
		"code", event.Code,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *Producer) createHeaders(event *TicketEvent) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("user_id"), Value: []byte(event.UserID.String())},
		{Key: []byte("producer"), Value: []byte("bustix-tickets")},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
	}
	return nil
}
