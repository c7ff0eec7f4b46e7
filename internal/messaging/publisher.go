package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// EventPublisher публикует доменные события историй.
type EventPublisher interface {
	PublishStoryEvent(ctx context.Context, event StoryEvent) error
}

// Channel - часть *amqp.Channel, нужная издателю.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

var _ Channel = (*amqp.Channel)(nil)

type rabbitMQStoryPublisher struct {
	channel   Channel
	queueName string
	logger    *zap.Logger
}

var _ EventPublisher = (*rabbitMQStoryPublisher)(nil)

// NewRabbitMQStoryPublisher объявляет durable очередь событий и возвращает издателя.
// Канал открывается и закрывается вызывающим кодом (cmd/server).
func NewRabbitMQStoryPublisher(ch Channel, queueName string, logger *zap.Logger) (EventPublisher, error) {
	if ch == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}
	log := logger.Named("StoryEventPublisher")

	_, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		log.Error("Failed to declare story events queue", zap.String("queue", queueName), zap.Error(err))
		return nil, fmt.Errorf("не удалось объявить очередь событий '%s': %w", queueName, err)
	}
	log.Info("Story events queue declared", zap.String("queue", queueName))

	return &rabbitMQStoryPublisher{channel: ch, queueName: queueName, logger: log}, nil
}

func (p *rabbitMQStoryPublisher) PublishStoryEvent(ctx context.Context, event StoryEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события %s: %w", event.EventType, err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(publishCtx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    event.OccurredAt,
			AppId:        "storyframe-server",
			MessageId:    event.EventID,
			Type:         string(event.EventType),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish story event",
			zap.String("eventType", string(event.EventType)),
			zap.String("narrativeID", event.NarrativeID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("ошибка публикации события %s: %w", event.EventType, err)
	}

	p.logger.Debug("Story event published",
		zap.String("eventType", string(event.EventType)),
		zap.String("eventID", event.EventID),
	)
	return nil
}
