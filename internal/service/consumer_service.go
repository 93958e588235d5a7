package service

import (
	"context"

	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/pkg/mailer"
	"bitbraniac-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	// Consume subscribes and processes events in the background until ctx
	// is done.
	Consume(ctx context.Context) error
}

// activityConsumer turns bus events into audit log lines and sends the
// welcome mail after a registration.
type activityConsumer struct {
	subscriber     message.Subscriber
	topicName      string
	emailService   mailer.IEmailService
	welcomeMessage string
	logger         logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	emailService mailer.IEmailService,
	welcomeMessage string,
	log logger.ILogger,
) IConsumerService {
	return &activityConsumer{
		subscriber:     subscriber,
		topicName:      topicName,
		emailService:   emailService,
		welcomeMessage: welcomeMessage,
		logger:         log,
	}
}

func (cs *activityConsumer) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *activityConsumer) processMessage(msg *message.Message) {
	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.logger.Error("ACTIVITY", "Dropping malformed event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Redelivery cannot fix a bad payload.
		msg.Ack()
		return
	}

	details := map[string]interface{}{"event": event.Type, "occurred_at": event.OccurredAt}
	for k, v := range event.Data {
		details[k] = v
	}
	cs.logger.Info("ACTIVITY", event.Type, details)

	if event.Type == constant.EventUserRegistered {
		email, _ := event.Data["email"].(string)
		if email != "" {
			if err := cs.emailService.SendWelcome(email, cs.welcomeMessage); err != nil {
				cs.logger.Warn("ACTIVITY", "Failed to send welcome mail", map[string]interface{}{
					"email": email,
					"error": err.Error(),
				})
			}
		}
	}

	msg.Ack()
}
