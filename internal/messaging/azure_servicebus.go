package messaging

import (
	"context"
	"encoding/json"
	"time"

	"example.com/govevents/config"
	"example.com/govevents/internal/notifications"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const receiveBatchSize = 10

// ServiceBusQueue is the durable deferred task queue backing the reminder
// pipeline. Delays are expressed through the broker's scheduled-enqueue
// time, so pending reminders survive process restarts; delivery is
// at-least-once.
type ServiceBusQueue struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewServiceBusQueue creates an Azure Service Bus backed task queue.
func NewServiceBusQueue(cfg config.AzureConfig) (*ServiceBusQueue, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &ServiceBusQueue{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// Enqueue submits a reminder task for delivery after the given delay. A
// zero or negative delay delivers as soon as the broker can.
func (q *ServiceBusQueue) Enqueue(ctx context.Context, task notifications.ReminderTask, delay time.Duration) error {
	data, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, "failed to marshal reminder task")
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"kind": string(task.Kind),
		},
	}
	if delay > 0 {
		fireAt := time.Now().Add(delay)
		msg.ScheduledEnqueueTime = &fireAt
	}

	if err := q.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrap(err, "failed to send reminder task")
	}
	return nil
}

// ProcessMessages receives reminder tasks until ctx is cancelled, handing
// each to the handler. A handler error abandons the message back to the
// queue for redelivery; malformed payloads are dead-lettered because a
// retry cannot fix them.
func (q *ServiceBusQueue) ProcessMessages(ctx context.Context,
	handler func(ctx context.Context, task notifications.ReminderTask) error) error {

	receiver, err := q.client.NewReceiverForQueue(q.queueName, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create Service Bus receiver")
	}
	defer func() {
		if err := receiver.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error closing Service Bus receiver")
		}
	}()

	for {
		messages, err := receiver.ReceiveMessages(ctx, receiveBatchSize, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to receive messages")
		}

		for _, message := range messages {
			q.dispatch(ctx, receiver, message, handler)
		}
	}
}

func (q *ServiceBusQueue) dispatch(ctx context.Context, receiver *azservicebus.Receiver,
	message *azservicebus.ReceivedMessage,
	handler func(ctx context.Context, task notifications.ReminderTask) error) {

	var task notifications.ReminderTask
	if err := json.Unmarshal(message.Body, &task); err != nil {
		log.Error().Err(err).Str("message_id", message.MessageID).Msg("Malformed reminder task, dead-lettering")
		if err := receiver.DeadLetterMessage(ctx, message, nil); err != nil {
			log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to dead-letter message")
		}
		return
	}

	if _, err := notifications.ParseKind(string(task.Kind)); err != nil {
		log.Error().Err(err).Str("message_id", message.MessageID).Msg("Unknown reminder kind, dead-lettering")
		if err := receiver.DeadLetterMessage(ctx, message, nil); err != nil {
			log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to dead-letter message")
		}
		return
	}

	if err := handler(ctx, task); err != nil {
		log.Error().Err(err).
			Str("message_id", message.MessageID).
			Str("kind", string(task.Kind)).
			Msg("Reminder task failed, returning to queue")
		if err := receiver.AbandonMessage(ctx, message, nil); err != nil {
			log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to abandon message")
		}
		return
	}

	if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
		log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to complete message")
	}
}

// Close closes the Service Bus sender and client.
func (q *ServiceBusQueue) Close() error {
	if q.sender != nil {
		if err := q.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if q.client != nil {
		return q.client.Close(context.Background())
	}

	return nil
}
