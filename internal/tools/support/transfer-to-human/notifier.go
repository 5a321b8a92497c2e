package transfertohuman

import (
	"context"
	"fmt"

	awsclient "voice-agent-workers/internal/common/aws"
	apperrors "voice-agent-workers/internal/common/errors"
)

const (
	notificationSent    = "sent"
	notificationSkipped = "skipped"
	notificationFailed  = "failed"
)

// Notifier tells the human side that a conversation is waiting for them.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, transfer Transfer) error
}

type NoopNotifier struct{}

func (NoopNotifier) Name() string { return NotifierNone }

func (NoopNotifier) Notify(context.Context, Transfer) error { return nil }

// SNSNotifier pages the on-call topic.
type SNSNotifier struct {
	client   *awsclient.SNSClient
	topicARN string
}

func NewSNSNotifier(client *awsclient.SNSClient, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (n *SNSNotifier) Name() string { return NotifierSNS }

func (n *SNSNotifier) Notify(ctx context.Context, t Transfer) error {
	subject := fmt.Sprintf("Handoff %s (%s)", t.TransferID, t.Urgency)
	message := fmt.Sprintf("Customer is waiting for a human agent.\nReason: %s\nCustomer: %s", t.Reason, t.CustomerInfo)
	_, err := n.client.Publish(ctx, n.topicARN, subject, message, map[string]string{
		"urgency":    t.Urgency,
		"transferId": t.TransferID,
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError(NotifierSNS, err)
	}
	return nil
}

// EventPublisher is satisfied by *messaging.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// EventNotifier publishes a handoff event for agent desktops to consume.
type EventNotifier struct {
	publisher EventPublisher
}

func NewEventNotifier(publisher EventPublisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

func (n *EventNotifier) Name() string { return NotifierRabbitMQ }

func (n *EventNotifier) Notify(ctx context.Context, t Transfer) error {
	if err := n.publisher.Publish(ctx, EventHandoffRequested, t); err != nil {
		return apperrors.NewNotificationSendFailedError(NotifierRabbitMQ, err)
	}
	return nil
}
