package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/BrooksCoder/RegistrationApp/pkg/config"
)

const messageTypeNotification = "NotificationMessage"

// NewServiceBusClient opens a client from a connection string.
func NewServiceBusClient(connectionString string) (*azservicebus.Client, error) {
	client, err := azservicebus.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("service bus client: %w", err)
	}
	return client, nil
}

// ServiceBusPublisher sends to an Azure Service Bus queue.
type ServiceBusPublisher struct {
	sender *azservicebus.Sender
}

// NewServiceBusPublisher creates a sender for queue.
func NewServiceBusPublisher(client *azservicebus.Client, queue string) (*ServiceBusPublisher, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		return nil, fmt.Errorf("service bus sender %s: %w", queue, err)
	}
	return &ServiceBusPublisher{sender: sender}, nil
}

// Publish implements Publisher. The message id doubles as the Service Bus
// MessageId so duplicate detection on the queue can be enabled.
func (p *ServiceBusPublisher) Publish(ctx context.Context, id string, body []byte) error {
	msg := &azservicebus.Message{
		Body:        body,
		MessageID:   to.Ptr(id),
		ContentType: to.Ptr("application/json"),
		ApplicationProperties: map[string]any{
			"MessageType": messageTypeNotification,
			"Timestamp":   time.Now().UTC(),
		},
	}
	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		return fmt.Errorf("service bus publish %s: %w", id, err)
	}
	return nil
}

// Transport implements Publisher.
func (p *ServiceBusPublisher) Transport() string { return config.TransportServiceBus }

// Close implements Publisher.
func (p *ServiceBusPublisher) Close(ctx context.Context) error {
	return p.sender.Close(ctx)
}

// ServiceBusSubscriber receives in peek-lock mode.
type ServiceBusSubscriber struct {
	receiver *azservicebus.Receiver
	wait     time.Duration
}

// NewServiceBusSubscriber creates a receiver for queue.
func NewServiceBusSubscriber(client *azservicebus.Client, queue string, wait time.Duration) (*ServiceBusSubscriber, error) {
	receiver, err := client.NewReceiverForQueue(queue, nil)
	if err != nil {
		return nil, fmt.Errorf("service bus receiver %s: %w", queue, err)
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &ServiceBusSubscriber{receiver: receiver, wait: wait}, nil
}

// Receive implements Subscriber.
func (s *ServiceBusSubscriber) Receive(ctx context.Context, max int) ([]Delivery, error) {
	if max <= 0 {
		max = 1
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()
	messages, err := s.receiver.ReceiveMessages(waitCtx, max, nil)
	if err != nil && waitCtx.Err() == nil {
		return nil, fmt.Errorf("service bus receive: %w", err)
	}
	deliveries := make([]Delivery, 0, len(messages))
	for _, m := range messages {
		deliveries = append(deliveries, &serviceBusDelivery{receiver: s.receiver, msg: m})
	}
	return deliveries, nil
}

// Close implements Subscriber.
func (s *ServiceBusSubscriber) Close(ctx context.Context) error {
	return s.receiver.Close(ctx)
}

type serviceBusDelivery struct {
	receiver *azservicebus.Receiver
	msg      *azservicebus.ReceivedMessage
}

func (d *serviceBusDelivery) ID() string {
	if d.msg.MessageID != "" {
		return d.msg.MessageID
	}
	return PeekID(d.msg.Body)
}

func (d *serviceBusDelivery) Body() []byte { return d.msg.Body }
func (d *serviceBusDelivery) Attempts() int { return int(d.msg.DeliveryCount) }

func (d *serviceBusDelivery) Complete(ctx context.Context) error {
	return d.receiver.CompleteMessage(ctx, d.msg, nil)
}

func (d *serviceBusDelivery) Abandon(ctx context.Context) error {
	return d.receiver.AbandonMessage(ctx, d.msg, nil)
}

func (d *serviceBusDelivery) DeadLetter(ctx context.Context, reason string) error {
	return d.receiver.DeadLetterMessage(ctx, d.msg, &azservicebus.DeadLetterOptions{Reason: to.Ptr(reason)})
}
