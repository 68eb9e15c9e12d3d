package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/innowise-solutions/ms-go-payments/app/factory"
)

const defaultPublishTimeout = 10 * time.Second

// CreatePaymentEvent is the payload published after a payment attempt
// completes. Status is the resulting order status, not the payment's.
type CreatePaymentEvent struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// PaymentEventProducer emits create-payment lifecycle events keyed by
// payment id. Delivery is fire-and-forget: the caller never waits for
// broker acknowledgment, and failures are only logged.
type PaymentEventProducer struct {
	writer  messageWriter
	timeout time.Duration
	logger  logrus.FieldLogger
}

func NewPaymentEventProducer(brokers []string, topic string, timeout time.Duration) *PaymentEventProducer {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	return &PaymentEventProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
		timeout: timeout,
		logger:  factory.NewModuleLogger("payment-event-producer"),
	}
}

func (p *PaymentEventProducer) PublishCreatePayment(paymentID, orderID, status string) error {
	payload, err := json.Marshal(CreatePaymentEvent{OrderID: orderID, Status: status})
	if err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		err := p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(paymentID),
			Value: payload,
		})
		entry := p.logger.WithFields(logrus.Fields{"payment_id": paymentID, "order_id": orderID})
		if err != nil {
			entry.WithError(err).Error("Failed to publish create-payment event")
			return
		}
		entry.Info("Create-payment event published")
	}()

	return nil
}

func (p *PaymentEventProducer) Close() error {
	if closer, ok := p.writer.(*kafka.Writer); ok {
		return closer.Close()
	}
	return nil
}
