package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/innowise-solutions/ms-go-payments/app/factory"
	"github.com/innowise-solutions/ms-go-payments/app/service"
	"github.com/innowise-solutions/ms-go-payments/app/types"
)

// CreateOrderEvent is the payload the order service publishes when an order
// is opened.
type CreateOrderEvent struct {
	OrderID int64 `json:"orderId"`
	UserID  int64 `json:"userId"`
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEventConsumer opens a payment for every incoming create-order event.
type OrderEventConsumer struct {
	reader   messageReader
	payments *service.PaymentService
	logger   logrus.FieldLogger
}

func NewOrderEventConsumer(brokers []string, topic, groupID string, payments *service.PaymentService) *OrderEventConsumer {
	return &OrderEventConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}),
		payments: payments,
		logger:   factory.NewModuleLogger("order-event-consumer"),
	}
}

// Run consumes until the context is cancelled. Messages are committed even
// when processing fails: the payment workflow carries no retries, and a
// poison message must not wedge the partition.
func (c *OrderEventConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		c.handleMessage(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.WithError(err).Error("Failed to commit order event offset")
		}
	}
}

func (c *OrderEventConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event CreateOrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.WithError(err).WithField("offset", msg.Offset).Error("Skipping undecodable order event")
		return
	}

	// The amount is not known at order-creation time; the record is opened
	// without one and no auth token exists for an event-originated call.
	req := &types.CreatePaymentRequest{
		OrderID: strconv.FormatInt(event.OrderID, 10),
		UserID:  strconv.FormatInt(event.UserID, 10),
	}

	payment, err := c.payments.CreatePayment(ctx, req, "")
	if err != nil {
		c.logger.WithError(err).WithField("order_id", req.OrderID).Error("Failed to open payment for order event")
		return
	}

	c.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"order_id":   payment.OrderID,
		"status":     payment.Status,
		"offset":     msg.Offset,
	}).Info("Order event processed")
}

func (c *OrderEventConsumer) Close() error {
	return c.reader.Close()
}
