package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/innowise-solutions/ms-go-payments/app/entity"
	"github.com/innowise-solutions/ms-go-payments/app/factory"
	"github.com/innowise-solutions/ms-go-payments/app/types"
)

// Order statuses reported to the order service during the payment workflow.
// An order transitions to CANCELED once a payment attempt completed,
// regardless of the payment's own outcome.
const (
	orderStatusProcessing = "PROCESSING"
	orderStatusCanceled   = "CANCELED"
)

type createPaymentRequest interface {
	GetOrderID() string
	GetUserID() string
	GetPaymentAmount() decimal.NullDecimal
	GetStatus() entity.PaymentStatus
}

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id string) (*entity.Payment, error)
	FindAll(ctx context.Context) ([]*entity.Payment, error)
	FindByOrderID(ctx context.Context, orderID string) ([]*entity.Payment, error)
	FindByUserID(ctx context.Context, userID string) ([]*entity.Payment, error)
	FindByStatusIn(ctx context.Context, statuses []entity.PaymentStatus) ([]*entity.Payment, error)
	FindByTimestampBetween(ctx context.Context, startDate, endDate time.Time) ([]*entity.Payment, error)
	FindByStatusInAndTimestampBetween(ctx context.Context, statuses []entity.PaymentStatus, startDate, endDate time.Time) ([]*entity.Payment, error)
	FindByUserIDAndStatusIn(ctx context.Context, userID string, statuses []entity.PaymentStatus) ([]*entity.Payment, error)
	FindByUserIDAndTimestampBetween(ctx context.Context, userID string, startDate, endDate time.Time) ([]*entity.Payment, error)
	FindByUserIDAndStatusInAndTimestampBetween(ctx context.Context, userID string, statuses []entity.PaymentStatus, startDate, endDate time.Time) ([]*entity.Payment, error)
}

type outcomeClient interface {
	FetchNumber(ctx context.Context) (int, bool)
}

type orderServiceClient interface {
	UpdateOrderStatus(ctx context.Context, orderID, status, authToken string) error
}

type paymentEventPublisher interface {
	PublishCreatePayment(paymentID, orderID, status string) error
}

type PaymentService struct {
	paymentRepo paymentRepository
	outcome     outcomeClient
	orders      orderServiceClient
	events      paymentEventPublisher
	logger      logrus.FieldLogger
}

func NewPaymentService(
	paymentRepo paymentRepository,
	outcome outcomeClient,
	orders orderServiceClient,
	events paymentEventPublisher,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		outcome:     outcome,
		orders:      orders,
		events:      events,
		logger:      factory.NewModuleLogger("payment-service"),
	}
}

// CreatePayment runs the payment lifecycle: persist a new record, resolve
// the outcome through the random-number API, persist the resolved status,
// then notify the order service and the event bus. Persistence failures
// abort the workflow; notification and event failures are logged and
// swallowed, because the payment record itself is the source of truth once
// the outcome is persisted.
func (s *PaymentService) CreatePayment(ctx context.Context, req createPaymentRequest, authToken string) (*entity.Payment, error) {
	payment := &entity.Payment{
		OrderID:       strings.TrimSpace(req.GetOrderID()),
		UserID:        strings.TrimSpace(req.GetUserID()),
		Status:        req.GetStatus(),
		PaymentAmount: req.GetPaymentAmount(),
		Timestamp:     time.Now().UTC(),
	}
	if payment.Status == "" {
		payment.Status = entity.PaymentStatusCreated
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"payment_id": payment.ID, "order_id": payment.OrderID}).Info("Payment created")

	s.notifyOrderStatus(ctx, payment.OrderID, orderStatusProcessing, authToken)

	payment.Status = s.resolveOutcome(ctx, payment.ID)
	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, fmt.Errorf("update payment %s: %w", payment.ID, err)
	}

	persisted, err := s.paymentRepo.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("reload payment %s: %w", payment.ID, err)
	}
	if persisted == nil {
		return nil, fmt.Errorf("%w after update: %s", ErrPaymentNotFound, payment.ID)
	}

	s.notifyOrderStatus(ctx, persisted.OrderID, orderStatusCanceled, authToken)

	if err := s.events.PublishCreatePayment(persisted.ID, persisted.OrderID, orderStatusCanceled); err != nil {
		s.logger.WithError(err).WithField("payment_id", persisted.ID).Error("Failed to publish create-payment event")
	}

	return persisted, nil
}

// resolveOutcome maps the external number to a final status: even means
// SUCCESS, odd means FAILED. No number at all also means FAILED, so a
// payment is never left without a definitive outcome.
func (s *PaymentService) resolveOutcome(ctx context.Context, paymentID string) entity.PaymentStatus {
	number, ok := s.outcome.FetchNumber(ctx)
	if !ok {
		s.logger.WithField("payment_id", paymentID).Warn("No outcome from random number API, marking payment failed")
		return entity.PaymentStatusFailed
	}

	if number%2 == 0 {
		return entity.PaymentStatusSuccess
	}
	return entity.PaymentStatusFailed
}

func (s *PaymentService) notifyOrderStatus(ctx context.Context, orderID, status, authToken string) {
	if err := s.orders.UpdateOrderStatus(ctx, orderID, status, authToken); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"order_id": orderID, "status": status}).Error("Failed to update order status")
	}
}

func (s *PaymentService) GetAllPayments(ctx context.Context) ([]*entity.Payment, error) {
	return s.paymentRepo.FindAll(ctx)
}

func (s *PaymentService) GetPaymentsByOrderID(ctx context.Context, orderID string) ([]*entity.Payment, error) {
	return s.paymentRepo.FindByOrderID(ctx, orderID)
}

func (s *PaymentService) GetPaymentsByUserID(ctx context.Context, userID string) ([]*entity.Payment, error) {
	return s.paymentRepo.FindByUserID(ctx, userID)
}

func (s *PaymentService) GetPaymentsByStatuses(ctx context.Context, statuses []entity.PaymentStatus) ([]*entity.Payment, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w: statuses must not be empty", ErrInvalidRequest)
	}
	return s.paymentRepo.FindByStatusIn(ctx, statuses)
}

func (s *PaymentService) GetTotalSum(ctx context.Context) (*types.TotalSumResponse, error) {
	payments, err := s.paymentRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return buildTotalSum(payments, nil, nil), nil
}

func (s *PaymentService) GetTotalSumByStatuses(ctx context.Context, statuses []entity.PaymentStatus) (*types.TotalSumResponse, error) {
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w: statuses must not be empty", ErrInvalidRequest)
	}

	payments, err := s.paymentRepo.FindByStatusIn(ctx, statuses)
	if err != nil {
		return nil, err
	}
	return buildTotalSum(payments, nil, nil), nil
}

func (s *PaymentService) GetTotalSumByDatePeriod(ctx context.Context, startDate, endDate time.Time) (*types.TotalSumResponse, error) {
	payments, err := s.paymentRepo.FindByTimestampBetween(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return buildTotalSum(payments, &startDate, &endDate), nil
}

func (s *PaymentService) GetTotalSumByDatePeriodAndStatuses(ctx context.Context, startDate, endDate time.Time, statuses []entity.PaymentStatus) (*types.TotalSumResponse, error) {
	payments, err := s.paymentRepo.FindByStatusInAndTimestampBetween(ctx, statuses, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return buildTotalSum(payments, &startDate, &endDate), nil
}

// GetTotalSumByUserID aggregates one user's payments. The date window is
// optional as a pair; each filter combination maps to its own repository
// lookup so filtering happens in the store.
func (s *PaymentService) GetTotalSumByUserID(ctx context.Context, userID string, startDate, endDate *time.Time, statuses []entity.PaymentStatus) (*types.TotalSumResponse, error) {
	var payments []*entity.Payment
	var err error

	switch {
	case startDate == nil && endDate == nil:
		if len(statuses) > 0 {
			payments, err = s.paymentRepo.FindByUserIDAndStatusIn(ctx, userID, statuses)
		} else {
			payments, err = s.paymentRepo.FindByUserID(ctx, userID)
		}
	case startDate != nil && endDate != nil:
		if len(statuses) > 0 {
			payments, err = s.paymentRepo.FindByUserIDAndStatusInAndTimestampBetween(ctx, userID, statuses, *startDate, *endDate)
		} else {
			payments, err = s.paymentRepo.FindByUserIDAndTimestampBetween(ctx, userID, *startDate, *endDate)
		}
	default:
		return nil, ErrInvalidDateRange
	}
	if err != nil {
		return nil, err
	}

	return buildTotalSum(payments, startDate, endDate), nil
}

// buildTotalSum reduces a payment set with exact decimal addition. Records
// without an amount still count toward paymentCount but add nothing to the
// sum. An empty set yields a zero total, never an error.
func buildTotalSum(payments []*entity.Payment, startDate, endDate *time.Time) *types.TotalSumResponse {
	total := decimal.Zero
	for _, payment := range payments {
		if payment.PaymentAmount.Valid {
			total = total.Add(payment.PaymentAmount.Decimal)
		}
	}

	return &types.TotalSumResponse{
		TotalSum:     total,
		StartDate:    startDate,
		EndDate:      endDate,
		PaymentCount: int64(len(payments)),
	}
}
