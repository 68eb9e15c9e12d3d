package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/innowise-solutions/ms-go-payments/app/entity"
)

const identifierMaxLen = 50

var minPaymentAmount = decimal.RequireFromString("0.01")

type CreatePaymentRequest struct {
	OrderID       string              `json:"orderId"`
	UserID        string              `json:"userId"`
	PaymentAmount decimal.NullDecimal `json:"paymentAmount"`
	Status        string              `json:"status,omitempty"`
}

func NewCreatePaymentRequestFromContext(ctx echo.Context) (*CreatePaymentRequest, error) {
	var body CreatePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.OrderID = strings.TrimSpace(body.OrderID)
	body.UserID = strings.TrimSpace(body.UserID)
	body.Status = strings.ToUpper(strings.TrimSpace(body.Status))

	return &body, nil
}

func (r *CreatePaymentRequest) Validate() error {
	if err := ValidateIdentifier("orderId", r.OrderID); err != nil {
		return err
	}
	if err := ValidateIdentifier("userId", r.UserID); err != nil {
		return err
	}
	if !r.PaymentAmount.Valid {
		return errors.New("paymentAmount is required")
	}
	if r.PaymentAmount.Decimal.LessThan(minPaymentAmount) {
		return errors.New("paymentAmount must be at least 0.01")
	}
	if r.Status != "" {
		if _, ok := entity.ParsePaymentStatus(r.Status); !ok {
			return fmt.Errorf("invalid status: %s", r.Status)
		}
	}
	return nil
}

func (r *CreatePaymentRequest) GetOrderID() string { return r.OrderID }

func (r *CreatePaymentRequest) GetUserID() string { return r.UserID }

func (r *CreatePaymentRequest) GetPaymentAmount() decimal.NullDecimal { return r.PaymentAmount }

// GetStatus returns the requested initial status, or the zero value when the
// caller did not override it.
func (r *CreatePaymentRequest) GetStatus() entity.PaymentStatus {
	status, ok := entity.ParsePaymentStatus(r.Status)
	if !ok {
		return ""
	}
	return status
}

// TotalSumQuery carries the optional filters of the aggregation endpoints.
// The date window is optional as a pair: supplying exactly one boundary is
// rejected by Validate.
type TotalSumQuery struct {
	StartDate *time.Time
	EndDate   *time.Time
	Statuses  []entity.PaymentStatus
}

func NewTotalSumQueryFromContext(ctx echo.Context) (*TotalSumQuery, error) {
	query := &TotalSumQuery{}

	startDate, err := parseOptionalInstant(ctx.QueryParam("startDate"), "startDate")
	if err != nil {
		return nil, err
	}
	query.StartDate = startDate

	endDate, err := parseOptionalInstant(ctx.QueryParam("endDate"), "endDate")
	if err != nil {
		return nil, err
	}
	query.EndDate = endDate

	statuses, err := ParseStatuses(ctx.QueryParams()["statuses"])
	if err != nil {
		return nil, err
	}
	query.Statuses = statuses

	return query, nil
}

func (q *TotalSumQuery) Validate() error {
	if (q.StartDate == nil) != (q.EndDate == nil) {
		return errors.New("both startDate and endDate must be provided, or neither")
	}
	return nil
}

// ParseStatuses accepts repeated and comma-separated status query values.
func ParseStatuses(values []string) ([]entity.PaymentStatus, error) {
	statuses := make([]entity.PaymentStatus, 0, len(values))
	for _, value := range values {
		for _, raw := range strings.Split(value, ",") {
			raw = strings.ToUpper(strings.TrimSpace(raw))
			if raw == "" {
				continue
			}
			status, ok := entity.ParsePaymentStatus(raw)
			if !ok {
				return nil, fmt.Errorf("invalid status: %s", raw)
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

func ValidateIdentifier(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(value) > identifierMaxLen {
		return fmt.Errorf("%s must be between 1 and %d characters", field, identifierMaxLen)
	}
	return nil
}

func parseOptionalInstant(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	instant, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be an ISO-8601 instant", field)
	}
	return &instant, nil
}

type Payment struct {
	ID            string           `json:"id"`
	OrderID       string           `json:"orderId"`
	UserID        string           `json:"userId"`
	Status        string           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	PaymentAmount *decimal.Decimal `json:"paymentAmount"`
}

type TotalSumResponse struct {
	TotalSum     decimal.Decimal `json:"totalSum"`
	StartDate    *time.Time      `json:"startDate,omitempty"`
	EndDate      *time.Time      `json:"endDate,omitempty"`
	PaymentCount int64           `json:"paymentCount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
