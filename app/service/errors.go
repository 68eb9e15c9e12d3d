package service

import "errors"

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrInvalidDateRange = errors.New("both startDate and endDate must be provided, or neither")
)
