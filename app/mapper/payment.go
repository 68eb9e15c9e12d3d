package mapper

import (
	"github.com/shopspring/decimal"

	"github.com/innowise-solutions/ms-go-payments/app/entity"
	"github.com/innowise-solutions/ms-go-payments/app/types"
)

func PaymentToResponse(item *entity.Payment) *types.Payment {
	if item == nil {
		return nil
	}

	return &types.Payment{
		ID:            item.ID,
		OrderID:       item.OrderID,
		UserID:        item.UserID,
		Status:        string(item.Status),
		Timestamp:     item.Timestamp.UTC(),
		PaymentAmount: amountPtr(item.PaymentAmount),
	}
}

func PaymentsToResponse(items []*entity.Payment) []*types.Payment {
	result := make([]*types.Payment, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToResponse(item))
	}
	return result
}

func amountPtr(amount decimal.NullDecimal) *decimal.Decimal {
	if !amount.Valid {
		return nil
	}
	value := amount.Decimal
	return &value
}
