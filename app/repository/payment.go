package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/innowise-solutions/ms-go-payments/app/entity"
)

var ErrPaymentNotFound = errors.New("payment not found")

const paymentColumns = "id, order_id, user_id, status, timestamp, payment_amount"

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts the payment and assigns its identifier. The identifier is
// stable for the lifetime of the record.
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}

	query := `
		INSERT INTO payments (id, order_id, user_id, status, timestamp, payment_amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.UserID,
		string(payment.Status),
		payment.Timestamp,
		payment.PaymentAmount,
	)
	return err
}

// Update persists the current status of an existing payment. All other
// fields are immutable after Create.
func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `UPDATE payments SET status = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(payment.Status), payment.ID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// MySQL reports changed rows, not matched rows. A status-only update
		// that writes the value already stored affects zero rows even though
		// the row exists, so zero needs an existence check before it can be
		// treated as not found.
		existing, err := r.FindByID(ctx, payment.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrPaymentNotFound
		}
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`

	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, id), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepository) FindAll(ctx context.Context) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY timestamp ASC`
	return r.queryPayments(ctx, query)
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = ? ORDER BY timestamp ASC`
	return r.queryPayments(ctx, query, orderID)
}

func (r *PaymentRepository) FindByUserID(ctx context.Context, userID string) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? ORDER BY timestamp ASC`
	return r.queryPayments(ctx, query, userID)
}

func (r *PaymentRepository) FindByStatusIn(ctx context.Context, statuses []entity.PaymentStatus) ([]*entity.Payment, error) {
	if len(statuses) == 0 {
		return []*entity.Payment{}, nil
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status IN (` + placeholders(len(statuses)) + `) ORDER BY timestamp ASC`
	return r.queryPayments(ctx, query, statusArgs(statuses)...)
}

// FindByTimestampBetween matches payments inside the window, boundaries
// inclusive.
func (r *PaymentRepository) FindByTimestampBetween(ctx context.Context, startDate, endDate time.Time) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`
	return r.queryPayments(ctx, query, startDate, endDate)
}

func (r *PaymentRepository) FindByStatusInAndTimestampBetween(ctx context.Context, statuses []entity.PaymentStatus, startDate, endDate time.Time) ([]*entity.Payment, error) {
	if len(statuses) == 0 {
		return []*entity.Payment{}, nil
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status IN (` + placeholders(len(statuses)) + `) AND timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`
	args := append(statusArgs(statuses), startDate, endDate)
	return r.queryPayments(ctx, query, args...)
}

func (r *PaymentRepository) FindByUserIDAndStatusIn(ctx context.Context, userID string, statuses []entity.PaymentStatus) ([]*entity.Payment, error) {
	if len(statuses) == 0 {
		return []*entity.Payment{}, nil
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? AND status IN (` + placeholders(len(statuses)) + `) ORDER BY timestamp ASC`
	args := append([]interface{}{userID}, statusArgs(statuses)...)
	return r.queryPayments(ctx, query, args...)
}

func (r *PaymentRepository) FindByUserIDAndTimestampBetween(ctx context.Context, userID string, startDate, endDate time.Time) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? AND timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`
	return r.queryPayments(ctx, query, userID, startDate, endDate)
}

func (r *PaymentRepository) FindByUserIDAndStatusInAndTimestampBetween(ctx context.Context, userID string, statuses []entity.PaymentStatus, startDate, endDate time.Time) ([]*entity.Payment, error) {
	if len(statuses) == 0 {
		return []*entity.Payment{}, nil
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? AND status IN (` + placeholders(len(statuses)) + `) AND timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`
	args := append([]interface{}{userID}, statusArgs(statuses)...)
	args = append(args, startDate, endDate)
	return r.queryPayments(ctx, query, args...)
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*entity.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item := &entity.Payment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var status string

	err := scan.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.UserID,
		&status,
		&payment.Timestamp,
		&payment.PaymentAmount,
	)
	if err != nil {
		return err
	}

	payment.Status = entity.PaymentStatus(status)
	return nil
}
