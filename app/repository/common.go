package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/innowise-solutions/ms-go-payments/app/entity"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func statusArgs(statuses []entity.PaymentStatus) []interface{} {
	args := make([]interface{}, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	return args
}
