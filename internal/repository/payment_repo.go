package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/aquador-web-app/aqua-dor-connect-platform-sub002/internal/models"
)

type CreatePaymentInput struct {
	UserID           int64
	SessionPackageID *int64
	Amount           float64
	Currency         string
	Method           string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = "id, user_id, session_package_id, amount, currency, method, status, created_at, updated_at"

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := fmt.Sprintf(`
		INSERT INTO payments (user_id, session_package_id, amount, currency, method, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING %s
	`, paymentColumns)
	return r.scanOne(ctx, query,
		input.UserID,
		input.SessionPackageID,
		input.Amount,
		input.Currency,
		input.Method,
	)
}

func (r *PaymentRepository) GetByID(ctx context.Context, paymentID int64) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	return r.scanOne(ctx, query, paymentID)
}

func (r *PaymentRepository) GetByPackageIDForUpdate(ctx context.Context, packageID int64) (*models.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM payments
		WHERE session_package_id = $1
		ORDER BY id DESC
		LIMIT 1
		FOR UPDATE
	`, paymentColumns)
	return r.scanOne(ctx, query, packageID)
}

func (r *PaymentRepository) List(ctx context.Context, status string) ([]models.Payment, error) {
	args := []any{}
	whereClause := ""
	if status = strings.TrimSpace(status); status != "" {
		args = append(args, status)
		whereClause = "WHERE status = $1"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM payments
		%s
		ORDER BY created_at DESC, id DESC
	`, paymentColumns, whereClause)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		var payment models.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.UserID,
			&payment.SessionPackageID,
			&payment.Amount,
			&payment.Currency,
			&payment.Method,
			&payment.Status,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	paymentID int64,
	currentStatus string,
	nextStatus string,
) (*models.Payment, error) {
	query := fmt.Sprintf(`
		UPDATE payments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, paymentColumns)
	return r.scanOne(ctx, query, paymentID, currentStatus, nextStatus)
}

func (r *PaymentRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.SessionPackageID,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
