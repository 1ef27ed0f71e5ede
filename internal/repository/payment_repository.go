package repository

import (
	"context"
	"errors"
	"fmt"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const confirmationColumns = `id, order_id, gateway_order_id, gateway_payment_id, status, attempts, last_error, created_at, applied_at`

// MaxApplyAttempts is the number of failed applies after which the reconciler stops
// picking a confirmation up. Such rows stay in the table for manual review.
const MaxApplyAttempts = 20

type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment confirmation store.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

func scanConfirmation(row pgx.Row) (*model.PaymentConfirmation, error) {
	var c model.PaymentConfirmation
	err := row.Scan(&c.ID, &c.OrderID, &c.GatewayOrderID, &c.GatewayPaymentID, &c.Status,
		&c.Attempts, &c.LastError, &c.CreatedAt, &c.AppliedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// RecordIntent stores the gateway intent. Re-recording the same intent is a no-op.
func (r *paymentRepository) RecordIntent(ctx context.Context, intent *model.PaymentIntent) error {
	query := `
		INSERT INTO payment_intents (gateway_order_id, order_id, amount, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (gateway_order_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, intent.GatewayOrderID, intent.OrderID, intent.Amount, intent.Currency)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", intent.OrderID.String()).
			Str("gateway_order_id", intent.GatewayOrderID).
			Msg("failed to record payment intent")
		return fmt.Errorf("failed to record payment intent: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetIntentOrderID(ctx context.Context, gatewayOrderID string) (*uuid.UUID, error) {
	var orderID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT order_id FROM payment_intents WHERE gateway_order_id = $1`, gatewayOrderID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to query payment intent")
		return nil, fmt.Errorf("failed to query payment intent: %w", err)
	}
	return &orderID, nil
}

// Record inserts a confirmation. A repeated gateway payment returns the stored row unchanged.
func (r *paymentRepository) Record(ctx context.Context, c *model.PaymentConfirmation) (*model.PaymentConfirmation, error) {
	query := `
		INSERT INTO payment_confirmations (id, order_id, gateway_order_id, gateway_payment_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (gateway_order_id, gateway_payment_id)
		DO UPDATE SET gateway_order_id = payment_confirmations.gateway_order_id
		RETURNING ` + confirmationColumns

	stored, err := scanConfirmation(r.pool.QueryRow(ctx, query,
		c.ID, c.OrderID, c.GatewayOrderID, c.GatewayPaymentID, c.Status, c.CreatedAt,
	))
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("gateway_order_id", c.GatewayOrderID).
			Str("gateway_payment_id", c.GatewayPaymentID).
			Msg("failed to record payment confirmation")
		return nil, fmt.Errorf("failed to record payment confirmation: %w", err)
	}
	return stored, nil
}

func (r *paymentRepository) Get(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*model.PaymentConfirmation, error) {
	query := `SELECT ` + confirmationColumns + ` FROM payment_confirmations
		WHERE gateway_order_id = $1 AND gateway_payment_id = $2`

	c, err := scanConfirmation(r.pool.QueryRow(ctx, query, gatewayOrderID, gatewayPaymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to query payment confirmation")
		return nil, fmt.Errorf("failed to query payment confirmation: %w", err)
	}
	return c, nil
}

func (r *paymentRepository) MarkApplied(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE payment_confirmations
		SET status = 'applied', attempts = attempts + 1, last_error = NULL, applied_at = NOW()
		WHERE id = $1
	`
	if _, err := querier(r.pool, tx).Exec(ctx, query, id); err != nil {
		r.logger.Error().Err(err).Str("confirmation_id", id.String()).Msg("failed to mark confirmation applied")
		return fmt.Errorf("failed to mark confirmation applied: %w", err)
	}
	return nil
}

func (r *paymentRepository) RecordFailure(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE payment_confirmations SET attempts = attempts + 1, last_error = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, reason); err != nil {
		r.logger.Error().Err(err).Str("confirmation_id", id.String()).Msg("failed to record confirmation failure")
		return fmt.Errorf("failed to record confirmation failure: %w", err)
	}
	return nil
}

// ListPending returns unapplied confirmations, least-attempted first, skipping rows
// that already failed MaxApplyAttempts times.
func (r *paymentRepository) ListPending(ctx context.Context, limit int) ([]model.PaymentConfirmation, error) {
	query := `SELECT ` + confirmationColumns + ` FROM payment_confirmations
		WHERE status = 'received' AND attempts < $2
		ORDER BY attempts, created_at
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit, MaxApplyAttempts)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query pending confirmations")
		return nil, fmt.Errorf("failed to query pending confirmations: %w", err)
	}
	defer rows.Close()

	var out []model.PaymentConfirmation
	for rows.Next() {
		c, err := scanConfirmation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment confirmation: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment confirmations: %w", err)
	}
	return out, nil
}
