package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"handmade-kart/internal/cache"
	"handmade-kart/internal/events"
	"handmade-kart/internal/model"
	"handmade-kart/internal/payment"
	"handmade-kart/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	rejectedSignatureTTL = 24 * time.Hour
	reconcileBatchSize   = 100
)

// PaymentOptions configures the payment service.
type PaymentOptions struct {
	KeySecret     string
	Currency      string
	UpdateRetries int
}

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	gateway     payment.Gateway
	cache       cache.Cache
	publisher   events.Publisher
	opts        PaymentOptions
	newBackOff  func() backoff.BackOff
	logger      zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	gateway payment.Gateway,
	c cache.Cache,
	publisher events.Publisher,
	opts PaymentOptions,
	logger zerolog.Logger,
) PaymentService {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.UpdateRetries < 0 {
		opts.UpdateRetries = 0
	}
	return &paymentService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		cache:       c,
		publisher:   publisher,
		opts:        opts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxElapsedTime = 5 * time.Second
			return b
		},
		logger: logger.With().Str("service", "payment").Logger(),
	}
}

// CreateIntent registers the order's total with the gateway. The receipt names the order.
func (s *paymentService) CreateIntent(ctx context.Context, identity model.Identity, req *model.CreatePaymentRequest) (*model.PaymentIntent, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	if req == nil || req.Receipt == "" {
		return nil, model.NewValidationError("Receipt is required", "receipt")
	}
	orderID, err := uuid.Parse(req.Receipt)
	if err != nil {
		return nil, model.NewValidationError("Receipt must be an order id", "receipt")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	if order == nil || order.UserID != identity.UserID {
		return nil, model.ErrOrderNotFound
	}
	if order.Status != model.OrderStatusPending || order.PaymentStatus == model.PaymentStatusPaid {
		return nil, model.NewConflictError("Order is not awaiting payment")
	}

	amount := model.ToMinorUnits(order.Total)
	if req.Amount != nil && *req.Amount != amount {
		return nil, model.NewValidationError("Amount does not match order total", "amount")
	}
	if req.Currency != "" && !strings.EqualFold(req.Currency, s.opts.Currency) {
		return nil, model.NewValidationError("Unsupported currency", "currency")
	}

	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amount, s.opts.Currency, order.ID.String())
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Int64("amount", amount).Msg("gateway rejected payment intent")
		return nil, model.NewGatewayError(err.Error())
	}

	intent := &model.PaymentIntent{
		GatewayOrderID: gatewayOrderID,
		OrderID:        order.ID,
		Amount:         amount,
		Currency:       s.opts.Currency,
		KeyID:          s.gateway.KeyID(),
	}

	// Every intent stays resolvable; the order column only tracks the latest one.
	if err = s.paymentRepo.RecordIntent(ctx, intent); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record payment intent")
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	if err = s.orderRepo.SetGatewayOrderID(ctx, order.ID, gatewayOrderID); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record gateway order")
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("gateway_order_id", gatewayOrderID).
		Int64("amount", amount).
		Msg("payment intent created")

	return intent, nil
}

// Verify checks the gateway signature, records the confirmation and applies it to
// the order. A confirmation that cannot be applied after retries is left for
// ReconcilePending and the payment is still reported verified.
func (s *paymentService) Verify(ctx context.Context, identity model.Identity, req *model.VerifyPaymentRequest) (*model.VerifyPaymentResponse, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	if err := validateVerifyRequest(req); err != nil {
		return nil, err
	}
	if s.opts.KeySecret == "" {
		return nil, model.NewGatewayError("Online payments are disabled")
	}

	key := rejectedKey(req)
	if _, rejected, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn().Err(err).Msg("rejected signature lookup failed")
	} else if rejected {
		s.logger.Warn().Str("gateway_order_id", req.GatewayOrderID).Msg("replayed rejected signature")
		return nil, model.ErrPaymentVerificationFailed
	}

	if !payment.VerifySignature(s.opts.KeySecret, req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.logger.Warn().
			Str("gateway_order_id", req.GatewayOrderID).
			Str("gateway_payment_id", req.GatewayPaymentID).
			Msg("payment signature mismatch")
		if err := s.cache.Set(ctx, key, "1", rejectedSignatureTTL); err != nil {
			s.logger.Warn().Err(err).Msg("failed to remember rejected signature")
		}
		return nil, model.ErrPaymentVerificationFailed
	}

	order, err := s.orderForIntent(ctx, req.GatewayOrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("gateway_order_id", req.GatewayOrderID).Msg("failed to get order")
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if order == nil {
		s.logger.Error().
			Str("gateway_order_id", req.GatewayOrderID).
			Str("gateway_payment_id", req.GatewayPaymentID).
			Msg("verified payment for an unknown gateway order")
		return nil, model.ErrOrderNotFound
	}

	confirmation, err := s.paymentRepo.Record(ctx, &model.PaymentConfirmation{
		ID:               uuid.New(),
		OrderID:          order.ID,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Status:           model.ConfirmationReceived,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record payment confirmation")
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	if order.UserID != identity.UserID && !identity.IsAdmin() {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("confirmation_id", confirmation.ID.String()).
			Msg("verified payment submitted by another user, left for reconciliation")
		return nil, model.ErrOrderNotFound
	}

	if confirmation.Status != model.ConfirmationApplied {
		if err = s.applyWithRetry(ctx, confirmation); err != nil {
			s.logger.Error().Err(err).
				Str("order_id", order.ID.String()).
				Str("confirmation_id", confirmation.ID.String()).
				Msg("verified payment not yet applied, left for reconciliation")
			if ferr := s.paymentRepo.RecordFailure(ctx, confirmation.ID, err.Error()); ferr != nil {
				s.logger.Error().Err(ferr).Msg("failed to record apply failure")
			}
		}
	}

	return &model.VerifyPaymentResponse{Verified: true, OrderID: order.ID}, nil
}

// orderForIntent resolves the order a gateway intent was created for, including
// intents superseded by a later CreateIntent.
func (s *paymentService) orderForIntent(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	orderID, err := s.paymentRepo.GetIntentOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	if orderID == nil {
		return s.orderRepo.GetByGatewayOrderID(ctx, gatewayOrderID)
	}
	return s.orderRepo.GetByID(ctx, *orderID)
}

func validateVerifyRequest(req *model.VerifyPaymentRequest) error {
	if req == nil {
		return model.NewValidationError("Payment details are required")
	}
	var missing []string
	if req.GatewayOrderID == "" {
		missing = append(missing, "razorpay_order_id")
	}
	if req.GatewayPaymentID == "" {
		missing = append(missing, "razorpay_payment_id")
	}
	if req.Signature == "" {
		missing = append(missing, "razorpay_signature")
	}
	if len(missing) > 0 {
		return model.NewValidationError("Missing required fields", missing...)
	}
	return nil
}

func rejectedKey(req *model.VerifyPaymentRequest) string {
	return "payment:rejected:" + req.GatewayOrderID + ":" + req.GatewayPaymentID + ":" + req.Signature
}

// applyWithRetry runs applyConfirmation under exponential backoff.
func (s *paymentService) applyWithRetry(ctx context.Context, c *model.PaymentConfirmation) error {
	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.opts.UpdateRetries)), ctx)
	return backoff.Retry(func() error {
		err := s.applyConfirmation(ctx, c)
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// applyConfirmation marks the order paid and the confirmation applied in one transaction.
// A cancelled order keeps its status so the admin can refund it.
func (s *paymentService) applyConfirmation(ctx context.Context, c *model.PaymentConfirmation) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, s.logger)

	order, err := s.orderRepo.GetForUpdate(ctx, tx, c.OrderID)
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	alreadyPaid := order.PaymentStatus == model.PaymentStatusPaid &&
		order.PaymentID != nil && *order.PaymentID == c.GatewayPaymentID

	if !alreadyPaid {
		if order.Status != model.OrderStatusCancelled {
			order.Status = model.OrderStatusProcessing
		}
		order.PaymentStatus = model.PaymentStatusPaid
		order.PaymentMethod = model.PaymentMethodOnline
		order.PaymentID = &c.GatewayPaymentID
		order.GatewayOrderID = &c.GatewayOrderID
		order.UpdatedAt = time.Now()

		if err = s.orderRepo.Update(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
	}

	if err = s.paymentRepo.MarkApplied(ctx, tx, c.ID); err != nil {
		return fmt.Errorf("failed to mark confirmation applied: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	c.Status = model.ConfirmationApplied

	if !alreadyPaid {
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("gateway_payment_id", c.GatewayPaymentID).
			Msg("payment applied to order")
		if err := s.publisher.Publish(ctx, model.NewOrderEvent(model.EventPaymentConfirmed, order)); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to publish payment event")
		}
	}
	return nil
}

// UpdatePayment handles the client's post-checkout status report. "paid" is only
// honoured with a signature-verified confirmation, "pending" selects cash on
// delivery and "failed" records an abandoned online payment.
func (s *paymentService) UpdatePayment(ctx context.Context, identity model.Identity, orderID uuid.UUID, req *model.PaymentUpdateRequest) (*model.Order, error) {
	if err := identity.RequireUser(); err != nil {
		return nil, err
	}
	if req == nil || !req.PaymentStatus.Valid() {
		return nil, model.NewValidationError("Invalid payment status", "paymentStatus")
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	if order == nil || (order.UserID != identity.UserID && !identity.IsAdmin()) {
		return nil, model.ErrOrderNotFound
	}

	switch req.PaymentStatus {
	case model.PaymentStatusPaid:
		err = s.confirmPaid(ctx, order, req)
	case model.PaymentStatusPending:
		err = s.transition(ctx, orderID, func(o *model.Order) (bool, error) {
			if o.PaymentMethod == model.PaymentMethodCOD &&
				o.Status == model.OrderStatusProcessing && o.PaymentStatus == model.PaymentStatusPending {
				return false, nil
			}
			if o.Status != model.OrderStatusPending || o.PaymentStatus != model.PaymentStatusPending {
				return false, model.NewConflictError("Order can no longer switch to cash on delivery")
			}
			o.Status = model.OrderStatusProcessing
			o.PaymentMethod = model.PaymentMethodCOD
			return true, nil
		})
	case model.PaymentStatusFailed:
		err = s.transition(ctx, orderID, func(o *model.Order) (bool, error) {
			if o.PaymentStatus == model.PaymentStatusPaid {
				return false, model.NewConflictError("Order is already paid")
			}
			if o.PaymentStatus == model.PaymentStatusFailed && o.Status == model.OrderStatusPending {
				return false, nil
			}
			o.Status = model.OrderStatusPending
			o.PaymentStatus = model.PaymentStatusFailed
			return true, nil
		})
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("payment_status", string(req.PaymentStatus)).
		Msg("payment status updated")

	updated, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	if updated == nil {
		return nil, model.ErrOrderNotFound
	}
	return updated, nil
}

func (s *paymentService) confirmPaid(ctx context.Context, order *model.Order, req *model.PaymentUpdateRequest) error {
	if req.PaymentID == "" || req.GatewayOrderID == "" {
		return model.NewValidationError("Paid status requires the gateway payment", "paymentId", "gatewayOrderId")
	}
	c, err := s.paymentRepo.Get(ctx, req.GatewayOrderID, req.PaymentID)
	if err != nil {
		return fmt.Errorf("failed to get payment confirmation: %w", err)
	}
	if c == nil || c.OrderID != order.ID {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("gateway_payment_id", req.PaymentID).
			Msg("paid status without a verified payment")
		return model.ErrPaymentVerificationFailed
	}
	if c.Status == model.ConfirmationApplied {
		return nil
	}
	if err = s.applyWithRetry(ctx, c); err != nil {
		return fmt.Errorf("failed to apply payment: %w", err)
	}
	return nil
}

// transition locks the order and applies mutate. mutate returns false to leave the order unchanged.
func (s *paymentService) transition(ctx context.Context, orderID uuid.UUID, mutate func(*model.Order) (bool, error)) error {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, s.logger)

	order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	changed, err := mutate(order)
	if err != nil || !changed {
		return err
	}
	order.UpdatedAt = time.Now()

	if err = s.orderRepo.Update(ctx, tx, order); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReconcilePending applies confirmations left unapplied and returns how many succeeded.
func (s *paymentService) ReconcilePending(ctx context.Context) (int, error) {
	pending, err := s.paymentRepo.ListPending(ctx, reconcileBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending confirmations: %w", err)
	}

	applied := 0
	for i := range pending {
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
		c := &pending[i]
		if err := s.applyConfirmation(ctx, c); err != nil {
			s.logger.Warn().Err(err).
				Str("confirmation_id", c.ID.String()).
				Str("order_id", c.OrderID.String()).
				Msg("reconcile attempt failed")
			if ferr := s.paymentRepo.RecordFailure(ctx, c.ID, err.Error()); ferr != nil {
				s.logger.Error().Err(ferr).Msg("failed to record apply failure")
			}
			continue
		}
		applied++
	}

	if len(pending) > 0 {
		s.logger.Info().Int("pending", len(pending)).Int("applied", applied).Msg("payment reconciliation pass")
	}
	return applied, nil
}
