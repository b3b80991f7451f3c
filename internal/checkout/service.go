package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/snaapconnections/storefront/internal/cart"
	"github.com/snaapconnections/storefront/internal/pricing"
	"github.com/snaapconnections/storefront/pkg/enums"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/logger"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

const (
	submitFailedMessage = "Failed to submit order. Please try again."
	lockScope           = "checkout_submit"
)

type cartSource interface {
	Items(ctx context.Context, sessionID string) ([]cart.Item, error)
	Clear(ctx context.Context, sessionID string) (*cart.View, error)
}

// Submitter places orders with the remote API.
type Submitter interface {
	CreateOrder(ctx context.Context, req storefrontapi.OrderRequest, idempotencyKey string) (*storefrontapi.OrderAck, error)
}

// Locker provides a distributed lock so only one instance submits a session's order.
type Locker interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
	LockKey(scope, id string) string
}

type transitionRecorder interface {
	IncTransition(from, to, outcome string)
	ObserveSubmission(outcome string, d time.Duration)
}

// SubmitPolicy bounds the remote order submission.
type SubmitPolicy struct {
	Timeout time.Duration
	Retries uint64
	Backoff time.Duration
	LockTTL time.Duration
}

type Options struct {
	Cart           cartSource
	Submitter      Submitter
	Locker         Locker
	Registry       *Registry
	Pricing        pricing.Policy
	Submit         SubmitPolicy
	WhatsAppNumber string
	DefaultCity    string
	Metrics        transitionRecorder
	Logger         *logger.Logger
}

// View is a checkout snapshot with the cart it would submit.
type View struct {
	Snapshot
	Items     []cart.Item       `json:"items"`
	Totals    pricing.Totals    `json:"totals"`
	Formatted pricing.Formatted `json:"formatted"`
}

// Service drives the checkout state machine for shopper sessions.
type Service interface {
	Start(ctx context.Context, sessionID string) (*View, error)
	State(ctx context.Context, sessionID string) (*View, error)
	UpdateDelivery(ctx context.Context, sessionID string, form DeliveryForm) (*View, error)
	UpdatePayment(ctx context.Context, sessionID string, form PaymentForm) (*View, error)
	Next(ctx context.Context, sessionID string) (*View, error)
	Back(ctx context.Context, sessionID string) (*View, error)
	Submit(ctx context.Context, sessionID string) (*View, error)
}

type service struct {
	opts Options
	now  func() time.Time
}

func NewService(opts Options) (Service, error) {
	if opts.Cart == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if opts.Submitter == nil {
		return nil, fmt.Errorf("order submitter required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("session registry required")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.WhatsAppNumber == "" {
		return nil, fmt.Errorf("whatsapp number required")
	}
	if opts.Submit.Timeout <= 0 {
		opts.Submit.Timeout = storefrontapi.DefaultTimeout
	}
	if opts.Submit.Backoff <= 0 {
		opts.Submit.Backoff = 250 * time.Millisecond
	}
	if opts.Submit.LockTTL <= 0 {
		opts.Submit.LockTTL = time.Minute
	}
	return &service{opts: opts, now: time.Now}, nil
}

func (s *service) session(sessionID string) (*Session, error) {
	sess, ok := s.opts.Registry.Get(sessionID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not started")
	}
	return sess, nil
}

func (s *service) view(ctx context.Context, sessionID string, snap Snapshot) (*View, error) {
	items, err := s.opts.Cart.Items(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	totals := s.opts.Pricing.Compute(cart.Lines(items), snap.Draft.Delivery.Method)
	return &View{Snapshot: snap, Items: items, Totals: totals, Formatted: totals.Format()}, nil
}

func (s *service) withView(ctx context.Context, sessionID string, snap Snapshot, opErr error) (*View, error) {
	if opErr != nil {
		return nil, opErr
	}
	return s.view(ctx, sessionID, snap)
}

func (s *service) Start(ctx context.Context, sessionID string) (*View, error) {
	sess, created := s.opts.Registry.Start(sessionID, func() Draft { return DefaultDraft(s.opts.DefaultCity) })
	if created {
		s.opts.Logger.Info(s.opts.Logger.WithSessionID(ctx, sessionID), "checkout started")
	}
	return s.view(ctx, sessionID, sess.Snapshot())
}

func (s *service) State(ctx context.Context, sessionID string) (*View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sessionID, sess.Snapshot())
}

func (s *service) UpdateDelivery(ctx context.Context, sessionID string, form DeliveryForm) (*View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	snap, err := sess.UpdateDelivery(form, s.now())
	return s.withView(ctx, sessionID, snap, err)
}

func (s *service) UpdatePayment(ctx context.Context, sessionID string, form PaymentForm) (*View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	snap, err := sess.UpdatePayment(form, s.now())
	return s.withView(ctx, sessionID, snap, err)
}

func (s *service) Next(ctx context.Context, sessionID string) (*View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	from := sess.Stage()
	snap, err := sess.Next(s.now())
	s.recordTransition(from, enums.CheckoutStagePayment, err)
	return s.withView(ctx, sessionID, snap, err)
}

func (s *service) Back(ctx context.Context, sessionID string) (*View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	from := sess.Stage()
	snap, err := sess.Back(s.now())
	if from == enums.CheckoutStagePayment {
		s.recordTransition(from, enums.CheckoutStageDelivery, err)
	}
	return s.withView(ctx, sessionID, snap, err)
}

func (s *service) recordTransition(from, to enums.CheckoutStage, err error) {
	if s.opts.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	s.opts.Metrics.IncTransition(from.String(), to.String(), outcome)
}

func (s *service) Submit(ctx context.Context, sessionID string) (*View, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	ctx = s.opts.Logger.WithSessionID(ctx, sessionID)

	items, err := s.opts.Cart.Items(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty")
	}

	att, err := sess.beginSubmit(items, s.now())
	if err != nil {
		s.recordTransition(enums.CheckoutStagePayment, enums.CheckoutStageConfirmation, err)
		return nil, err
	}

	totals := s.opts.Pricing.Compute(cart.Lines(items), att.draft.Delivery.Method)
	ctx = s.opts.Logger.WithFields(ctx, map[string]any{
		"order_reference": att.reference,
		"idempotency_key": att.idempotencyKey,
	})

	release, err := s.lock(ctx, sessionID, att.idempotencyKey)
	if err != nil {
		sess.finishSubmit(nil, s.now())
		return nil, err
	}
	defer release()

	started := time.Now()
	ack, err := s.send(ctx, buildOrderRequest(att, items, totals), att.idempotencyKey)
	elapsed := time.Since(started)
	if err != nil {
		sess.finishSubmit(nil, s.now())
		s.observe("failure", elapsed)
		s.recordTransition(enums.CheckoutStagePayment, enums.CheckoutStageConfirmation, err)
		s.opts.Logger.Error(ctx, "order submission failed", err)
		return nil, submitError(ctx, err)
	}

	receipt := &Receipt{
		Reference:      att.reference,
		OrderID:        ack.ID,
		DeliveryMethod: att.draft.Delivery.Method,
		PaymentMethod:  att.draft.Payment.Method,
		Items:          items,
		Totals:         totals,
		Formatted:      totals.Format(),
		FollowUp:       followUpFor(att.draft.Payment.Method, s.opts.WhatsAppNumber, items, totals, att.reference),
		PlacedAt:       s.now().UTC(),
	}
	snap := sess.finishSubmit(receipt, s.now())
	s.observe("success", elapsed)
	s.recordTransition(enums.CheckoutStagePayment, enums.CheckoutStageConfirmation, nil)
	s.opts.Logger.Info(ctx, "order submitted")

	if _, err := s.opts.Cart.Clear(ctx, sessionID); err != nil {
		s.opts.Logger.Warn(s.opts.Logger.WithField(ctx, "error", err.Error()), "cart not cleared after order")
	}
	return s.view(ctx, sessionID, snap)
}

func (s *service) observe(outcome string, d time.Duration) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveSubmission(outcome, d)
	}
}

// lock takes the distributed submit lock when a Locker is configured.
func (s *service) lock(ctx context.Context, sessionID, token string) (func(), error) {
	if s.opts.Locker == nil {
		return func() {}, nil
	}
	key := s.opts.Locker.LockKey(lockScope, sessionID)
	ok, err := s.opts.Locker.Acquire(ctx, key, token, s.opts.Submit.LockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, submitFailedMessage)
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")
	}
	return func() {
		if err := s.opts.Locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.opts.Logger.Warn(s.opts.Logger.WithField(ctx, "error", err.Error()), "failed to release submit lock")
		}
	}, nil
}

// send posts the order with a per-attempt timeout, retrying retryable
// failures with exponential backoff. The idempotency key is the same for
// every attempt.
func (s *service) send(ctx context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error) {
	backoff := retry.WithMaxRetries(s.opts.Submit.Retries, retry.NewExponential(s.opts.Submit.Backoff))

	var ack *storefrontapi.OrderAck
	attemptNo := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptNo++
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Submit.Timeout)
		defer cancel()

		res, err := s.opts.Submitter.CreateOrder(attemptCtx, req, key)
		if err == nil {
			ack = res
			return nil
		}
		if ctx.Err() == nil && (pkgerrors.IsRetryable(err) || attemptCtx.Err() != nil) {
			s.opts.Logger.Warn(s.opts.Logger.WithFields(ctx, map[string]any{
				"attempt": attemptNo,
				"error":   err.Error(),
			}), "order submission attempt failed")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if ack == nil {
		ack = &storefrontapi.OrderAck{}
	}
	return ack, nil
}

func submitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctxErr, submitFailedMessage)
	}
	if pkgerrors.CodeOf(err) == pkgerrors.CodeTimeout {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, submitFailedMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, submitFailedMessage)
}

func buildOrderRequest(att attempt, items []cart.Item, totals pricing.Totals) storefrontapi.OrderRequest {
	addr := att.draft.Delivery.Address.trimmed()
	if att.draft.Delivery.Method != enums.DeliveryMethodDelivery {
		addr.Street = ""
		addr.City = ""
		addr.PostalCode = ""
	}
	lines := make([]storefrontapi.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, storefrontapi.OrderLine{
			ID:       it.ID,
			Name:     it.Name,
			Price:    storefrontapi.Amount(it.Price),
			Quantity: it.Quantity,
			Image:    it.Image,
		})
	}
	return storefrontapi.OrderRequest{
		Reference:      att.reference,
		DeliveryMethod: att.draft.Delivery.Method.String(),
		Address: storefrontapi.OrderAddress{
			FirstName:  addr.FirstName,
			LastName:   addr.LastName,
			Phone:      addr.Phone,
			Email:      addr.Email,
			Street:     addr.Street,
			City:       addr.City,
			PostalCode: addr.PostalCode,
			Notes:      addr.Notes,
		},
		PaymentMethod: att.draft.Payment.Method.String(),
		Items:         lines,
		Subtotal:      storefrontapi.Amount(totals.Subtotal),
		ShippingFee:   storefrontapi.Amount(totals.ShippingFee),
		Total:         storefrontapi.Amount(totals.Total),
	}
}
