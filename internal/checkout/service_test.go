package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snaapconnections/storefront/internal/cart"
	"github.com/snaapconnections/storefront/internal/pricing"
	"github.com/snaapconnections/storefront/pkg/enums"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/logger"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

type fakeCart struct {
	mu      sync.Mutex
	items   []cart.Item
	cleared bool
}

func (f *fakeCart) Items(context.Context, string) ([]cart.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]cart.Item, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeCart) Clear(context.Context, string) (*cart.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.cleared = true
	return &cart.View{}, nil
}

type submitFunc func(ctx context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	keys  []string
	reqs  []storefrontapi.OrderRequest
	fn    submitFunc
}

func (f *fakeSubmitter) CreateOrder(ctx context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error) {
	f.mu.Lock()
	f.calls++
	f.keys = append(f.keys, key)
	f.reqs = append(f.reqs, req)
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return &storefrontapi.OrderAck{ID: "remote-1"}, nil
	}
	return fn(ctx, req, key)
}

type fakeLocker struct {
	held    map[string]string
	refuse  bool
	release int
}

func (l *fakeLocker) Acquire(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	if l.refuse {
		return false, nil
	}
	if l.held == nil {
		l.held = map[string]string{}
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = token
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, key, token string) error {
	if l.held[key] == token {
		delete(l.held, key)
	}
	l.release++
	return nil
}

func (l *fakeLocker) LockKey(scope, id string) string { return "sf:lock:" + scope + ":" + id }

type harness struct {
	svc       Service
	cart      *fakeCart
	submitter *fakeSubmitter
	locker    *fakeLocker
}

func newHarness(t *testing.T, fn submitFunc) *harness {
	t.Helper()
	h := &harness{
		cart: &fakeCart{items: []cart.Item{
			{ID: "p1", Name: "Galaxy A15", Price: decimal.NewFromInt(6500), Quantity: 2},
		}},
		submitter: &fakeSubmitter{fn: fn},
		locker:    &fakeLocker{},
	}
	svc, err := NewService(Options{
		Cart:           h.cart,
		Submitter:      h.submitter,
		Locker:         h.locker,
		Registry:       NewRegistry(time.Hour),
		Pricing:        pricing.DefaultPolicy(),
		Submit:         SubmitPolicy{Timeout: 50 * time.Millisecond, Retries: 2, Backoff: time.Millisecond},
		WhatsAppNumber: "254711111602",
		DefaultCity:    "Nairobi",
		Logger:         logger.Nop(),
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

// toPayment walks a fresh checkout to the payment step with the given payment form.
func (h *harness) toPayment(t *testing.T, payment PaymentForm) {
	t.Helper()
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "s1")
	require.NoError(t, err)
	_, err = h.svc.UpdateDelivery(ctx, "s1", DeliveryForm{Method: enums.DeliveryMethodDelivery, Address: completeAddress()})
	require.NoError(t, err)
	_, err = h.svc.Next(ctx, "s1")
	require.NoError(t, err)
	_, err = h.svc.UpdatePayment(ctx, "s1", payment)
	require.NoError(t, err)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(Options{})
	require.Error(t, err)
}

func TestOperationsBeforeStartAreNotFound(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.svc.State(context.Background(), "nobody")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestStartShowsDefaultsAndTotals(t *testing.T) {
	h := newHarness(t, nil)
	view, err := h.svc.Start(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStageDelivery, view.Stage)
	assert.Equal(t, "Nairobi", view.Draft.Delivery.Address.City)
	assert.True(t, view.Totals.Total.Equal(decimal.NewFromInt(13000)))
}

func TestSubmitWhatsAppOrder(t *testing.T) {
	h := newHarness(t, nil)
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodWhatsApp, AgreeToTerms: true})

	view, err := h.svc.Submit(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStageConfirmation, view.Stage)
	require.NotNil(t, view.Receipt)
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, view.Receipt.Reference)
	assert.Equal(t, "remote-1", view.Receipt.OrderID)
	assert.True(t, view.Receipt.Totals.Total.Equal(decimal.NewFromInt(13000)))
	assert.True(t, strings.HasPrefix(view.Receipt.FollowUp.WhatsAppURL, "https://wa.me/254711111602?text="))
	assert.True(t, h.cart.cleared)
	assert.Equal(t, 1, h.locker.release)

	req := h.submitter.reqs[0]
	assert.Equal(t, "delivery", req.DeliveryMethod)
	assert.Equal(t, "whatsapp", req.PaymentMethod)
	assert.Equal(t, "13000.00", req.Subtotal.String())
	assert.Equal(t, "0.00", req.ShippingFee.String())
	assert.Equal(t, view.Receipt.Reference, req.Reference)
}

func TestSubmitFollowUps(t *testing.T) {
	cases := map[enums.PaymentMethod]string{
		enums.PaymentMethodMpesa: mpesaFollowUp,
		enums.PaymentMethodCOD:   codFollowUp,
	}
	for method, msg := range cases {
		h := newHarness(t, nil)
		h.toPayment(t, PaymentForm{Method: method, AgreeToTerms: true})
		view, err := h.svc.Submit(context.Background(), "s1")
		require.NoError(t, err)
		assert.Equal(t, msg, view.Receipt.FollowUp.Message)
		assert.Empty(t, view.Receipt.FollowUp.WhatsAppURL)
	}
}

func TestSubmitWithoutTermsNeverConfirms(t *testing.T) {
	h := newHarness(t, nil)
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: false})

	_, err := h.svc.Submit(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Zero(t, h.submitter.calls)

	view, err := h.svc.State(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStagePayment, view.Stage)
	assert.Nil(t, view.Receipt)
}

func TestSubmitEmptyCart(t *testing.T) {
	h := newHarness(t, nil)
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: true})
	h.cart.items = nil

	_, err := h.svc.Submit(context.Background(), "s1")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSubmitRetriesTransientFailuresWithStableKey(t *testing.T) {
	attempts := 0
	h := newHarness(t, func(ctx context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error) {
		attempts++
		if attempts < 3 {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "bad gateway")
		}
		return &storefrontapi.OrderAck{ID: "remote-3"}, nil
	})
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: true})

	view, err := h.svc.Submit(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStageConfirmation, view.Stage)
	require.Len(t, h.submitter.keys, 3)
	assert.Equal(t, h.submitter.keys[0], h.submitter.keys[1])
	assert.Equal(t, h.submitter.keys[0], h.submitter.keys[2])
}

func TestSubmitFailureStaysInPayment(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bad gateway")
	})
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: true})

	_, err := h.svc.Submit(context.Background(), "s1")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "Failed to submit order. Please try again.", typed.Message())
	assert.True(t, pkgerrors.IsRetryable(err))
	assert.Equal(t, 3, h.submitter.calls)
	assert.False(t, h.cart.cleared)

	view, err := h.svc.State(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStagePayment, view.Stage)
	assert.False(t, view.Submitting)

	_, _ = h.svc.Submit(context.Background(), "s1")
	assert.Equal(t, h.submitter.keys[0], h.submitter.keys[len(h.submitter.keys)-1])
}

func TestSubmitDoesNotRetryPermanentFailures(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid phone")
	})
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: true})

	_, err := h.svc.Submit(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, 1, h.submitter.calls)
}

func TestSubmitAttemptTimeoutIsRetried(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: true})

	_, err := h.svc.Submit(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, 3, h.submitter.calls)
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestSubmitCallerCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := newHarness(t, func(c context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error) {
		cancel()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, c.Err(), "cancelled")
	})
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: true})

	_, err := h.svc.Submit(ctx, "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, h.submitter.calls)

	view, err := h.svc.State(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStagePayment, view.Stage)
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	h := newHarness(t, func(ctx context.Context, req storefrontapi.OrderRequest, key string) (*storefrontapi.OrderAck, error) {
		close(entered)
		<-unblock
		return &storefrontapi.OrderAck{ID: "remote-1"}, nil
	})
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: true})

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Submit(context.Background(), "s1")
		done <- err
	}()
	<-entered

	_, err := h.svc.Submit(context.Background(), "s1")
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	close(unblock)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.submitter.calls)
}

func TestSubmitRejectedWhenLockHeldElsewhere(t *testing.T) {
	h := newHarness(t, nil)
	h.locker.refuse = true
	h.toPayment(t, PaymentForm{Method: enums.PaymentMethodMpesa, AgreeToTerms: true})

	_, err := h.svc.Submit(context.Background(), "s1")
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	assert.Zero(t, h.submitter.calls)

	view, err := h.svc.State(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, view.Submitting)
}
