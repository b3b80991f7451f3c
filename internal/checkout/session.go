package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snaapconnections/storefront/pkg/enums"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

// Session is one shopper's checkout. All methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	id         string
	stage      enums.CheckoutStage
	draft      Draft
	receipt    *Receipt
	submitting bool
	touched    time.Time

	// submission identity, kept across retries of an unchanged order
	attemptHash string
	attemptKey  string
	reference   string
}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	SessionID  string              `json:"sessionId"`
	Stage      enums.CheckoutStage `json:"stage"`
	Draft      Draft               `json:"draft"`
	Receipt    *Receipt            `json:"receipt,omitempty"`
	Submitting bool                `json:"submitting"`
}

func NewSession(id string, draft Draft, now time.Time) *Session {
	return &Session{
		id:      id,
		stage:   enums.CheckoutStageDelivery,
		draft:   draft,
		touched: now,
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:  s.id,
		Stage:      s.stage,
		Draft:      s.draft,
		Submitting: s.submitting,
	}
	if s.receipt != nil {
		r := *s.receipt
		snap.Receipt = &r
	}
	return snap
}

func (s *Session) Stage() enums.CheckoutStage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func stateConflict(msg string, from enums.CheckoutStage) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).WithDetails(map[string]any{"stage": from})
}

func (s *Session) editable() error {
	if s.stage == enums.CheckoutStageConfirmation {
		return stateConflict("order already confirmed", s.stage)
	}
	if s.submitting {
		return pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")
	}
	return nil
}

// UpdateDelivery replaces the delivery form.
func (s *Session) UpdateDelivery(form DeliveryForm, now time.Time) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return s.snapshotLocked(), err
	}
	if form.Method == "" {
		form.Method = s.draft.Delivery.Method
	}
	if !form.Method.IsValid() {
		return s.snapshotLocked(), ValidateDelivery(form)
	}
	s.draft.Delivery = form
	s.touched = now
	return s.snapshotLocked(), nil
}

// UpdatePayment replaces the payment form.
func (s *Session) UpdatePayment(form PaymentForm, now time.Time) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return s.snapshotLocked(), err
	}
	if form.Method == "" {
		form.Method = s.draft.Payment.Method
	}
	if !form.Method.IsValid() {
		return s.snapshotLocked(), ValidatePayment(form, s.draft.Delivery.Method)
	}
	s.draft.Payment = form
	s.touched = now
	return s.snapshotLocked(), nil
}

// Next advances Delivery to Payment when the delivery form is complete.
func (s *Session) Next(now time.Time) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.stage {
	case enums.CheckoutStageDelivery:
		if err := ValidateDelivery(s.draft.Delivery); err != nil {
			return s.snapshotLocked(), err
		}
		s.stage = enums.CheckoutStagePayment
		s.touched = now
		return s.snapshotLocked(), nil
	case enums.CheckoutStagePayment:
		return s.snapshotLocked(), stateConflict("submit the order to leave the payment step", s.stage)
	default:
		return s.snapshotLocked(), stateConflict("order already confirmed", s.stage)
	}
}

// Back returns Payment to Delivery. It is a no-op in Delivery.
func (s *Session) Back(now time.Time) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.stage {
	case enums.CheckoutStagePayment:
		if s.submitting {
			return s.snapshotLocked(), pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")
		}
		s.stage = enums.CheckoutStageDelivery
		s.touched = now
	case enums.CheckoutStageConfirmation:
		return s.snapshotLocked(), stateConflict("order already confirmed", s.stage)
	}
	return s.snapshotLocked(), nil
}

// attempt carries what a submission needs outside the session lock.
type attempt struct {
	draft          Draft
	idempotencyKey string
	reference      string
}

// beginSubmit checks the payment stage and marks the session as submitting.
// fingerprint identifies the order contents; an unchanged order reuses the
// previous idempotency key and reference.
func (s *Session) beginSubmit(fingerprint any, now time.Time) (attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stage {
	case enums.CheckoutStageDelivery:
		return attempt{}, stateConflict("complete delivery details first", s.stage)
	case enums.CheckoutStageConfirmation:
		return attempt{}, stateConflict("order already confirmed", s.stage)
	}
	if s.submitting {
		return attempt{}, pkgerrors.New(pkgerrors.CodeConflict, "order submission in progress")
	}
	if err := ValidateDelivery(s.draft.Delivery); err != nil {
		return attempt{}, err
	}
	if err := ValidatePayment(s.draft.Payment, s.draft.Delivery.Method); err != nil {
		return attempt{}, err
	}

	hash := fingerprintOf(s.draft, fingerprint)
	if hash != s.attemptHash || s.attemptKey == "" {
		s.attemptHash = hash
		s.attemptKey = uuid.NewString()
		s.reference = NewReference()
	}
	s.submitting = true
	s.touched = now
	return attempt{draft: s.draft, idempotencyKey: s.attemptKey, reference: s.reference}, nil
}

// finishSubmit records the outcome. A nil receipt leaves the session in Payment.
func (s *Session) finishSubmit(receipt *Receipt, now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.touched = now
	if receipt != nil {
		s.receipt = receipt
		s.stage = enums.CheckoutStageConfirmation
	}
	return s.snapshotLocked()
}

func fingerprintOf(draft Draft, extra any) string {
	b, err := json.Marshal(struct {
		Draft Draft `json:"draft"`
		Extra any   `json:"extra"`
	}{draft, extra})
	if err != nil {
		return uuid.NewString()
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
