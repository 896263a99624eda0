package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/event"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository"
	apperrors "github.com/Djamauk/himalayanpinksalt.online/pkg/errors"
)

// DefaultSessionTTL bounds how long an abandoned checkout stays resumable.
const DefaultSessionTTL = 30 * time.Minute

// defaultShippingOptions is the rate catalog offered when the caller does
// not supply one.
var defaultShippingOptions = []domain.ShippingOption{
	{ID: "standard", Label: "Standard (3-5 days)", Price: 500},
	{ID: "express", Label: "Express (1-2 days)", Price: 1500},
}

// CheckoutService drives the checkout wizard. Every command returns a
// structured view of the session so any client can render it.
type CheckoutService struct {
	sessions    repository.SessionRepository
	addressRepo repository.AddressRepository
	account     *AccountService
	producer    *event.Producer
	logger      *slog.Logger
	ttl         time.Duration
	now         func() time.Time
}

func NewCheckoutService(
	sessions repository.SessionRepository,
	addressRepo repository.AddressRepository,
	account *AccountService,
	producer *event.Producer,
	logger *slog.Logger,
	ttl time.Duration,
) *CheckoutService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &CheckoutService{
		sessions:    sessions,
		addressRepo: addressRepo,
		account:     account,
		producer:    producer,
		logger:      logger,
		ttl:         ttl,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// StartCheckoutInput holds the cart contents entering the wizard.
type StartCheckoutInput struct {
	Items           []domain.LineItem
	ShippingOptions []domain.ShippingOption
}

// DraftInput is a partial set of form field values; present keys overwrite
// the stored draft, absent keys keep their value.
type DraftInput map[string]string

// SubmitInput holds the submit-time choices.
type SubmitInput struct {
	SaveCard bool
}

// PricingView is the order summary in both cents and display strings.
// Zero-cost shipping renders as "Free".
type PricingView struct {
	Subtotal     int64  `json:"subtotal"`
	Shipping     int64  `json:"shipping"`
	Tax          int64  `json:"tax"`
	Discount     int64  `json:"discount"`
	Total        int64  `json:"total"`
	SubtotalText string `json:"subtotal_text"`
	ShippingText string `json:"shipping_text"`
	TaxText      string `json:"tax_text"`
	DiscountText string `json:"discount_text"`
	TotalText    string `json:"total_text"`
}

// SessionView is the render model for one wizard state.
type SessionView struct {
	ID              string                  `json:"id"`
	Step            int                     `json:"step"`
	Steps           []domain.StepState      `json:"steps"`
	Draft           map[string]string       `json:"draft"`
	Items           []domain.LineItem       `json:"items"`
	ShippingOptions []domain.ShippingOption `json:"shipping_options"`
	ShippingID      string                  `json:"shipping_id"`
	Coupon          string                  `json:"coupon"`
	CouponApplied   bool                    `json:"coupon_applied"`
	PaymentKind     string                  `json:"payment_kind"`
	Errors          domain.FieldErrors      `json:"errors"`
	Pricing         PricingView             `json:"pricing"`
}

// SubmitResult reports the outcome of a submission attempt. When
// validation fails the wizard lands on the first failing step with every
// field message populated and nothing is persisted.
type SubmitResult struct {
	OrderPlaced   bool               `json:"order_placed"`
	OrderID       string             `json:"order_id,omitempty"`
	SavedMethodID string             `json:"saved_method_id,omitempty"`
	Step          int                `json:"step"`
	Errors        domain.FieldErrors `json:"errors,omitempty"`
	Pricing       PricingView        `json:"pricing"`
}

// StartCheckout opens a session for the cart and prefills the delivery
// fields from the user's default saved address.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID string, input StartCheckoutInput) (*SessionView, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("cannot start checkout with an empty cart")
	}
	options := input.ShippingOptions
	if len(options) == 0 {
		options = defaultShippingOptions
	}

	sess := domain.NewCheckoutSession(uuid.New().String(), userID, input.Items, options, s.now(), s.ttl)

	addrs, err := s.addressRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load addresses for prefill: %w", err)
	}
	if addr := domain.DefaultAddress(addrs); addr != nil {
		sess.Draft[domain.FieldAddress1] = addr.Line1
		sess.Draft[domain.FieldAddress2] = addr.Line2
		sess.Draft[domain.FieldCity] = addr.City
		sess.Draft[domain.FieldState] = addr.State
		sess.Draft[domain.FieldZip] = addr.PostalCode
		sess.Draft[domain.FieldCountry] = addr.Country
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "checkout started",
		slog.String("session_id", sess.ID),
		slog.String("user_id", userID),
		slog.Int("items", len(input.Items)),
	)
	return s.view(sess), nil
}

// GetSession returns the current wizard state.
func (s *CheckoutService) GetSession(ctx context.Context, id string) (*SessionView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// UpdateDraft records field values without validating them; validation
// runs when the user tries to advance or submit.
func (s *CheckoutService) UpdateDraft(ctx context.Context, id string, input DraftInput) (*SessionView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for field, value := range input {
		sess.Draft[field] = value
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.view(sess), nil
}

// Next tries to advance the wizard to target. The step being left is
// validated with every rule so all messages surface at once.
func (s *CheckoutService) Next(ctx context.Context, id string, target int) (*SessionView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.Next(target, s.now())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.view(sess), nil
}

// Prev moves the wizard back without validating anything.
func (s *CheckoutService) Prev(ctx context.Context, id string, target int) (*SessionView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.Prev(target)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.view(sess), nil
}

// SelectShipping changes the shipping option and reprices the order.
func (s *CheckoutService) SelectShipping(ctx context.Context, id, optionID string) (*SessionView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	found := false
	for _, opt := range sess.ShippingOptions {
		if opt.ID == optionID {
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.InvalidInput("unknown shipping option")
	}

	sess.ShippingID = optionID
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.view(sess), nil
}

// SelectPaymentKind switches between card and PayPal payment. Non-card
// sessions skip card field validation on the payment step and at submit.
func (s *CheckoutService) SelectPaymentKind(ctx context.Context, id, kind string) (*SessionView, error) {
	if kind != domain.KindCard && kind != domain.KindPayPal {
		return nil, apperrors.InvalidInput("unknown payment kind")
	}

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.PaymentKind = kind
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.view(sess), nil
}

// ApplyCoupon records the code and reprices; the view's CouponApplied flag
// tells the client whether the code was recognized.
func (s *CheckoutService) ApplyCoupon(ctx context.Context, id, code string) (*SessionView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.ApplyCoupon(code)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.view(sess), nil
}

// Quote returns the current order summary.
func (s *CheckoutService) Quote(ctx context.Context, id string) (*PricingView, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	pv := pricingView(sess.Quote())
	return &pv, nil
}

// Submit attempts to place the order. Every step is revalidated, with
// card fields included only for card payments; a failure forces the
// wizard onto the first failing step, returns the field messages, and
// persists nothing.
func (s *CheckoutService) Submit(ctx context.Context, id string, input SubmitInput) (*SubmitResult, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	failedStep := 0
	for step := domain.StepContact; step <= domain.StepCount; step++ {
		if step == domain.StepPayment && sess.PaymentKind != domain.KindCard {
			continue
		}
		if !sess.ValidateStep(step, s.now()) && failedStep == 0 {
			failedStep = step
		}
	}
	if failedStep != 0 {
		sess.Step = failedStep
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		return &SubmitResult{
			OrderPlaced: false,
			Step:        sess.Step,
			Errors:      sess.Errors,
			Pricing:     pricingView(sess.Quote()),
		}, nil
	}

	var savedMethodID string
	if input.SaveCard && sess.PaymentKind == domain.KindCard {
		token := domain.NewCardToken(sess.Draft[domain.FieldCardNumber], sess.Draft[domain.FieldExpiry])
		saved, err := s.account.AttachPaymentMethod(ctx, sess.UserID, token)
		if err != nil {
			return nil, fmt.Errorf("save card during checkout: %w", err)
		}
		savedMethodID = saved.ID
	}

	quote := sess.Quote()
	orderID := uuid.New().String()

	coupon := ""
	if sess.CouponApplied {
		coupon = sess.Coupon
	}
	var shippingLabel string
	if opt := sess.SelectedShipping(); opt != nil {
		shippingLabel = opt.Label
	}

	// Publish event (non-blocking on failure).
	if err := s.producer.PublishOrderPlaced(ctx, event.OrderPlacedData{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		Items:           sess.Items,
		Subtotal:        quote.Subtotal,
		Shipping:        quote.Shipping,
		Tax:             quote.Tax,
		Discount:        quote.Discount,
		Total:           quote.Total,
		Coupon:          coupon,
		SavedMethodID:   savedMethodID,
		PaymentKind:     sess.PaymentKind,
		ShippingOption:  shippingLabel,
		DeliveryCity:    sess.Draft[domain.FieldCity],
		DeliveryCountry: sess.Draft[domain.FieldCountry],
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order_placed event",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	// The session, and with it every raw card field, is discarded.
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete completed session",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("session_id", sess.ID),
		slog.String("user_id", sess.UserID),
		slog.String("order_id", orderID),
		slog.Int64("total", quote.Total),
	)

	return &SubmitResult{
		OrderPlaced:   true,
		OrderID:       orderID,
		SavedMethodID: savedMethodID,
		Step:          sess.Step,
		Pricing:       pricingView(quote),
	}, nil
}

func (s *CheckoutService) view(sess *domain.CheckoutSession) *SessionView {
	return &SessionView{
		ID:              sess.ID,
		Step:            sess.Step,
		Steps:           sess.StepStates(),
		Draft:           sess.Draft,
		Items:           sess.Items,
		ShippingOptions: sess.ShippingOptions,
		ShippingID:      sess.ShippingID,
		Coupon:          sess.Coupon,
		CouponApplied:   sess.CouponApplied,
		PaymentKind:     sess.PaymentKind,
		Errors:          sess.Errors,
		Pricing:         pricingView(sess.Quote()),
	}
}

func pricingView(q domain.Quote) PricingView {
	shippingText := domain.FormatCents(q.Shipping)
	if q.Shipping == 0 {
		shippingText = "Free"
	}
	return PricingView{
		Subtotal:     q.Subtotal,
		Shipping:     q.Shipping,
		Tax:          q.Tax,
		Discount:     q.Discount,
		Total:        q.Total,
		SubtotalText: domain.FormatCents(q.Subtotal),
		ShippingText: shippingText,
		TaxText:      domain.FormatCents(q.Tax),
		DiscountText: domain.FormatCents(q.Discount),
		TotalText:    domain.FormatCents(q.Total),
	}
}
