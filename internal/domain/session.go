package domain

import "time"

// Checkout steps, in wizard order.
const (
	StepContact  = 1
	StepDelivery = 2
	StepPayment  = 3
	StepCount    = 3
)

// Payment kinds selectable on the payment step. Card fields are validated
// only for KindCard.
const (
	KindCard   = "card"
	KindPayPal = "paypal"
)

var stepLabels = map[int]string{
	StepContact:  "Contact",
	StepDelivery: "Delivery",
	StepPayment:  "Payment",
}

// stepFields lists the draft fields each step's validation covers.
var stepFields = map[int][]string{
	StepContact:  {FieldFirstName, FieldLastName, FieldEmail},
	StepDelivery: {FieldAddress1, FieldCity, FieldState, FieldZip, FieldCountry},
	StepPayment:  {FieldCardNumber, FieldExpiry, FieldCVC, FieldCardName},
}

// CheckoutSession is the server-side state of one checkout wizard run.
// It holds the raw draft values, including card fields, which exist only
// here and are discarded or tokenized on submit.
type CheckoutSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Step  int               `json:"step"`
	Draft map[string]string `json:"draft"`

	Items           []LineItem       `json:"items"`
	ShippingOptions []ShippingOption `json:"shipping_options"`
	ShippingID      string           `json:"shipping_id"`

	Coupon        string `json:"coupon"`
	CouponApplied bool   `json:"coupon_applied"`

	PaymentKind string `json:"payment_kind"`

	Errors FieldErrors `json:"errors"`
}

// NewCheckoutSession returns a session positioned on the first step with an
// empty draft and card payment preselected.
func NewCheckoutSession(id, userID string, items []LineItem, options []ShippingOption, now time.Time, ttl time.Duration) *CheckoutSession {
	s := &CheckoutSession{
		ID:              id,
		UserID:          userID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
		Step:            StepContact,
		Draft:           map[string]string{},
		Items:           items,
		ShippingOptions: options,
		PaymentKind:     KindCard,
		Errors:          FieldErrors{},
	}
	if len(options) > 0 {
		s.ShippingID = options[0].ID
	}
	return s
}

// Expired reports whether the session has passed its TTL.
func (s *CheckoutSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SelectedShipping returns the chosen shipping option, or nil when the id
// matches nothing.
func (s *CheckoutSession) SelectedShipping() *ShippingOption {
	for i := range s.ShippingOptions {
		if s.ShippingOptions[i].ID == s.ShippingID {
			return &s.ShippingOptions[i]
		}
	}
	return nil
}

// ValidateStep runs every rule for the step's field set against the draft,
// so all failing fields report at once. The session's Errors map is updated
// in place; the return value reports whether the step is clean.
func (s *CheckoutSession) ValidateStep(step int, now time.Time) bool {
	ok := true
	for _, field := range stepFields[step] {
		value := s.Draft[field]
		var passed bool
		switch field {
		case FieldEmail:
			passed = s.Errors.Email(field, value)
		case FieldZip:
			passed = s.Errors.PostalCode(field, value)
		case FieldCardNumber:
			passed = s.Errors.CardNumber(field, value)
		case FieldExpiry:
			passed = s.Errors.Expiry(field, value, now)
		case FieldCVC:
			passed = s.Errors.CVC(field, value)
		default:
			passed = s.Errors.Required(field, value)
		}
		ok = ok && passed
	}
	return ok
}

// Next advances to target only when the step being left validates cleanly.
// On failure the step is unchanged and Errors carries every message.
func (s *CheckoutSession) Next(target int, now time.Time) bool {
	if target < 2 || target > StepCount {
		return false
	}
	if !s.ValidateStep(target-1, now) {
		return false
	}
	s.Step = target
	return true
}

// Prev moves back unconditionally; nothing is validated on the way down.
func (s *CheckoutSession) Prev(target int) {
	if target >= 1 && target < s.Step {
		s.Step = target
	}
}

// StepState is the indicator view for one wizard step.
type StepState struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Active   bool   `json:"active"`
	Complete bool   `json:"complete"`
}

// StepStates renders the indicator row: the current step is active and
// every lower step is complete.
func (s *CheckoutSession) StepStates() []StepState {
	states := make([]StepState, 0, StepCount)
	for i := 1; i <= StepCount; i++ {
		states = append(states, StepState{
			Index:    i,
			Label:    stepLabels[i],
			Active:   i == s.Step,
			Complete: i < s.Step,
		})
	}
	return states
}

// ApplyCoupon records the code and reports whether it was recognized.
func (s *CheckoutSession) ApplyCoupon(code string) bool {
	s.Coupon = code
	s.CouponApplied = CouponApplies(code)
	return s.CouponApplied
}

// Quote prices the session's current contents.
func (s *CheckoutSession) Quote() Quote {
	var shipping int64
	if opt := s.SelectedShipping(); opt != nil {
		shipping = opt.Price
	}
	coupon := ""
	if s.CouponApplied {
		coupon = s.Coupon
	}
	return ComputeQuote(s.Items, shipping, coupon)
}
