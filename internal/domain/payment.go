package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is a tokenized card on file. It carries only derived and
// masked fields; the full card number, CVC, and cardholder name are never
// stored.
type PaymentMethod struct {
	ID        string    `json:"id"`
	Brand     Brand     `json:"brand"`
	Last4     string    `json:"last4"`
	Display   string    `json:"display"`
	Expiry    string    `json:"exp"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCardToken derives a stored payment method from a raw card number and
// expiry. Only the brand, last four digits, masked display string, and
// expiry survive; the number itself is discarded.
func NewCardToken(number, expiry string) PaymentMethod {
	return PaymentMethod{
		ID:        uuid.New().String(),
		Brand:     BrandFromIIN(number),
		Last4:     Last4(number),
		Display:   MaskCard(number),
		Expiry:    expiry,
		CreatedAt: time.Now().UTC(),
	}
}

// Profile is the single per-user contact record, overwritten wholesale on save.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Preferences is the single per-user notification record.
type Preferences struct {
	News  bool `json:"news"`
	Deals bool `json:"deals"`
	SMS   bool `json:"sms"`
}

// DefaultPreferences returns the record used when nothing is stored yet.
func DefaultPreferences() Preferences {
	return Preferences{News: false, Deals: false, SMS: false}
}
