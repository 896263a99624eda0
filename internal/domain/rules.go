package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Form field names shared by the checkout draft and the validation rules.
const (
	FieldFirstName  = "firstName"
	FieldLastName   = "lastName"
	FieldEmail      = "email"
	FieldAddress1   = "address1"
	FieldAddress2   = "address2"
	FieldCity       = "city"
	FieldState      = "state"
	FieldZip        = "zip"
	FieldCountry    = "country"
	FieldCardNumber = "cardNumber"
	FieldCardName   = "cardName"
	FieldExpiry     = "exp"
	FieldCVC        = "cvc"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps field names to their current error message. A rule that
// passes clears its field's entry; a rule that fails sets it.
type FieldErrors map[string]string

// set records msg for the field on failure and clears it on success,
// returning ok unchanged so rules compose without short-circuiting.
func (e FieldErrors) set(field string, ok bool, msg string) bool {
	if ok {
		delete(e, field)
	} else {
		e[field] = msg
	}
	return ok
}

// Required passes when the trimmed value is non-empty.
func (e FieldErrors) Required(field, value string) bool {
	return e.set(field, strings.TrimSpace(value) != "", "This field is required")
}

// Email passes when the value has the basic local@domain.tld shape.
func (e FieldErrors) Email(field, value string) bool {
	return e.set(field, emailPattern.MatchString(value), "Enter a valid email")
}

// PostalCode requires presence only; no format check is applied.
func (e FieldErrors) PostalCode(field, value string) bool {
	return e.set(field, strings.TrimSpace(value) != "", "Enter a postal code")
}

// CardNumber passes when the value passes the Luhn checksum.
func (e FieldErrors) CardNumber(field, value string) bool {
	return e.set(field, LuhnValid(value), "Invalid card number")
}

// Expiry passes when the value parses as MM/YY with a month in 1..12 whose
// last day is not before the first day of the current month.
func (e FieldErrors) Expiry(field, value string, now time.Time) bool {
	return e.set(field, expiryValid(value, now), "Invalid expiry")
}

// CVC passes when 3 or 4 digits remain after stripping non-digits.
func (e FieldErrors) CVC(field, value string) bool {
	n := len(digitsOnly(value))
	return e.set(field, n == 3 || n == 4, "Invalid CVC")
}

func expiryValid(value string, now time.Time) bool {
	mm, yy, found := strings.Cut(value, "/")
	if !found {
		return false
	}

	month, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(strings.TrimSpace(yy))
	if err != nil || year < 0 || year > 99 {
		return false
	}
	year += 2000

	// Day 0 of the following month normalizes to the last day of the
	// expiry month.
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return !lastDay.Before(monthStart)
}
