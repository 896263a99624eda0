// Package kv implements the account record repositories over the opaque
// key-value store. Each collection lives under one key per user as a single
// JSON document and is rewritten whole on every mutation.
package kv

import "fmt"

const (
	keyAddresses      = "addresses"
	keyPaymentMethods = "paymentMethods"
	keyProfile        = "profile"
	keyPreferences    = "preferences"
)

func accountKey(userID, name string) string {
	return fmt.Sprintf("acct:%s:%s", userID, name)
}
