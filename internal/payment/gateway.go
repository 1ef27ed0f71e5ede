// Package payment integrates the online payment gateway: intent creation and
// verification of the signature the gateway hands back to the browser.
package payment

import "context"

// Gateway creates payment intents with the online payment provider.
type Gateway interface {
	// CreateOrder registers an intent for amount (in minor units) and returns the gateway order ID.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)

	// KeyID is the public key the client uses to open checkout.
	KeyID() string
}
