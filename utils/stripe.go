package utils

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"

	"glowreach/config"
)

// ConstructStripeEvent securely constructs and verifies a Stripe webhook event
func ConstructStripeEvent(c *fiber.Ctx) (stripe.Event, error) {
	payload := c.Body()

	signature := c.Get("Stripe-Signature")
	if signature == "" {
		LogError("stripe_webhook", nil, map[string]interface{}{
			"reason": "missing Stripe-Signature header",
		})
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Missing Stripe-Signature header")
	}

	// Tolerance absorbs clock drift between Stripe and this host
	event, err := webhook.ConstructEventWithTolerance(
		payload,
		signature,
		config.AppConfig.StripeWebhookSecret,
		5*time.Minute,
	)
	if err != nil {
		LogError("stripe_webhook", err, map[string]interface{}{
			"reason": "signature verification failed",
		})
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Invalid webhook signature")
	}

	LogEvent("stripe_webhook_verified", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	return event, nil
}

// CreatePaymentIntent creates a Stripe payment intent for a credit purchase
func CreatePaymentIntent(amountCents int64, currency, customerID string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	return paymentintent.New(params)
}
