package payments

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// Client wraps the Stripe API for the two flows the shop uses: a raw
// payment intent for in-page card entry, and a hosted checkout session.
// Stripe amounts are minor units, so prices are converted on the way in.
type Client struct {
	api       *client.API
	clientURL string
}

func New(secretKey, clientURL string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, clientURL: clientURL}
}

type Intent struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

func minorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

func (c *Client) CreateIntent(amount float64, currency string) (*Intent, error) {
	if currency == "" {
		currency = "usd"
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(amount)),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("integration_check", "accept_a_payment")
	params.SetIdempotencyKey(uuid.NewString())

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}
	return &Intent{ClientSecret: pi.ClientSecret, PaymentIntentID: pi.ID}, nil
}

func (c *Client) CreateCheckoutSession(amount float64, currency, customerEmail string) (string, error) {
	if currency == "" {
		currency = "inr"
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Marketplace Order"),
						Description: stripe.String("Secure payment via credit/debit cards"),
					},
					UnitAmount: stripe.Int64(minorUnits(amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:            stripe.String(customerEmail),
		BillingAddressCollection: stripe.String("required"),
		SuccessURL:               stripe.String(c.clientURL + "/order-confirmation/stripe-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:                stripe.String(c.clientURL + "/checkout"),
	}
	params.SetIdempotencyKey(uuid.NewString())

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe checkout session: %w", err)
	}
	return sess.ID, nil
}

type Method struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Methods lists the payment options the storefront offers.
func Methods() []Method {
	return []Method{
		{
			ID:          "COD",
			Name:        "Cash on Delivery",
			Description: "Pay when you receive your order",
		},
		{
			ID:          "Stripe",
			Name:        "Online Payment (Credit/Debit Cards)",
			Description: "Pay securely with Visa, Mastercard, American Express and RuPay cards",
		},
	}
}
