package notify

import (
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// SMSSender delivers order confirmations over Twilio SMS or WhatsApp.
// The channel is disabled by configuration in the order flow; it is kept
// wired so it can be switched back on without code changes.
type SMSSender struct {
	client      *twilio.RestClient
	from        string
	countryCode string
	Enabled     bool
}

func NewSMSSender(accountSID, authToken, from, countryCode string, enabled bool) *SMSSender {
	return &SMSSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from:        from,
		countryCode: countryCode,
		Enabled:     enabled,
	}
}

// formatRecipient strips non-digits, prefixes the default country code and,
// when the sender is a WhatsApp number, addresses the recipient the same way.
func (s *SMSSender) formatRecipient(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if !strings.HasPrefix(digits, s.countryCode) {
		digits = s.countryCode + digits
	}
	if strings.HasPrefix(s.from, "whatsapp:") {
		return "whatsapp:+" + digits
	}
	return "+" + digits
}

func (s *SMSSender) SendOrderConfirmation(phone, userName string, order *models.Order) error {
	body := fmt.Sprintf(
		"Order confirmation\n\n"+
			"Hi %s, your order has been successfully placed!\n\n"+
			"Order ID: %d\n"+
			"Total amount: %.2f\n"+
			"Payment method: %s\n\n"+
			"We'll keep you updated on your order status.",
		userName, order.ID, order.TotalPrice, order.PaymentMethod,
	)

	params := &openapi.CreateMessageParams{}
	params.SetTo(s.formatRecipient(phone))
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
