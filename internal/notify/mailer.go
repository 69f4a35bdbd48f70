package notify

import (
	"fmt"
	"net/smtp"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends plain-text mail over SMTP. With User/Pass set it
// authenticates (gmail app passwords); without, it talks to an open relay
// such as a local MailHog.
type SMTPMailer struct {
	Host string
	Port string
	From string
	User string
	Pass string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := m.Host + ":" + m.Port

	msg := "From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body

	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}
	return smtp.SendMail(addr, auth, m.From, []string{to}, []byte(msg))
}

func buyerConfirmationBody(buyerName string, order *models.Order) string {
	return fmt.Sprintf(
		"Dear %s,\n\n"+
			"Thank you for your order! Your order has been successfully placed.\n\n"+
			"Order ID: %d\n"+
			"Order date: %s\n"+
			"Total amount: %.2f\n"+
			"Payment method: %s\n\n"+
			"Shipping address:\n%s\n%s, %s %s\n%s\n\n"+
			"We'll send you updates on your order status.\n",
		buyerName,
		order.ID,
		order.CreatedAt.Format("2006-01-02"),
		order.TotalPrice,
		order.PaymentMethod,
		order.ShippingAddress.Address,
		order.ShippingAddress.City,
		order.ShippingAddress.State,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
	)
}

func ownerNotificationBody(ownerName, buyerName, buyerPhone string, order *models.Order, items []models.OrderItem) string {
	lines := ""
	for _, it := range items {
		lines += fmt.Sprintf("  - %s x%d @ %.2f\n", it.Name, it.Quantity, it.Price)
	}
	return fmt.Sprintf(
		"Dear %s,\n\n"+
			"You have received a new order for your product(s).\n\n"+
			"Order ID: %d\n"+
			"Order date: %s\n"+
			"Items:\n%s\n"+
			"Customer: %s\n"+
			"Customer phone: %s\n\n"+
			"Please process this order as soon as possible.\n",
		ownerName,
		order.ID,
		order.CreatedAt.Format("2006-01-02"),
		lines,
		buyerName,
		buyerPhone,
	)
}
