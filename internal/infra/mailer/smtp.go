package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"studio-app/internal/domain/booking"
	"studio-app/internal/domain/shop"
	"studio-app/internal/domain/users"

	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
	AppURL   string
}

// Mailer sends plain-text customer emails over SMTP.
type Mailer struct {
	cfg  Config
	log  *zap.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

func (m *Mailer) SessionBooked(_ context.Context, u users.User, s booking.Session) error {
	subject := fmt.Sprintf("Your photo session %s is booked", s.SessionNumber)
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for booking with us. Here are your session details:\n\n"+
			"Session: %s\nDate: %s\nTime: %s\nTotal: $%s\nDeposit due: $%s\n\n"+
			"You can review your booking at %s/sessions/%s\n",
		greetingName(u.FirstName),
		s.SessionNumber,
		s.Date().Format("Monday, January 2, 2006"),
		s.SessionTime,
		s.TotalAmount.StringFixed(2),
		s.DepositAmount.StringFixed(2),
		strings.TrimRight(m.cfg.AppURL, "/"), s.ID,
	)
	return m.deliver(u.Email, subject, body)
}

func (m *Mailer) GalleryReady(_ context.Context, to, customerName, galleryName, accessURL, accessCode string) error {
	subject := "Your photos are ready"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour gallery \"%s\" is ready to view.\n\nOpen: %s\nAccess code: %s\n",
		greetingName(customerName), galleryName, accessURL, accessCode,
	)
	return m.deliver(to, subject, body)
}

func (m *Mailer) OrderPlaced(_ context.Context, to string, o shop.Order) error {
	subject := fmt.Sprintf("Order %s received", o.OrderNumber)
	var lines strings.Builder
	for _, item := range o.Items {
		name := item.ProductVariantID
		if item.Variant != nil {
			name = item.Variant.Name
		}
		fmt.Fprintf(&lines, "  %d x %s  $%s\n", item.Quantity, name, item.TotalPrice.StringFixed(2))
	}
	body := fmt.Sprintf(
		"Thanks for your order!\n\nOrder: %s\n%s\nSubtotal: $%s\nTax: $%s\nShipping: $%s\nTotal: $%s\n",
		o.OrderNumber, lines.String(),
		o.Subtotal.StringFixed(2), o.Tax.StringFixed(2), o.Shipping.StringFixed(2), o.Total.StringFixed(2),
	)
	return m.deliver(to, subject, body)
}

func (m *Mailer) deliver(to, subject, body string) error {
	if !m.Enabled() {
		m.log.Debug("smtp not configured, email skipped", zap.String("to", to), zap.String("subject", subject))
		return nil
	}
	if to == "" {
		return errors.New("missing recipient")
	}

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{to}, message(m.cfg.From, to, subject, body))
	if err != nil {
		m.log.Error("smtp send failed", zap.String("to", to), zap.Error(err))
		return err
	}
	m.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func message(from, to, subject, body string) []byte {
	return []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
