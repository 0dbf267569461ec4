package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
)

const alertSubjectPrefix = "Price Drop Alert: "

var alertTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="font-family: Arial, sans-serif; margin: 0; padding: 0;">
  <table width="100%" style="max-width: 600px; margin: 20px auto; background-color: #ffffff; border-radius: 12px; border: 1px solid #e2e8f0;">
    <tr>
      <td style="background-color: #1e3a8a; padding: 30px 15px; text-align: center;">
        <h1 style="margin: 0; color: #ffffff; font-size: 28px;">Price Drop Alert!</h1>
      </td>
    </tr>
    <tr>
      <td style="padding: 30px 20px;">
        <h2 style="font-size: 24px; color: #1a202c; text-align: center;">{{.ProductName}}</h2>
        <div style="background-color: #f7fafc; border: 2px solid #e2e8f0; border-radius: 12px; padding: 24px; text-align: center;">
          <span style="background-color: #fef2f2; color: #dc2626; font-size: 24px; font-weight: 700; padding: 8px 16px; border-radius: 8px; display: inline-block;">-{{.DropPct}}% Off!</span>
          <span style="display: block; color: #64748b; text-decoration: line-through; font-size: 18px; margin: 16px 0 8px;">{{.OldPrice}}</span>
          <span style="display: block; color: #0f172a; font-size: 32px; font-weight: 800;">{{.NewPrice}}</span>
          <a href="{{.URL}}" style="display: inline-block; background-color: #2563eb; color: #ffffff; text-decoration: none; padding: 14px 32px; border-radius: 8px; font-size: 16px; font-weight: 600; margin-top: 20px;">View Deal</a>
        </div>
      </td>
    </tr>
    <tr>
      <td style="padding: 20px; background-color: #f8fafc; text-align: center; font-size: 14px; color: #718096;">
        <p style="margin: 0;">This is an automated price alert. Prices and availability are subject to change.</p>
      </td>
    </tr>
  </table>
</body>
</html>`))

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends the alert as an HTML email.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Notify(_ context.Context, alert PriceAlert) error {
	msg, err := buildEmail(n.cfg.From, alert)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{alert.Recipient}, msg); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

func buildEmail(from string, alert PriceAlert) ([]byte, error) {
	var body bytes.Buffer
	err := alertTemplate.Execute(&body, struct {
		ProductName string
		DropPct     string
		OldPrice    string
		NewPrice    string
		URL         string
	}{
		ProductName: alert.ProductName,
		DropPct:     alert.DropPercentage.StringFixed(1),
		OldPrice:    formatPrice(alert.OldPrice.StringFixed(2), alert.Currency),
		NewPrice:    formatPrice(alert.NewPrice.StringFixed(2), alert.Currency),
		URL:         alert.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("render alert email: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", alert.Recipient)
	fmt.Fprintf(&msg, "Subject: %s%s\r\n", alertSubjectPrefix, alert.ProductName)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func formatPrice(amount, currency string) string {
	switch currency {
	case "USD":
		return "$" + amount
	case "EUR":
		return "€" + amount
	case "GBP":
		return "£" + amount
	case "INR":
		return "₹" + amount
	default:
		return currency + " " + amount
	}
}
