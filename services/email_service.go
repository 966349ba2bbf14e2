package services

import (
	"context"
	"fmt"
	"net/smtp"
	"procurement/models"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const anomalyAlertSubject = "[{{severity}}] Quote {{quote_number}} is {{deviation}} above expected price"

const anomalyAlertBody = `<h2>Price anomaly on quote {{quote_number}}</h2>
<p>Item <b>{{item_name}}</b> was quoted at {{actual_price}} against an expected {{expected_price}} ({{deviation}} above).</p>
<table>
<tr><th>Severity</th><td>{{severity}}</td></tr>
<tr><th>Vendor</th><td>{{vendor_id}}</td></tr>
<tr><th>Landed cost</th><td>{{landed_cost}}</td></tr>
</table>
<p>{{explanation}}</p>
<p>Acknowledge it from the anomalies page once reviewed.</p>`

const anomalyDigestSubject = "{{count}} unacknowledged price anomalies for company {{company_id}}"

var templateVariable = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			// Add line breaks for block elements
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "tr", "table":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)

	lines := strings.Split(text.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" && (len(kept) == 0 || kept[len(kept)-1] == "") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends anomaly alerts and digests over SMTP.
type EmailService struct {
	cfg     SMTPConfig
	send    sendMailFunc
	printer *message.Printer
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg SMTPConfig) *EmailService {
	return &EmailService{
		cfg:     cfg,
		send:    smtp.SendMail,
		printer: message.NewPrinter(language.English),
	}
}

// NotifyAnomaly mails a single-anomaly alert to the configured recipients.
func (es *EmailService) NotifyAnomaly(ctx context.Context, alert AnomalyAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	explanation := "No automated explanation is available."
	if alert.Anomaly.AIExplanation != nil {
		explanation = *alert.Anomaly.AIExplanation
	}
	itemName := alert.Item.Name
	if itemName == "" {
		itemName = alert.Anomaly.ItemID
	}
	vars := map[string]string{
		"quote_number":   alert.Quote.QuoteNumber,
		"item_name":      itemName,
		"vendor_id":      alert.Quote.VendorID,
		"severity":       string(alert.Anomaly.Severity),
		"actual_price":   es.money(alert.Anomaly.ActualPrice.InexactFloat64()),
		"expected_price": es.money(alert.Anomaly.ExpectedPrice.InexactFloat64()),
		"landed_cost":    es.money(alert.Quote.LandedCost.InexactFloat64()),
		"deviation":      es.percent(alert.Anomaly.Deviation.InexactFloat64()),
		"explanation":    explanation,
	}

	subject, err := es.processTemplate(anomalyAlertSubject, vars, false)
	if err != nil {
		return fmt.Errorf("failed to process subject template: %v", err)
	}
	body, err := es.processTemplate(anomalyAlertBody, vars, true)
	if err != nil {
		return fmt.Errorf("failed to process body template: %v", err)
	}
	return es.sendEmail(es.cfg.To, subject, convertHTMLToText(body))
}

// SendDigest mails one summary of open anomalies for a company.
func (es *EmailService) SendDigest(ctx context.Context, companyID string, anomalies []models.Anomaly) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(anomalies) == 0 {
		return nil
	}
	subject, err := es.processTemplate(anomalyDigestSubject, map[string]string{
		"count":      es.printer.Sprintf("%d", len(anomalies)),
		"company_id": companyID,
	}, false)
	if err != nil {
		return fmt.Errorf("failed to process subject template: %v", err)
	}

	var b strings.Builder
	b.WriteString("<h2>Open price anomalies</h2><table>")
	b.WriteString("<tr><th>Severity</th><th>Item</th><th>Quote</th><th>Expected</th><th>Quoted</th><th>Deviation</th></tr>")
	for _, a := range anomalies {
		b.WriteString("<tr>")
		for _, cell := range []string{
			string(a.Severity),
			a.ItemID,
			a.QuoteID,
			es.money(a.ExpectedPrice.InexactFloat64()),
			es.money(a.ActualPrice.InexactFloat64()),
			es.percent(a.Deviation.InexactFloat64()),
		} {
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")

	return es.sendEmail(es.cfg.To, subject, convertHTMLToText(b.String()))
}

// processTemplate replaces {{name}} placeholders. Values are HTML-escaped when the
// template is HTML. Unknown placeholders are an error.
func (es *EmailService) processTemplate(templateStr string, vars map[string]string, escape bool) (string, error) {
	if strings.Count(templateStr, "{{") != strings.Count(templateStr, "}}") {
		return "", fmt.Errorf("unmatched braces in template")
	}
	var missing string
	result := templateVariable.ReplaceAllStringFunc(templateStr, func(m string) string {
		key := strings.TrimSpace(m[2 : len(m)-2])
		value, ok := vars[key]
		if !ok {
			missing = key
			return m
		}
		if escape {
			return html.EscapeString(value)
		}
		return value
	})
	if missing != "" {
		return "", fmt.Errorf("invalid variable: %s", missing)
	}
	return result, nil
}

// sendEmail sends a plain-text email using SMTP
func (es *EmailService) sendEmail(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no alert recipients configured")
	}
	var auth smtp.Auth
	if es.cfg.Username != "" {
		auth = smtp.PlainAuth("", es.cfg.Username, es.cfg.Password, es.cfg.Host)
	}

	headers := []string{
		"From: " + es.cfg.From,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return es.send(es.cfg.Host+":"+es.cfg.Port, auth, es.cfg.From, to, msg)
}

func (es *EmailService) money(v float64) string {
	return es.printer.Sprintf("%.2f", v)
}

func (es *EmailService) percent(fraction float64) string {
	return es.printer.Sprintf("%.1f%%", fraction*100)
}
