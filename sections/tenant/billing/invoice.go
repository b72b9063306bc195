package billing

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"gymstack-backend/common"
	"gymstack-backend/sections/models"
)

// NewInvoiceNumber builds an invoice number from the gym id prefix and the
// current millisecond timestamp: INV-<first 8 of gym id>-<ms>.
func NewInvoiceNumber(gymID string, at time.Time) string {
	prefix := gymID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("INV-%s-%d", prefix, at.UnixMilli())
}

// SplitTax applies the flat GST rate to a gross amount and returns the base,
// the tax and the total, each rounded to two decimals.
func SplitTax(amount float64) (base, tax, total float64) {
	tax = round2(amount * common.INVOICE_TAX_RATE)
	total = round2(amount + tax)
	return round2(amount), tax, total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Invoice {{.Invoice.InvoiceNumber}}</title></head>
<body style="font-family: sans-serif; max-width: 640px; margin: 0 auto;">
  <h1>{{.Gym.Name}}</h1>
  <p>{{.Gym.Address}}</p>
  <hr>
  <h2>Invoice {{.Invoice.InvoiceNumber}}</h2>
  <p>Date: {{.Date}}</p>
  <p>Billed to: {{.Member.FullName}}{{if .Member.Email}} ({{.Member.Email}}){{end}}</p>
  {{if .PlanName}}<p>Plan: {{.PlanName}}</p>{{end}}
  <table width="100%" cellpadding="6" style="border-collapse: collapse;">
    <tr><td>Amount</td><td align="right">{{printf "%.2f" .Invoice.Amount}} INR</td></tr>
    <tr><td>GST (18%)</td><td align="right">{{printf "%.2f" .Invoice.Tax}} INR</td></tr>
    <tr style="font-weight: bold; border-top: 1px solid #000;">
      <td>Total</td><td align="right">{{printf "%.2f" .Invoice.Total}} INR</td>
    </tr>
  </table>
  <p>Status: {{.Invoice.Status}}</p>
</body>
</html>`))

type invoiceTemplateData struct {
	Gym      *models.Gym
	Member   *models.Member
	Invoice  *models.Invoice
	PlanName string
	Date     string
}

// RenderInvoiceHTML renders the printable invoice document.
func RenderInvoiceHTML(gym *models.Gym, member *models.Member, invoice *models.Invoice, planName string) (string, error) {
	var buf bytes.Buffer
	err := invoiceTemplate.Execute(&buf, invoiceTemplateData{
		Gym:      gym,
		Member:   member,
		Invoice:  invoice,
		PlanName: planName,
		Date:     invoice.CreatedAt.Format("2 Jan 2006"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.String(), nil
}
