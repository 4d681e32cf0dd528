package report

import (
	"bytes"
	"context"
	"html/template"

	"github.com/velora-salon/velora-salon/internal/billing"
)

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.Invoice.Number}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
.total { font-weight: bold; }
.reversed { color: #b00; font-weight: bold; }
</style>
</head>
<body>
<h1>Invoice {{.Invoice.Number}}</h1>
{{if .Invoice.ReversedAt}}<p class="reversed">REVERSED</p>{{end}}
<p>Status: {{.Invoice.Status}}</p>
<p>Issued: {{.Invoice.CreatedAt.Format "2006-01-02"}}</p>
<table>
<tr><th>Total</th><td>{{printf "%.2f" .Invoice.TotalAmount}}</td></tr>
<tr><th>Paid</th><td>{{printf "%.2f" .Invoice.AmountPaid}}</td></tr>
<tr class="total"><th>Open</th><td>{{printf "%.2f" .Invoice.Debt}}</td></tr>
</table>
{{if .Payments}}
<h2>Payments</h2>
<table>
<tr><th>Date</th><th>Method</th><th>Amount</th></tr>
{{range .Payments}}
<tr><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td><td>{{.Method}}</td><td>{{printf "%.2f" .Amount}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>`))

// Renderer turns invoices into printable PDFs. Implements the optional PDF
// port of the billing handler.
type Renderer struct {
	client *Client
}

func NewRenderer(client *Client) *Renderer {
	return &Renderer{client: client}
}

// RenderInvoice renders the invoice and its payment history as a PDF.
func (r *Renderer) RenderInvoice(ctx context.Context, inv billing.Invoice, payments []billing.Payment) ([]byte, error) {
	var buf bytes.Buffer
	err := invoiceTemplate.Execute(&buf, struct {
		Invoice  billing.Invoice
		Payments []billing.Payment
	}{Invoice: inv, Payments: payments})
	if err != nil {
		return nil, err
	}
	return r.client.RenderHTML(ctx, buf.String())
}
