package main

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/invoiceflow/internal/identity"
	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"gitlab.com/yelinaung/invoiceflow/internal/report"
	"gitlab.com/yelinaung/invoiceflow/internal/repository/memstore"
	"gitlab.com/yelinaung/invoiceflow/internal/service"
)

const demoAccount = int64(1)

// runDemo walks one account from client to paid invoice against the
// in-process store and prints the resulting reports.
func runDemo(ctx context.Context, w io.Writer) error {
	logger.UseHashSalt("invoiceflow-demo-salt-not-for-production")
	svc := service.New(memstore.New(), service.Options{}, nil)
	ctx = identity.WithAccount(ctx, demoAccount)

	client, err := svc.Clients.Create(ctx, service.ClientInput{
		Name:          "Acme Studio",
		Email:         "billing@acme.example",
		ContactPerson: "Sam Doe",
	})
	if err != nil {
		return err
	}

	product, err := svc.Products.Create(ctx, service.ProductInput{
		Name:      "Design day",
		UnitPrice: decimal.NewFromInt(100),
		Unit:      "day",
		IsService: true,
	})
	if err != nil {
		return err
	}
	design, err := svc.Products.ApplyProduct(ctx, product.ID, models.LineItem{Quantity: decimal.NewFromInt(2)})
	if err != nil {
		return err
	}
	hosting := models.LineItem{
		Description: "Hosting",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(50),
		TaxRate:     decimal.NewFromInt(10),
	}

	quote, err := svc.Quotes.Create(ctx, service.QuoteInput{
		ClientID:    client.ID,
		Items:       []models.LineItem{design, hosting},
		Discount:    decimal.NewFromInt(10),
		Description: "Website refresh",
	})
	if err != nil {
		return err
	}
	for _, status := range []models.QuoteStatus{models.QuoteStatusSent, models.QuoteStatusAccepted} {
		if _, err := svc.Quotes.Transition(ctx, quote.Quote.ID, status); err != nil {
			return err
		}
	}

	invoice, err := svc.Conversion.Convert(ctx, quote.Quote.ID, service.ConvertOptions{})
	if err != nil {
		return err
	}
	for _, status := range []models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusPaid} {
		if _, err := svc.Invoices.Transition(ctx, invoice.Invoice.ID, status); err != nil {
			return err
		}
	}

	if _, err := svc.Expenses.Record(ctx, service.ExpenseInput{
		Title:    "Train to client workshop",
		Amount:   decimal.RequireFromString("42.80"),
		Category: models.CategoryTransport,
		Billable: true,
		ClientID: &client.ID,
	}); err != nil {
		return err
	}

	fmt.Fprintf(w, "Quote %s total %s converted to invoice %s\n\n",
		quote.Quote.Number, quote.Totals.Total.StringFixed(2), invoice.Invoice.Number)

	dashboard, err := svc.Reports.Dashboard(ctx, report.PeriodMonth)
	if err != nil {
		return err
	}
	financial, err := svc.Reports.Financial(ctx, report.PeriodMonth, dashboard.Period.Start)
	if err != nil {
		return err
	}
	cashflow, err := svc.Reports.Cashflow(ctx, 3)
	if err != nil {
		return err
	}
	top, err := svc.Reports.TopClients(ctx, report.DefaultTopLimit)
	if err != nil {
		return err
	}

	return printJSON(w, map[string]any{
		"dashboard":   dashboard,
		"financial":   financial,
		"cashflow":    cashflow,
		"top_clients": top,
	})
}
