package service

import (
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// QuoteView is a quote as callers see it: the status in effect now and
// totals recomputed from the items, rounded for display.
type QuoteView struct {
	Quote  models.Quote       `json:"quote"`
	Status models.QuoteStatus `json:"status"`
	Totals billing.Totals     `json:"totals"`
}

// InvoiceView is the invoice counterpart of QuoteView.
type InvoiceView struct {
	Invoice models.Invoice       `json:"invoice"`
	Status  models.InvoiceStatus `json:"status"`
	Totals  billing.Totals       `json:"totals"`
}

func quoteView(q models.Quote, now time.Time) (*QuoteView, error) {
	totals, err := billing.Compute(q.Items, q.Discount)
	if err != nil {
		return nil, err
	}
	return &QuoteView{Quote: q, Status: billing.EffectiveQuoteStatus(q, now), Totals: totals.Rounded()}, nil
}

func invoiceView(inv models.Invoice, now time.Time) (*InvoiceView, error) {
	totals, err := billing.Compute(inv.Items, inv.Discount)
	if err != nil {
		return nil, err
	}
	return &InvoiceView{Invoice: inv, Status: billing.EffectiveInvoiceStatus(inv, now), Totals: totals.Rounded()}, nil
}
