// Package billing holds the pure billing rules: totals arithmetic, document
// numbering and the status lifecycle of quotes, invoices and expenses.
package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// MoneyPlaces is the number of decimal places amounts are rounded to when reported.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// LineTotals is the computed breakdown of a single line item.
type LineTotals struct {
	Gross         decimal.Decimal `json:"gross"`
	DiscountShare decimal.Decimal `json:"discount_share"`
	Taxable       decimal.Decimal `json:"taxable"`
	Tax           decimal.Decimal `json:"tax"`
}

// Totals is the computed amount of a document.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	Lines          []LineTotals    `json:"lines"`
}

// Rounded returns a copy with every amount rounded to MoneyPlaces, half away from zero.
func (t Totals) Rounded() Totals {
	out := Totals{
		Subtotal:       t.Subtotal.Round(MoneyPlaces),
		DiscountAmount: t.DiscountAmount.Round(MoneyPlaces),
		TaxAmount:      t.TaxAmount.Round(MoneyPlaces),
		Total:          t.Total.Round(MoneyPlaces),
		Lines:          make([]LineTotals, len(t.Lines)),
	}
	for i, l := range t.Lines {
		out.Lines[i] = LineTotals{
			Gross:         l.Gross.Round(MoneyPlaces),
			DiscountShare: l.DiscountShare.Round(MoneyPlaces),
			Taxable:       l.Taxable.Round(MoneyPlaces),
			Tax:           l.Tax.Round(MoneyPlaces),
		}
	}
	return out
}

// Compute returns the totals of a document. The result is exact; rounding
// happens only through Totals.Rounded.
//
// Each line carries a share of the discount proportional to its gross amount
// and tax is charged on the discounted line amount. The share
// lineGross / subtotal × discountAmount is evaluated as lineGross × discount / 100,
// which is the same value without a division.
func Compute(items []models.LineItem, discount decimal.Decimal) (Totals, error) {
	if err := ValidateDiscount(discount); err != nil {
		return Totals{}, err
	}
	if err := ValidateItems(items); err != nil {
		return Totals{}, err
	}

	totals := Totals{Lines: make([]LineTotals, len(items))}
	for i, item := range items {
		gross := item.Quantity.Mul(item.UnitPrice)
		share := percentOf(gross, discount)
		taxable := gross.Sub(share)
		tax := percentOf(taxable, item.TaxRate)

		totals.Lines[i] = LineTotals{Gross: gross, DiscountShare: share, Taxable: taxable, Tax: tax}
		totals.Subtotal = totals.Subtotal.Add(gross)
		totals.TaxAmount = totals.TaxAmount.Add(tax)
	}
	totals.DiscountAmount = percentOf(totals.Subtotal, discount)
	totals.Total = totals.Subtotal.Sub(totals.DiscountAmount).Add(totals.TaxAmount)
	return totals, nil
}

// ValidateItems checks that a document has at least one well-formed line.
func ValidateItems(items []models.LineItem) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Err: ErrInvalidDocument, Details: "at least one line item is required"}
	}
	for i, item := range items {
		if err := validateItem(item); err != nil {
			err.Field = fmt.Sprintf("items[%d].%s", i, err.Field)
			return err
		}
	}
	return nil
}

func validateItem(item models.LineItem) *ValidationError {
	switch {
	case strings.TrimSpace(item.Description) == "":
		return &ValidationError{Field: "description", Err: ErrInvalidLineItem, Details: "is required"}
	case !item.Quantity.IsPositive():
		return &ValidationError{Field: "quantity", Err: ErrInvalidLineItem, Details: "must be greater than zero"}
	case item.UnitPrice.IsNegative():
		return &ValidationError{Field: "unit_price", Err: ErrInvalidLineItem, Details: "must not be negative"}
	case !isPercentage(item.TaxRate):
		return &ValidationError{Field: "tax_rate", Err: ErrInvalidLineItem, Details: "must be between 0 and 100"}
	}
	return nil
}

// ValidateDiscount checks that a discount percentage lies in [0,100].
func ValidateDiscount(discount decimal.Decimal) error {
	if !isPercentage(discount) {
		return Invalid("discount", "must be between 0 and 100")
	}
	return nil
}

func isPercentage(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// percentOf returns amount × rate / 100 without rounding.
func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Shift(-2)
}
