package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"gitlab.com/yelinaung/invoiceflow/internal/report"
	"gitlab.com/yelinaung/invoiceflow/internal/service"
)

// paidInvoice converts an accepted quote and pays the invoice.
func (f *fixture) paidInvoice(t *testing.T, clientID int64) *service.InvoiceView {
	t.Helper()
	q := f.acceptedQuote(t, clientID)
	inv, err := f.svc.Conversion.Convert(f.ctx, q.Quote.ID, service.ConvertOptions{})
	require.NoError(t, err)
	_, err = f.svc.Invoices.Transition(f.ctx, inv.Invoice.ID, models.InvoiceStatusSent)
	require.NoError(t, err)
	inv, err = f.svc.Invoices.Transition(f.ctx, inv.Invoice.ID, models.InvoiceStatusPaid)
	require.NoError(t, err)
	return inv
}

func TestDashboard(t *testing.T) {
	f := setup(t)
	c := f.client(t)
	f.paidInvoice(t, c.ID)
	_, err := f.svc.Expenses.Record(f.ctx, service.ExpenseInput{Title: "Train", Amount: dec("40"), Category: models.CategoryTransport})
	require.NoError(t, err)

	d, err := f.svc.Reports.Dashboard(f.ctx, report.PeriodMonth)
	require.NoError(t, err)
	require.Equal(t, "2026-03", d.Period.Label())
	requireDecimal(t, "265.5", d.Revenue.Value)
	require.Nil(t, d.Revenue.Change)
	require.Equal(t, 1, d.Invoices.Value)
	require.Equal(t, 1, d.Quotes.Value)
	require.Equal(t, 1, d.NewClients.Value)
	require.Equal(t, 1, d.TotalClients)
	requireDecimal(t, "0", d.OutstandingAmount)
	requireDecimal(t, "40", d.ExpensesTotal)
	require.Len(t, d.RecentInvoices, 1)
	require.Equal(t, "Acme", d.RecentInvoices[0].ClientName)
	require.Len(t, d.RecentActivities, report.RecentLimit)

	_, err = f.svc.Reports.Dashboard(f.ctx, "decade")
	require.ErrorIs(t, err, billing.ErrValidation)
}

func TestDashboardCacheIsInvalidatedByMutations(t *testing.T) {
	f := setupWith(t, service.Options{ReportCacheTTL: time.Hour}, nil)
	c := f.client(t)

	before, err := f.svc.Reports.Dashboard(f.ctx, report.PeriodMonth)
	require.NoError(t, err)
	require.Equal(t, 0, before.Quotes.Value)

	again, err := f.svc.Reports.Dashboard(f.ctx, report.PeriodMonth)
	require.NoError(t, err)
	require.Same(t, before, again)

	f.quote(t, c.ID)

	after, err := f.svc.Reports.Dashboard(f.ctx, report.PeriodMonth)
	require.NoError(t, err)
	require.Equal(t, 1, after.Quotes.Value)
	require.Equal(t, 1, after.PendingQuotes)
}

func TestFinancialAndTopClients(t *testing.T) {
	f := setup(t)
	acme := f.client(t)
	globex, err := f.svc.Clients.Create(f.ctx, service.ClientInput{Name: "Globex", Email: "ap@globex.test"})
	require.NoError(t, err)

	f.paidInvoice(t, acme.ID)
	f.paidInvoice(t, acme.ID)
	f.paidInvoice(t, globex.ID)
	_, err = f.svc.Expenses.Record(f.ctx, service.ExpenseInput{Title: "Hotel", Amount: dec("100.25"), Category: models.CategoryLodging})
	require.NoError(t, err)

	fin, err := f.svc.Reports.Financial(f.ctx, report.PeriodQuarter, time.Time{})
	require.NoError(t, err)
	require.Equal(t, "2026-Q1", fin.Period.Label())
	requireDecimal(t, "796.5", fin.Revenue)
	requireDecimal(t, "100.25", fin.Expenses)
	requireDecimal(t, "696.25", fin.Profit)
	require.Equal(t, 3, fin.InvoicesPaid)
	require.Equal(t, 3, fin.QuotesAccepted)

	last, err := f.svc.Reports.Financial(f.ctx, report.PeriodYear, testNow.AddDate(-1, 0, 0))
	require.NoError(t, err)
	requireDecimal(t, "0", last.Revenue)

	top, err := f.svc.Reports.TopClients(f.ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "Acme", top[0].Name)
	requireDecimal(t, "531", top[0].Revenue)
	require.Equal(t, 2, top[0].PaidInvoices)
	require.Equal(t, globex.ID, top[1].ClientID)
}

func TestCashflow(t *testing.T) {
	f := setup(t)
	f.paidInvoice(t, f.client(t).ID)

	flow, err := f.svc.Reports.Cashflow(f.ctx, 3)
	require.NoError(t, err)
	require.Len(t, flow, 3)
	require.Equal(t, "2026-01", flow[0].Month)
	require.Equal(t, "2026-03", flow[2].Month)
	requireDecimal(t, "0", flow[0].Income)
	requireDecimal(t, "265.5", flow[2].Income)

	_, err = f.svc.Reports.Cashflow(f.ctx, 0)
	requireField(t, err, "months")
	_, err = f.svc.Reports.Cashflow(f.ctx, service.MaxCashflowMonths+1)
	requireField(t, err, "months")
}

func TestExpenseChart(t *testing.T) {
	f := setup(t)
	month := report.PeriodFor(report.PeriodMonth, testNow)

	_, err := f.svc.Reports.ExpenseChart(f.ctx, month)
	require.ErrorIs(t, err, report.ErrNothingToChart)

	_, err = f.svc.Expenses.Record(f.ctx, service.ExpenseInput{Title: "Train", Amount: dec("40"), Category: models.CategoryTransport})
	require.NoError(t, err)
	_, err = f.svc.Expenses.Record(f.ctx, service.ExpenseInput{Title: "Lunch", Amount: dec("12"), Category: models.CategoryMeals})
	require.NoError(t, err)

	png, err := f.svc.Reports.ExpenseChart(f.ctx, month)
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
