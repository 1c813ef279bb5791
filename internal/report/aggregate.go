package report

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// Dashboard list sizes.
const (
	RecentLimit     = 5
	DefaultTopLimit = 5
)

// Dataset is everything one account's reports read. Documents are read from
// a single snapshot so the aggregates agree with each other.
type Dataset struct {
	Clients    []models.Client
	Quotes     []models.Quote
	Invoices   []models.Invoice
	Expenses   []models.Expense
	Activities []models.Activity
}

// Metric is a money figure compared with the preceding period.
type Metric struct {
	Value    decimal.Decimal  `json:"value"`
	Previous decimal.Decimal  `json:"previous"`
	Change   *decimal.Decimal `json:"change"`
}

// CountMetric is a count compared with the preceding period.
type CountMetric struct {
	Value    int              `json:"value"`
	Previous int              `json:"previous"`
	Change   *decimal.Decimal `json:"change"`
}

// InvoiceSummary is an invoice line in dashboard listings.
type InvoiceSummary struct {
	ID         int64                `json:"id"`
	Number     string               `json:"number"`
	ClientID   int64                `json:"client_id"`
	ClientName string               `json:"client_name"`
	Status     models.InvoiceStatus `json:"status"`
	IssueDate  time.Time            `json:"issue_date"`
	DueDate    time.Time            `json:"due_date"`
	Total      decimal.Decimal      `json:"total"`
}

// Dashboard is the account overview for one period.
type Dashboard struct {
	Period     Period      `json:"period"`
	Revenue    Metric      `json:"revenue"`
	Invoices   CountMetric `json:"invoices"`
	Quotes     CountMetric `json:"quotes"`
	NewClients CountMetric `json:"new_clients"`
	Pending    Metric      `json:"pending"`

	TotalClients      int             `json:"total_clients"`
	PendingQuotes     int             `json:"pending_quotes"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	ExpensesTotal     decimal.Decimal `json:"expenses_total"`

	RecentInvoices   []InvoiceSummary  `json:"recent_invoices"`
	RecentActivities []models.Activity `json:"recent_activities"`
}

// ClientRevenue is one row of the top clients ranking.
type ClientRevenue struct {
	ClientID     int64           `json:"client_id"`
	Name         string          `json:"name"`
	Revenue      decimal.Decimal `json:"revenue"`
	PaidInvoices int             `json:"paid_invoices"`
}

// Financial is the profit summary of one period.
type Financial struct {
	Period          Period          `json:"period"`
	Revenue         decimal.Decimal `json:"revenue"`
	Expenses        decimal.Decimal `json:"expenses"`
	Profit          decimal.Decimal `json:"profit"`
	InvoicesPaid    int             `json:"invoices_paid"`
	InvoicesPending int             `json:"invoices_pending"`
	QuotesAccepted  int             `json:"quotes_accepted"`
	QuotesPending   int             `json:"quotes_pending"`
}

// CashflowEntry is one monthly bucket, Month formatted as YYYY-MM.
type CashflowEntry struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// CategoryTotal is the spend of one expense category.
type CategoryTotal struct {
	Category models.ExpenseCategory `json:"category"`
	Total    decimal.Decimal        `json:"total"`
}

// index holds the computed invoice totals of a dataset.
type index struct {
	in       Dataset
	invoices []pricedInvoice
	clients  map[int64]models.Client
}

type pricedInvoice struct {
	models.Invoice
	total decimal.Decimal
}

func newIndex(in Dataset) (*index, error) {
	idx := &index{in: in, clients: make(map[int64]models.Client, len(in.Clients))}
	for _, c := range in.Clients {
		idx.clients[c.ID] = c
	}
	for _, inv := range in.Invoices {
		totals, err := billing.Compute(inv.Items, inv.Discount)
		if err != nil {
			return nil, fmt.Errorf("failed to compute invoice %s: %w", inv.Number, err)
		}
		idx.invoices = append(idx.invoices, pricedInvoice{Invoice: inv, total: totals.Total})
	}
	return idx, nil
}

// RecognizedAt is the date a paid invoice counts as revenue: its paid date,
// falling back to its issue date.
func RecognizedAt(inv models.Invoice) time.Time {
	if inv.PaidDate != nil {
		return *inv.PaidDate
	}
	return inv.IssueDate
}

func (idx *index) revenue(p Period) (decimal.Decimal, int) {
	sum, n := decimal.Zero, 0
	for _, inv := range idx.invoices {
		if inv.Status == models.InvoiceStatusPaid && p.Contains(RecognizedAt(inv.Invoice)) {
			sum = sum.Add(inv.total)
			n++
		}
	}
	return sum, n
}

// pending sums Sent and Overdue invoices; a zero period means all time.
func (idx *index) pending(p Period, now time.Time) (decimal.Decimal, int) {
	sum, n := decimal.Zero, 0
	for _, inv := range idx.invoices {
		if !billing.EffectiveInvoiceStatus(inv.Invoice, now).IsPending() {
			continue
		}
		if !p.Start.IsZero() && !p.Contains(inv.IssueDate) {
			continue
		}
		sum = sum.Add(inv.total)
		n++
	}
	return sum, n
}

func (idx *index) invoicesIssued(p Period) int {
	n := 0
	for _, inv := range idx.invoices {
		if p.Contains(inv.IssueDate) {
			n++
		}
	}
	return n
}

func (idx *index) quotesIssued(p Period) int {
	n := 0
	for _, q := range idx.in.Quotes {
		if p.Contains(q.IssueDate) {
			n++
		}
	}
	return n
}

func (idx *index) newClients(p Period) int {
	n := 0
	for _, c := range idx.in.Clients {
		if p.Contains(c.CreatedAt) {
			n++
		}
	}
	return n
}

// Change is the percentage change from previous to current, rounded to two
// places. It is nil when previous is zero.
func Change(current, previous decimal.Decimal) *decimal.Decimal {
	if previous.IsZero() {
		return nil
	}
	c := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(billing.MoneyPlaces)
	return &c
}

func moneyMetric(current, previous decimal.Decimal) Metric {
	return Metric{
		Value:    current.Round(billing.MoneyPlaces),
		Previous: previous.Round(billing.MoneyPlaces),
		Change:   Change(current, previous),
	}
}

func countMetric(current, previous int) CountMetric {
	return CountMetric{
		Value:    current,
		Previous: previous,
		Change:   Change(decimal.NewFromInt(int64(current)), decimal.NewFromInt(int64(previous))),
	}
}

// BuildDashboard computes the dashboard of the kind-period containing now.
func BuildDashboard(in Dataset, kind PeriodKind, now time.Time) (*Dashboard, error) {
	idx, err := newIndex(in)
	if err != nil {
		return nil, err
	}
	cur := PeriodFor(kind, now)
	prev := cur.Previous()

	revCur, _ := idx.revenue(cur)
	revPrev, _ := idx.revenue(prev)
	pendCur, _ := idx.pending(cur, now)
	pendPrev, _ := idx.pending(prev, now)
	outstanding, _ := idx.pending(Period{}, now)

	d := &Dashboard{
		Period:            cur,
		Revenue:           moneyMetric(revCur, revPrev),
		Invoices:          countMetric(idx.invoicesIssued(cur), idx.invoicesIssued(prev)),
		Quotes:            countMetric(idx.quotesIssued(cur), idx.quotesIssued(prev)),
		NewClients:        countMetric(idx.newClients(cur), idx.newClients(prev)),
		Pending:           moneyMetric(pendCur, pendPrev),
		TotalClients:      len(in.Clients),
		OutstandingAmount: outstanding.Round(billing.MoneyPlaces),
		ExpensesTotal:     ExpenseTotal(in.Expenses, cur).Round(billing.MoneyPlaces),
		RecentInvoices:    idx.recentInvoices(now, RecentLimit),
		RecentActivities:  recentActivities(in.Activities, RecentLimit),
	}
	for _, q := range in.Quotes {
		if billing.EffectiveQuoteStatus(q, now).IsPending() {
			d.PendingQuotes++
		}
	}
	return d, nil
}

func (idx *index) recentInvoices(now time.Time, n int) []InvoiceSummary {
	sorted := slices.Clone(idx.invoices)
	slices.SortFunc(sorted, func(a, b pricedInvoice) int {
		if c := billing.DateOf(b.IssueDate).Compare(billing.DateOf(a.IssueDate)); c != 0 {
			return c
		}
		return cmp.Compare(b.Sequence, a.Sequence)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]InvoiceSummary, len(sorted))
	for i, inv := range sorted {
		out[i] = InvoiceSummary{
			ID:         inv.ID,
			Number:     inv.Number,
			ClientID:   inv.ClientID,
			ClientName: idx.clients[inv.ClientID].Name,
			Status:     billing.EffectiveInvoiceStatus(inv.Invoice, now),
			IssueDate:  inv.IssueDate,
			DueDate:    inv.DueDate,
			Total:      inv.total.Round(billing.MoneyPlaces),
		}
	}
	return out
}

func recentActivities(activities []models.Activity, n int) []models.Activity {
	sorted := slices.Clone(activities)
	slices.SortFunc(sorted, func(a, b models.Activity) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// TopClients ranks clients by paid revenue, highest first, ties broken by
// client id. Clients without paid invoices are left out.
func TopClients(in Dataset, limit int) ([]ClientRevenue, error) {
	idx, err := newIndex(in)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	byClient := make(map[int64]*ClientRevenue)
	for _, inv := range idx.invoices {
		if inv.Status != models.InvoiceStatusPaid {
			continue
		}
		row, ok := byClient[inv.ClientID]
		if !ok {
			row = &ClientRevenue{ClientID: inv.ClientID, Name: idx.clients[inv.ClientID].Name}
			byClient[inv.ClientID] = row
		}
		row.Revenue = row.Revenue.Add(inv.total)
		row.PaidInvoices++
	}

	out := make([]ClientRevenue, 0, len(byClient))
	for _, row := range byClient {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b ClientRevenue) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ClientID, b.ClientID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(billing.MoneyPlaces)
	}
	return out, nil
}

// BuildFinancial computes the profit summary of p. Pending counts use the
// statuses in effect at now.
func BuildFinancial(in Dataset, p Period, now time.Time) (*Financial, error) {
	idx, err := newIndex(in)
	if err != nil {
		return nil, err
	}
	revenue, paid := idx.revenue(p)
	_, pending := idx.pending(p, now)
	expenses := ExpenseTotal(in.Expenses, p)

	f := &Financial{
		Period:          p,
		Revenue:         revenue.Round(billing.MoneyPlaces),
		Expenses:        expenses.Round(billing.MoneyPlaces),
		Profit:          revenue.Sub(expenses).Round(billing.MoneyPlaces),
		InvoicesPaid:    paid,
		InvoicesPending: pending,
	}
	for _, q := range in.Quotes {
		if !p.Contains(q.IssueDate) {
			continue
		}
		switch status := billing.EffectiveQuoteStatus(q, now); {
		case status == models.QuoteStatusAccepted:
			f.QuotesAccepted++
		case status.IsPending():
			f.QuotesPending++
		}
	}
	return f, nil
}

// Cashflow returns exactly months monthly buckets ending with the month of
// now, oldest first. Months without activity are zero.
func Cashflow(in Dataset, months int, now time.Time) ([]CashflowEntry, error) {
	idx, err := newIndex(in)
	if err != nil {
		return nil, err
	}
	periods := MonthsEnding(months, now)
	out := make([]CashflowEntry, len(periods))
	for i, p := range periods {
		income, _ := idx.revenue(p)
		out[i] = CashflowEntry{
			Month:    p.Label(),
			Income:   income.Round(billing.MoneyPlaces),
			Expenses: ExpenseTotal(in.Expenses, p).Round(billing.MoneyPlaces),
		}
	}
	return out, nil
}

// counted reports whether an expense contributes to totals.
func counted(e models.Expense) bool {
	return e.Status != models.ExpenseStatusRejected
}

// ExpenseTotal sums non-rejected expenses dated inside p, billable or not.
func ExpenseTotal(expenses []models.Expense, p Period) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		if counted(e) && p.Contains(e.ExpenseDate) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// BillableTotal sums the non-rejected billable expenses of a client inside p.
func BillableTotal(expenses []models.Expense, clientID int64, p Period) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		if counted(e) && e.Billable && e.ClientID != nil && *e.ClientID == clientID && p.Contains(e.ExpenseDate) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum.Round(billing.MoneyPlaces)
}

// TotalsByCategory sums non-rejected expenses inside p per category, in
// category display order. Categories without spend are left out.
func TotalsByCategory(expenses []models.Expense, p Period) []CategoryTotal {
	sums := make(map[models.ExpenseCategory]decimal.Decimal)
	for _, e := range expenses {
		if counted(e) && p.Contains(e.ExpenseDate) {
			sums[e.Category] = sums[e.Category].Add(e.Amount)
		}
	}
	var out []CategoryTotal
	for _, c := range models.ExpenseCategories {
		if total, ok := sums[c]; ok && !total.IsZero() {
			out = append(out, CategoryTotal{Category: c, Total: total.Round(billing.MoneyPlaces)})
		}
	}
	return out
}
