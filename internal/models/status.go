package models

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

// Invoice statuses. Overdue is derived from the due date and only persisted as a cache.
const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

var validInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusDraft:   true,
	InvoiceStatusSent:    true,
	InvoiceStatusPaid:    true,
	InvoiceStatusOverdue: true,
}

// IsValid returns true if the status is a known invoice status.
func (s InvoiceStatus) IsValid() bool {
	return validInvoiceStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid
}

// IsPending returns true if the invoice awaits payment.
func (s InvoiceStatus) IsPending() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusOverdue
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

// Quote statuses. Expired is derived from the expiry date.
const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRefused  QuoteStatus = "refused"
	QuoteStatusExpired  QuoteStatus = "expired"
)

var validQuoteStatuses = map[QuoteStatus]bool{
	QuoteStatusDraft:    true,
	QuoteStatusSent:     true,
	QuoteStatusAccepted: true,
	QuoteStatusRefused:  true,
	QuoteStatusExpired:  true,
}

var terminalQuoteStatuses = map[QuoteStatus]bool{
	QuoteStatusAccepted: true,
	QuoteStatusRefused:  true,
	QuoteStatusExpired:  true,
}

// IsValid returns true if the status is a known quote status.
func (s QuoteStatus) IsValid() bool {
	return validQuoteStatuses[s]
}

// IsTerminal returns true if no further transitions are allowed.
// Accepted quotes still allow the one-time conversion.
func (s QuoteStatus) IsTerminal() bool {
	return terminalQuoteStatuses[s]
}

// IsPending returns true if the quote still awaits a client decision.
func (s QuoteStatus) IsPending() bool {
	return s == QuoteStatusDraft || s == QuoteStatusSent
}

func (s QuoteStatus) String() string {
	return string(s)
}

// ExpenseStatus is the approval state of an expense.
type ExpenseStatus string

// Expense statuses.
const (
	ExpenseStatusPending  ExpenseStatus = "pending"
	ExpenseStatusApproved ExpenseStatus = "approved"
	ExpenseStatusRejected ExpenseStatus = "rejected"
)

// IsValid returns true if the status is a known expense status.
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusApproved, ExpenseStatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true if the expense has been decided.
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseStatusApproved || s == ExpenseStatusRejected
}

func (s ExpenseStatus) String() string {
	return string(s)
}

// ClientStatus marks whether a client is still being billed.
type ClientStatus string

// Client statuses.
const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// IsValid returns true if the status is a known client status.
func (s ClientStatus) IsValid() bool {
	return s == ClientStatusActive || s == ClientStatusInactive
}

// ExpenseCategory is the closed set of expense categories.
type ExpenseCategory string

// Expense categories.
const (
	CategoryTransport ExpenseCategory = "transport"
	CategoryMeals     ExpenseCategory = "meals"
	CategoryLodging   ExpenseCategory = "lodging"
	CategoryEquipment ExpenseCategory = "equipment"
	CategorySoftware  ExpenseCategory = "software"
	CategoryTraining  ExpenseCategory = "training"
	CategoryMarketing ExpenseCategory = "marketing"
	CategorySupplies  ExpenseCategory = "supplies"
	CategoryTelecom   ExpenseCategory = "telecom"
	CategoryOther     ExpenseCategory = "other"
)

// ExpenseCategories lists every category in display order.
var ExpenseCategories = []ExpenseCategory{
	CategoryTransport,
	CategoryMeals,
	CategoryLodging,
	CategoryEquipment,
	CategorySoftware,
	CategoryTraining,
	CategoryMarketing,
	CategorySupplies,
	CategoryTelecom,
	CategoryOther,
}

var categoryLabels = map[ExpenseCategory]string{
	CategoryTransport: "Transport",
	CategoryMeals:     "Meals",
	CategoryLodging:   "Lodging",
	CategoryEquipment: "Equipment",
	CategorySoftware:  "Software",
	CategoryTraining:  "Training",
	CategoryMarketing: "Marketing",
	CategorySupplies:  "Supplies",
	CategoryTelecom:   "Telecom",
	CategoryOther:     "Other",
}

// IsValid returns true if the category is part of the closed set.
func (c ExpenseCategory) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human readable category name.
func (c ExpenseCategory) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

func (c ExpenseCategory) String() string {
	return string(c)
}

// DocumentType distinguishes independently numbered document kinds.
type DocumentType string

// Document types.
const (
	DocumentQuote   DocumentType = "quote"
	DocumentInvoice DocumentType = "invoice"
)

// Prefix returns the display prefix for document numbers.
func (d DocumentType) Prefix() string {
	switch d {
	case DocumentQuote:
		return "QUO"
	case DocumentInvoice:
		return "INV"
	}
	return "DOC"
}

// IsValid returns true if the document type is known.
func (d DocumentType) IsValid() bool {
	return d == DocumentQuote || d == DocumentInvoice
}
