package repository

import (
	"time"

	"salesengine/internal/core"
)

// Ports consumed by the analytics engine. Lookups that find nothing return
// (zero, false) or an empty slice; they never fail.
type (
	MerchantRepository interface {
		All() []core.Merchant
		IDs() []int64
		FindByID(id int64) (core.Merchant, bool)
		FindByName(name string) (core.Merchant, bool)
		FindAllByName(fragment string) []core.Merchant
	}

	ItemRepository interface {
		All() []core.Item
		FindByID(id int64) (core.Item, bool)
		FindByName(name string) (core.Item, bool)
		FindAllByMerchantID(merchantID int64) []core.Item
		FindAllWithDescription(fragment string) []core.Item
		FindAllByPrice(price core.Money) []core.Item
		FindAllByPriceInRange(low, high core.Money) []core.Item
	}

	InvoiceRepository interface {
		All() []core.Invoice
		FindByID(id int64) (core.Invoice, bool)
		FindAllByMerchantID(merchantID int64) []core.Invoice
		FindAllByCustomerID(customerID int64) []core.Invoice
		FindAllByStatus(status core.InvoiceStatus) []core.Invoice
		// FindAllByCreatedDate matches on the calendar date of CreatedAt.
		FindAllByCreatedDate(date time.Time) []core.Invoice
	}

	InvoiceItemRepository interface {
		All() []core.InvoiceItem
		FindByID(id int64) (core.InvoiceItem, bool)
		FindAllByInvoiceID(invoiceID int64) []core.InvoiceItem
		FindAllByItemID(itemID int64) []core.InvoiceItem
	}

	TransactionRepository interface {
		All() []core.Transaction
		FindByID(id int64) (core.Transaction, bool)
		FindAllByInvoiceID(invoiceID int64) []core.Transaction
		FindAllByResult(result core.TransactionResult) []core.Transaction
		FindAllByCreditCardNumber(number string) []core.Transaction
	}

	CustomerRepository interface {
		All() []core.Customer
		FindByID(id int64) (core.Customer, bool)
		FindAllByFirstName(fragment string) []core.Customer
		FindAllByLastName(fragment string) []core.Customer
	}
)

// Records is the raw content of a dataset as produced by a loader.
type Records struct {
	Merchants    []core.Merchant
	Items        []core.Item
	Invoices     []core.Invoice
	InvoiceItems []core.InvoiceItem
	Transactions []core.Transaction
	Customers    []core.Customer
}

// Counts returns the number of records per logical table.
func (r Records) Counts() map[string]int {
	return map[string]int{
		"merchants":     len(r.Merchants),
		"items":         len(r.Items),
		"invoices":      len(r.Invoices),
		"invoice_items": len(r.InvoiceItems),
		"transactions":  len(r.Transactions),
		"customers":     len(r.Customers),
	}
}
