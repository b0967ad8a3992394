package repository

import (
	"salesengine/internal/core"
)

// Dataset is one immutable load of the six sales tables. It exposes the
// repositories and the navigation between related records.
type Dataset struct {
	Merchants    MerchantRepository
	Items        ItemRepository
	Invoices     InvoiceRepository
	InvoiceItems InvoiceItemRepository
	Transactions TransactionRepository
	Customers    CustomerRepository
}

// NewDataset indexes the records into in-memory stores.
func NewDataset(r Records) *Dataset {
	return &Dataset{
		Merchants:    NewMerchantStore(r.Merchants),
		Items:        NewItemStore(r.Items),
		Invoices:     NewInvoiceStore(r.Invoices),
		InvoiceItems: NewInvoiceItemStore(r.InvoiceItems),
		Transactions: NewTransactionStore(r.Transactions),
		Customers:    NewCustomerStore(r.Customers),
	}
}

// Records returns the dataset content, e.g. to snapshot it into storage.
func (d *Dataset) Records() Records {
	return Records{
		Merchants:    d.Merchants.All(),
		Items:        d.Items.All(),
		Invoices:     d.Invoices.All(),
		InvoiceItems: d.InvoiceItems.All(),
		Transactions: d.Transactions.All(),
		Customers:    d.Customers.All(),
	}
}

func (d *Dataset) InvoiceItemsOf(inv core.Invoice) []core.InvoiceItem {
	return d.InvoiceItems.FindAllByInvoiceID(inv.ID)
}

func (d *Dataset) TransactionsOf(inv core.Invoice) []core.Transaction {
	return d.Transactions.FindAllByInvoiceID(inv.ID)
}

func (d *Dataset) MerchantOf(inv core.Invoice) (core.Merchant, bool) {
	return d.Merchants.FindByID(inv.MerchantID)
}

func (d *Dataset) CustomerOf(inv core.Invoice) (core.Customer, bool) {
	return d.Customers.FindByID(inv.CustomerID)
}

func (d *Dataset) ItemOf(ii core.InvoiceItem) (core.Item, bool) {
	return d.Items.FindByID(ii.ItemID)
}

func (d *Dataset) ItemsOf(m core.Merchant) []core.Item {
	return d.Items.FindAllByMerchantID(m.ID)
}

func (d *Dataset) InvoicesOf(m core.Merchant) []core.Invoice {
	return d.Invoices.FindAllByMerchantID(m.ID)
}

// IsPaidInFull is true when the invoice has at least one transaction and
// every transaction succeeded.
func (d *Dataset) IsPaidInFull(inv core.Invoice) bool {
	txs := d.TransactionsOf(inv)
	if len(txs) == 0 {
		return false
	}
	for _, tx := range txs {
		if tx.Result != core.ResultSuccess {
			return false
		}
	}
	return true
}

// InvoiceTotal sums quantity × unit price over the invoice's line items.
func (d *Dataset) InvoiceTotal(inv core.Invoice) core.Money {
	var total core.Money
	for _, ii := range d.InvoiceItemsOf(inv) {
		total = total.Add(ii.Revenue())
	}
	return total
}
