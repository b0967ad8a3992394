package repository

import (
	"strings"
	"time"

	"salesengine/internal/core"
)

// table keeps records in insertion order with an id index. A repeated id
// keeps the first record.
type table[T any] struct {
	rows []T
	byID map[int64]int
}

func newTable[T any](rows []T, id func(T) int64) table[T] {
	t := table[T]{rows: make([]T, 0, len(rows)), byID: make(map[int64]int, len(rows))}
	for _, r := range rows {
		k := id(r)
		if _, dup := t.byID[k]; dup {
			continue
		}
		t.byID[k] = len(t.rows)
		t.rows = append(t.rows, r)
	}
	return t
}

func (t table[T]) all() []T {
	return append([]T(nil), t.rows...)
}

func (t table[T]) find(id int64) (T, bool) {
	var zero T
	i, ok := t.byID[id]
	if !ok {
		return zero, false
	}
	return t.rows[i], true
}

func (t table[T]) filter(keep func(T) bool) []T {
	var out []T
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (t table[T]) first(keep func(T) bool) (T, bool) {
	for _, r := range t.rows {
		if keep(r) {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// group indexes row positions by a foreign key, preserving row order.
func group[T any](t table[T], key func(T) int64) map[int64][]int {
	out := make(map[int64][]int)
	for i, r := range t.rows {
		k := key(r)
		out[k] = append(out[k], i)
	}
	return out
}

func pick[T any](t table[T], idx []int) []T {
	out := make([]T, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.rows[i])
	}
	return out
}

func containsFold(s, fragment string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(fragment)))
}

type MerchantStore struct {
	t table[core.Merchant]
}

func NewMerchantStore(rows []core.Merchant) *MerchantStore {
	return &MerchantStore{t: newTable(rows, func(m core.Merchant) int64 { return m.ID })}
}

func (s *MerchantStore) All() []core.Merchant { return s.t.all() }

func (s *MerchantStore) IDs() []int64 {
	ids := make([]int64, len(s.t.rows))
	for i, m := range s.t.rows {
		ids[i] = m.ID
	}
	return ids
}

func (s *MerchantStore) FindByID(id int64) (core.Merchant, bool) { return s.t.find(id) }

func (s *MerchantStore) FindByName(name string) (core.Merchant, bool) {
	name = strings.TrimSpace(name)
	return s.t.first(func(m core.Merchant) bool { return strings.EqualFold(m.Name, name) })
}

func (s *MerchantStore) FindAllByName(fragment string) []core.Merchant {
	return s.t.filter(func(m core.Merchant) bool { return containsFold(m.Name, fragment) })
}

type ItemStore struct {
	t          table[core.Item]
	byMerchant map[int64][]int
}

func NewItemStore(rows []core.Item) *ItemStore {
	t := newTable(rows, func(i core.Item) int64 { return i.ID })
	return &ItemStore{t: t, byMerchant: group(t, func(i core.Item) int64 { return i.MerchantID })}
}

func (s *ItemStore) All() []core.Item { return s.t.all() }

func (s *ItemStore) FindByID(id int64) (core.Item, bool) { return s.t.find(id) }

func (s *ItemStore) FindByName(name string) (core.Item, bool) {
	name = strings.TrimSpace(name)
	return s.t.first(func(i core.Item) bool { return strings.EqualFold(i.Name, name) })
}

func (s *ItemStore) FindAllByMerchantID(merchantID int64) []core.Item {
	return pick(s.t, s.byMerchant[merchantID])
}

func (s *ItemStore) FindAllWithDescription(fragment string) []core.Item {
	return s.t.filter(func(i core.Item) bool { return containsFold(i.Description, fragment) })
}

func (s *ItemStore) FindAllByPrice(price core.Money) []core.Item {
	return s.t.filter(func(i core.Item) bool { return i.UnitPrice == price })
}

// FindAllByPriceInRange is inclusive on both ends.
func (s *ItemStore) FindAllByPriceInRange(low, high core.Money) []core.Item {
	return s.t.filter(func(i core.Item) bool {
		return i.UnitPrice.Cents >= low.Cents && i.UnitPrice.Cents <= high.Cents
	})
}

type InvoiceStore struct {
	t          table[core.Invoice]
	byMerchant map[int64][]int
	byCustomer map[int64][]int
}

func NewInvoiceStore(rows []core.Invoice) *InvoiceStore {
	t := newTable(rows, func(i core.Invoice) int64 { return i.ID })
	return &InvoiceStore{
		t:          t,
		byMerchant: group(t, func(i core.Invoice) int64 { return i.MerchantID }),
		byCustomer: group(t, func(i core.Invoice) int64 { return i.CustomerID }),
	}
}

func (s *InvoiceStore) All() []core.Invoice { return s.t.all() }

func (s *InvoiceStore) FindByID(id int64) (core.Invoice, bool) { return s.t.find(id) }

func (s *InvoiceStore) FindAllByMerchantID(merchantID int64) []core.Invoice {
	return pick(s.t, s.byMerchant[merchantID])
}

func (s *InvoiceStore) FindAllByCustomerID(customerID int64) []core.Invoice {
	return pick(s.t, s.byCustomer[customerID])
}

func (s *InvoiceStore) FindAllByStatus(status core.InvoiceStatus) []core.Invoice {
	return s.t.filter(func(i core.Invoice) bool { return i.Status == status })
}

func (s *InvoiceStore) FindAllByCreatedDate(date time.Time) []core.Invoice {
	return s.t.filter(func(i core.Invoice) bool { return core.SameDate(i.CreatedAt, date) })
}

type InvoiceItemStore struct {
	t         table[core.InvoiceItem]
	byInvoice map[int64][]int
	byItem    map[int64][]int
}

func NewInvoiceItemStore(rows []core.InvoiceItem) *InvoiceItemStore {
	t := newTable(rows, func(ii core.InvoiceItem) int64 { return ii.ID })
	return &InvoiceItemStore{
		t:         t,
		byInvoice: group(t, func(ii core.InvoiceItem) int64 { return ii.InvoiceID }),
		byItem:    group(t, func(ii core.InvoiceItem) int64 { return ii.ItemID }),
	}
}

func (s *InvoiceItemStore) All() []core.InvoiceItem { return s.t.all() }

func (s *InvoiceItemStore) FindByID(id int64) (core.InvoiceItem, bool) { return s.t.find(id) }

func (s *InvoiceItemStore) FindAllByInvoiceID(invoiceID int64) []core.InvoiceItem {
	return pick(s.t, s.byInvoice[invoiceID])
}

func (s *InvoiceItemStore) FindAllByItemID(itemID int64) []core.InvoiceItem {
	return pick(s.t, s.byItem[itemID])
}

type TransactionStore struct {
	t         table[core.Transaction]
	byInvoice map[int64][]int
}

func NewTransactionStore(rows []core.Transaction) *TransactionStore {
	t := newTable(rows, func(tx core.Transaction) int64 { return tx.ID })
	return &TransactionStore{t: t, byInvoice: group(t, func(tx core.Transaction) int64 { return tx.InvoiceID })}
}

func (s *TransactionStore) All() []core.Transaction { return s.t.all() }

func (s *TransactionStore) FindByID(id int64) (core.Transaction, bool) { return s.t.find(id) }

func (s *TransactionStore) FindAllByInvoiceID(invoiceID int64) []core.Transaction {
	return pick(s.t, s.byInvoice[invoiceID])
}

func (s *TransactionStore) FindAllByResult(result core.TransactionResult) []core.Transaction {
	return s.t.filter(func(tx core.Transaction) bool { return tx.Result == result })
}

func (s *TransactionStore) FindAllByCreditCardNumber(number string) []core.Transaction {
	number = strings.TrimSpace(number)
	return s.t.filter(func(tx core.Transaction) bool { return tx.CreditCardNumber == number })
}

type CustomerStore struct {
	t table[core.Customer]
}

func NewCustomerStore(rows []core.Customer) *CustomerStore {
	return &CustomerStore{t: newTable(rows, func(c core.Customer) int64 { return c.ID })}
}

func (s *CustomerStore) All() []core.Customer { return s.t.all() }

func (s *CustomerStore) FindByID(id int64) (core.Customer, bool) { return s.t.find(id) }

func (s *CustomerStore) FindAllByFirstName(fragment string) []core.Customer {
	return s.t.filter(func(c core.Customer) bool { return containsFold(c.FirstName, fragment) })
}

func (s *CustomerStore) FindAllByLastName(fragment string) []core.Customer {
	return s.t.filter(func(c core.Customer) bool { return containsFold(c.LastName, fragment) })
}

// Ensure interface conformance
var (
	_ MerchantRepository    = (*MerchantStore)(nil)
	_ ItemRepository        = (*ItemStore)(nil)
	_ InvoiceRepository     = (*InvoiceStore)(nil)
	_ InvoiceItemRepository = (*InvoiceItemStore)(nil)
	_ TransactionRepository = (*TransactionStore)(nil)
	_ CustomerRepository    = (*CustomerStore)(nil)
)
