package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/milkrun/internal/model"
)

// DayCost prices one day's item snapshot against the catalog. An item
// whose product is missing from the catalog contributes zero.
func DayCost(items []model.DeliveryItem, products map[string]model.Product) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// AccruedCost sums the cost of every delivered day in the list. Pending
// and skipped days have not accrued anything.
func AccruedCost(days []model.DeliveryDay, products map[string]model.Product) decimal.Decimal {
	total := decimal.Zero
	for _, day := range days {
		if day.Status != model.DeliveryDelivered {
			continue
		}
		total = total.Add(DayCost(day.Items, products))
	}
	return total
}

// PendingBillsTotal sums the amounts of all still-unpaid bills.
func PendingBillsTotal(bills []model.Bill) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bills {
		if b.Status == model.BillPending {
			total = total.Add(b.Amount)
		}
	}
	return total
}

// EnrichedSubscription pairs a subscription with its product and the cost
// of one day's delivery.
type EnrichedSubscription struct {
	model.Subscription
	Product   model.Product   `json:"product"`
	DailyCost decimal.Decimal `json:"daily_cost"`
}

// EnrichSubscriptions joins subscriptions against the catalog and totals
// the daily cost. A subscription whose product cannot be found is left out
// of the result entirely rather than listed at zero.
func EnrichSubscriptions(subs []model.Subscription, products map[string]model.Product) ([]EnrichedSubscription, decimal.Decimal) {
	enriched := make([]EnrichedSubscription, 0, len(subs))
	total := decimal.Zero
	for _, sub := range subs {
		p, ok := products[sub.ProductID]
		if !ok {
			continue
		}
		cost := p.Price.Mul(decimal.NewFromInt(int64(sub.Quantity)))
		enriched = append(enriched, EnrichedSubscription{Subscription: sub, Product: p, DailyCost: cost})
		total = total.Add(cost)
	}
	return enriched, total
}

// Stats is the admin dashboard roll-up across all customers.
type Stats struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	PendingRevenue decimal.Decimal `json:"pending_revenue"`
	ActiveUsers    int             `json:"active_users"`
}

// ComputeStats aggregates paid revenue, outstanding revenue, and the
// customer count from already-fetched bills and users.
func ComputeStats(bills []model.Bill, users []model.User) Stats {
	var st Stats
	st.TotalRevenue = decimal.Zero
	st.PendingRevenue = decimal.Zero
	for _, b := range bills {
		switch b.Status {
		case model.BillPaid:
			st.TotalRevenue = st.TotalRevenue.Add(b.Amount)
		case model.BillPending:
			st.PendingRevenue = st.PendingRevenue.Add(b.Amount)
		}
	}
	for _, u := range users {
		if u.Role == model.RoleCustomer {
			st.ActiveUsers++
		}
	}
	return st
}

// Summary is one customer's live balance: outstanding bills plus whatever
// the current calendar month has accrued so far.
type Summary struct {
	Month        string          `json:"month"`
	PendingBills decimal.Decimal `json:"pending_bills"`
	Accrued      decimal.Decimal `json:"accrued"`
	TotalPayable decimal.Decimal `json:"total_payable"`
}

// BillingSummary computes the customer's total payable. The accrued part
// always comes from the current calendar month, regardless of which month
// a calendar view is showing; materializing here keeps the figure live
// even if the customer never opened this month's calendar.
func (l *Ledger) BillingSummary(userID string) (*Summary, error) {
	now := l.now()
	days, err := l.Materialize(userID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	products, err := l.products.MapByID()
	if err != nil {
		return nil, err
	}
	bills, err := l.bills.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	accrued := AccruedCost(days, products)
	pending := PendingBillsTotal(bills)
	return &Summary{
		Month:        MonthKey(now.Year(), now.Month()),
		PendingBills: pending,
		Accrued:      accrued,
		TotalPayable: pending.Add(accrued),
	}, nil
}

// GenerateBill creates the bill for one customer and month from the
// accrued cost of that month's delivered days, due on the 5th of the
// following month. At most one bill exists per customer per month: if one
// already exists it is returned unchanged and created is false.
func (l *Ledger) GenerateBill(userID, month string) (bill *model.Bill, created bool, err error) {
	existing, err := l.bills.GetByUserAndMonth(userID, month)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	start, err := time.Parse(monthLayout, month)
	if err != nil {
		return nil, false, err
	}

	days, err := l.Materialize(userID, start.Year(), start.Month())
	if err != nil {
		return nil, false, err
	}
	products, err := l.products.MapByID()
	if err != nil {
		return nil, false, err
	}
	amount := AccruedCost(days, products)

	dueDate := start.AddDate(0, 1, 4).Format(dateLayout) // 5th of the next month
	bill, err = l.bills.Create(uuid.NewString(), userID, month, amount, model.BillPending, dueDate)
	if err != nil {
		return nil, false, err
	}
	return bill, true, nil
}
