// Package ledger implements the delivery and billing ledger: lazy
// materialization of monthly delivery schedules, per-day status
// transitions, propagation of subscription changes into unresolved future
// days, and the money aggregation behind dashboards and bills.
package ledger

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/store"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Fraction of historical days that were skipped rather than delivered.
const historicalSkipRate = 0.1

type Ledger struct {
	deliveries    *store.DeliveryStore
	subscriptions *store.SubscriptionStore
	products      *store.ProductStore
	bills         *store.BillStore

	// now and roll are swapped out in tests for a fixed clock and a
	// deterministic roll sequence.
	now  func() time.Time
	roll func() float64
}

func New(deliveries *store.DeliveryStore, subscriptions *store.SubscriptionStore, products *store.ProductStore, bills *store.BillStore) *Ledger {
	return &Ledger{
		deliveries:    deliveries,
		subscriptions: subscriptions,
		products:      products,
		bills:         bills,
		now:           time.Now,
		roll:          rand.Float64,
	}
}

// MonthKey formats a year/month pair the way delivery months and bills are
// keyed: YYYY-MM.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// Today returns the current local calendar date as YYYY-MM-DD. ISO date
// strings compare correctly with <, so all before/after checks in the
// ledger are plain string comparisons.
func (l *Ledger) Today() string {
	return l.now().Format(dateLayout)
}

// Tomorrow returns tomorrow's local calendar date as YYYY-MM-DD.
func (l *Ledger) Tomorrow() string {
	return l.now().AddDate(0, 0, 1).Format(dateLayout)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (l *Ledger) historicalStatus() model.DeliveryStatus {
	if l.roll() > historicalSkipRate {
		return model.DeliveryDelivered
	}
	return model.DeliverySkipped
}

// subscriptionItems takes the value-copy snapshot of the user's current
// subscriptions that gets stamped onto delivery days.
func (l *Ledger) subscriptionItems(userID string) ([]model.DeliveryItem, error) {
	subs, err := l.subscriptions.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	items := make([]model.DeliveryItem, 0, len(subs))
	for _, sub := range subs {
		items = append(items, model.DeliveryItem{ProductID: sub.ProductID, Quantity: sub.Quantity})
	}
	return items, nil
}

// Materialize returns one DeliveryDay per calendar day of the given month,
// ascending by date. The first call for a month generates and persists it:
// days before today draw a delivered/skipped history roll, today and later
// start pending, and every day snapshots the user's current subscriptions.
// Later calls return the stored days verbatim, so history is rolled
// exactly once.
func (l *Ledger) Materialize(userID string, year int, month time.Month) ([]model.DeliveryDay, error) {
	key := MonthKey(year, month)

	days, err := l.deliveries.ListMonth(userID, key)
	if err != nil {
		return nil, err
	}
	if len(days) > 0 {
		return days, nil
	}

	items, err := l.subscriptionItems(userID)
	if err != nil {
		return nil, err
	}

	today := l.Today()
	total := daysInMonth(year, month)
	generated := make([]model.DeliveryDay, 0, total)
	for d := 1; d <= total; d++ {
		date := fmt.Sprintf("%s-%02d", key, d)
		status := model.DeliveryPending
		if date < today {
			status = l.historicalStatus()
		}
		generated = append(generated, model.DeliveryDay{
			UserID: userID,
			Date:   date,
			Month:  key,
			Status: status,
			Items:  items,
		})
	}

	if err := l.deliveries.InsertDays(generated); err != nil {
		return nil, err
	}
	return l.deliveries.ListMonth(userID, key)
}

// UpdateDeliveryStatus toggles one day between pending and skipped. It
// reports false, mutating nothing, when the day was never materialized,
// when the day is already delivered, when the date is in the past, or when
// the requested status is not pending/skipped. Delivered is reachable only
// through MarkDelivered.
func (l *Ledger) UpdateDeliveryStatus(userID, date string, status model.DeliveryStatus) (bool, error) {
	if status != model.DeliveryPending && status != model.DeliverySkipped {
		return false, nil
	}
	if date < l.Today() {
		return false, nil
	}

	day, err := l.deliveries.GetDay(userID, date)
	if err != nil {
		return false, err
	}
	if day == nil || day.Status == model.DeliveryDelivered {
		return false, nil
	}

	return l.deliveries.UpdateStatus(userID, date, status)
}

// MarkDelivered records fulfillment of a pending day. Only today and past
// dates can be delivered; a future day has not happened yet. Delivered is
// terminal, so a second call reports false.
func (l *Ledger) MarkDelivered(userID, date string) (bool, error) {
	if date > l.Today() {
		return false, nil
	}

	day, err := l.deliveries.GetDay(userID, date)
	if err != nil {
		return false, err
	}
	if day == nil || day.Status != model.DeliveryPending {
		return false, nil
	}

	return l.deliveries.UpdateStatus(userID, date, model.DeliveryDelivered)
}

// UpdateSubscription upserts the (user, product) pair, or removes it when
// quantity drops to zero or below, then synchronously re-stamps every
// stored future pending day with the user's full new subscription
// snapshot. Days that are today, past, delivered, or skipped keep their
// old snapshot. Reads issued after this returns see the new items.
func (l *Ledger) UpdateSubscription(userID, productID string, quantity int) (bool, error) {
	if quantity <= 0 {
		if err := l.subscriptions.Delete(userID, productID); err != nil {
			return false, err
		}
	} else {
		if err := l.subscriptions.Upsert(userID, productID, quantity); err != nil {
			return false, err
		}
	}

	items, err := l.subscriptionItems(userID)
	if err != nil {
		return false, err
	}
	if _, err := l.deliveries.ReplaceFutureItems(userID, l.Today(), items); err != nil {
		return false, err
	}
	return true, nil
}
