package store

import (
	"testing"

	"github.com/dukerupert/milkrun/internal/database"
)

func setupSubscriptionTestDB(t *testing.T) *SubscriptionStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionStore(db)
}

func TestSubscriptionSeedData(t *testing.T) {
	ss := setupSubscriptionTestDB(t)

	subs, err := ss.ListByUser("user1")
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 seed subscription, got %d", len(subs))
	}
	if subs[0].ProductID != "p1" || subs[0].Quantity != 1 {
		t.Errorf("seed subscription = %+v, want p1 x1", subs[0])
	}
}

func TestSubscriptionUpsert(t *testing.T) {
	ss := setupSubscriptionTestDB(t)

	if err := ss.Upsert("user1", "p2", 2); err != nil {
		t.Fatalf("upsert new: %v", err)
	}
	if err := ss.Upsert("user1", "p2", 5); err != nil {
		t.Fatalf("upsert existing: %v", err)
	}

	sub, err := ss.Get("user1", "p2")
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if sub == nil || sub.Quantity != 5 {
		t.Fatalf("quantity = %+v, want 5", sub)
	}

	subs, err := ss.ListByUser("user1")
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("expected 2 subscriptions, got %d", len(subs))
	}
}

func TestSubscriptionDelete(t *testing.T) {
	ss := setupSubscriptionTestDB(t)

	if err := ss.Delete("user1", "p1"); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}

	sub, err := ss.Get("user1", "p1")
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if sub != nil {
		t.Errorf("expected nil after delete, got %+v", sub)
	}

	// Deleting a missing row is not an error.
	if err := ss.Delete("user1", "p1"); err != nil {
		t.Fatalf("delete missing subscription: %v", err)
	}
}
