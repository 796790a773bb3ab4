package store

import (
	"testing"

	"github.com/dukerupert/milkrun/internal/database"
)

func setupPushTestDB(t *testing.T) *PushStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db)
}

func TestPushSubscriptionUpsertOnEndpoint(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, err := ps.CreateSubscription("user1", "https://push.example/ep1", "p256dh-key", "auth-key", "Phone")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.UserID != "user1" || sub.DeviceName != "Phone" {
		t.Errorf("subscription = %+v", sub)
	}

	// Re-registering the same endpoint replaces, not duplicates.
	again, err := ps.CreateSubscription("admin1", "https://push.example/ep1", "new-key", "new-auth", "Tablet")
	if err != nil {
		t.Fatalf("re-create subscription: %v", err)
	}
	if again.UserID != "admin1" {
		t.Errorf("endpoint not reassigned: %+v", again)
	}

	all, err := ps.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 subscription, got %d", len(all))
	}
}

func TestPushSubscriptionDeleteOwnership(t *testing.T) {
	ps := setupPushTestDB(t)

	sub, err := ps.CreateSubscription("user1", "https://push.example/ep2", "k", "a", "")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	// Another user cannot delete it.
	ok, err := ps.Delete(sub.ID, "admin1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok {
		t.Error("expected false when deleting another user's subscription")
	}

	ok, err = ps.Delete(sub.ID, "user1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Error("expected true for owner delete")
	}

	subs, err := ps.ListByUser("user1")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected no subscriptions, got %d", len(subs))
	}
}
