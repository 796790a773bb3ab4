package store

import (
	"testing"

	"github.com/dukerupert/milkrun/internal/database"
	"github.com/dukerupert/milkrun/internal/model"
)

func setupNotificationTestDB(t *testing.T) (*NotificationStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewNotificationStore(db), NewUserStore(db)
}

func TestNotificationVisibility(t *testing.T) {
	ns, us := setupNotificationTestDB(t)

	if _, err := us.Create("user2", "Other Customer", "other@example.com", "", "", model.RoleCustomer, ""); err != nil {
		t.Fatalf("create user: %v", err)
	}

	other := "user2"
	if _, err := ns.Create(&other, "Private", "for user2 only", "2026-08-30", model.NotificationInfo); err != nil {
		t.Fatalf("create targeted notification: %v", err)
	}
	broadcast, err := ns.Create(nil, "Announcement", "holiday schedule", "2026-08-31", model.NotificationInfo)
	if err != nil {
		t.Fatalf("create broadcast: %v", err)
	}

	// user1 sees the two seeded notifications plus the broadcast,
	// but not user2's private one.
	list, err := ns.ListForUser("user1")
	if err != nil {
		t.Fatalf("list for user1: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("user1 sees %d notifications, want 3", len(list))
	}
	for _, n := range list {
		if n.UserID != nil && *n.UserID != "user1" {
			t.Errorf("user1 can see %q addressed to %q", n.Title, *n.UserID)
		}
	}
	// Newest date first.
	if list[0].ID != broadcast.ID {
		t.Errorf("first notification = %s, want the broadcast", list[0].ID)
	}

	list, err = ns.ListForUser("user2")
	if err != nil {
		t.Fatalf("list for user2: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("user2 sees %d notifications, want 2 (private + broadcast)", len(list))
	}
}

func TestNotificationMarkRead(t *testing.T) {
	ns, _ := setupNotificationTestDB(t)

	n, err := ns.GetByID("n1")
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if n.Read {
		t.Fatal("n1 should start unread")
	}

	ok, err := ns.MarkRead("n1")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !ok {
		t.Fatal("expected true for existing notification")
	}

	n, err = ns.GetByID("n1")
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if !n.Read {
		t.Error("n1 should be read")
	}

	ok, err = ns.MarkRead("missing")
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if ok {
		t.Error("expected false for missing notification")
	}
}
