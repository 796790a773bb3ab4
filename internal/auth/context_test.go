package auth

import (
	"context"
	"testing"
)

func TestWithAuthRoundTrip(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: "user1", Role: "user", SessionID: 7})

	ac, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context")
	}
	if ac.UserID != "user1" || ac.Role != "user" || ac.SessionID != 7 {
		t.Errorf("auth context = %+v", ac)
	}
}

func TestEmptyContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no auth context")
	}
	if UserID(context.Background()) != "" {
		t.Error("expected empty user id")
	}
	if IsAdmin(context.Background()) {
		t.Error("expected not admin")
	}
}

func TestIsAdmin(t *testing.T) {
	admin := WithAuth(context.Background(), AuthContext{UserID: "admin1", Role: "admin"})
	if !IsAdmin(admin) {
		t.Error("admin role should report admin")
	}
	customer := WithAuth(context.Background(), AuthContext{UserID: "user1", Role: "user"})
	if IsAdmin(customer) {
		t.Error("customer role should not report admin")
	}
}
