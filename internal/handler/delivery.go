package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/milkrun/internal/auth"
	"github.com/dukerupert/milkrun/internal/ledger"
	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/push"
	"github.com/dukerupert/milkrun/internal/store"
	"github.com/dukerupert/milkrun/internal/websocket"
)

type DeliveryHandler struct {
	notifStore *store.NotificationStore
	ledger     *ledger.Ledger
	hub        *websocket.Hub
	notifier   *push.Notifier
	logger     *slog.Logger
}

func NewDeliveryHandler(ns *store.NotificationStore, l *ledger.Ledger, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *DeliveryHandler {
	return &DeliveryHandler{notifStore: ns, ledger: l, hub: hub, notifier: notifier, logger: logger}
}

// Calendar returns the caller's delivery days for one month, generating
// them on first access. Admins can pass user_id to view another user's
// calendar; for customers the parameter is ignored.
func (h *DeliveryHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if auth.IsAdmin(r.Context()) {
		if other := r.URL.Query().Get("user_id"); other != "" {
			userID = other
		}
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	monthNum, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	days, err := h.ledger.Materialize(userID, year, time.Month(monthNum))
	if err != nil {
		h.logger.Error("materialize month", "user_id", userID, "year", year, "month", monthNum, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load deliveries")
		return
	}
	if days == nil {
		days = []model.DeliveryDay{}
	}
	writeJSON(w, http.StatusOK, days)
}

type statusRequest struct {
	Status model.DeliveryStatus `json:"status"`
}

// UpdateStatus toggles one of the caller's days between pending and
// skipped. Skipping tomorrow's delivery gets a confirmation notification
// so the customer knows the order went through before cutoff.
func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	date := r.PathValue("date")

	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Status != model.DeliveryPending && req.Status != model.DeliverySkipped {
		writeError(w, http.StatusBadRequest, "status must be pending or skipped")
		return
	}

	ok, err := h.ledger.UpdateDeliveryStatus(userID, date, req.Status)
	if err != nil {
		h.logger.Error("update delivery status", "user_id", userID, "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update delivery")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "delivery cannot be changed")
		return
	}

	if req.Status == model.DeliverySkipped && date == h.ledger.Tomorrow() {
		message := fmt.Sprintf("Your delivery for %s has been skipped.", formatDate(date))
		notification, err := h.notifStore.Create(&userID, "Delivery Skipped", message, h.ledger.Today(), model.NotificationInfo)
		if err != nil {
			h.logger.Error("skip notification", "user_id", userID, "error", err)
		} else {
			h.notifier.Notify(notification)
		}
	}

	h.hub.SendToUser(userID, websocket.NewMessage("delivery", "updated", date, map[string]any{"status": string(req.Status)}))
	writeJSON(w, http.StatusOK, map[string]string{"date": date, "status": string(req.Status)})
}

type deliveredRequest struct {
	UserID string `json:"user_id"`
}

// MarkDelivered records fulfillment of a customer's pending day. Admin
// only, and only for today or earlier.
func (h *DeliveryHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")

	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	var req deliveredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	ok, err := h.ledger.MarkDelivered(req.UserID, date)
	if err != nil {
		h.logger.Error("mark delivered", "user_id", req.UserID, "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mark delivered")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "delivery cannot be marked delivered")
		return
	}

	h.hub.SendToUser(req.UserID, websocket.NewMessage("delivery", "updated", date, map[string]any{"status": string(model.DeliveryDelivered)}))
	writeJSON(w, http.StatusOK, map[string]string{"date": date, "status": string(model.DeliveryDelivered)})
}

// formatDate turns an ISO day into a reader-friendly form for
// notification text, falling back to the raw string on parse failure.
func formatDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}
