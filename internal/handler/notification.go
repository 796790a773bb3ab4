package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/milkrun/internal/auth"
	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/store"
)

type NotificationHandler struct {
	notifStore *store.NotificationStore
	logger     *slog.Logger
}

func NewNotificationHandler(ns *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifStore: ns, logger: logger}
}

// List returns broadcasts plus the caller's own notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	notifications, err := h.notifStore.ListForUser(userID)
	if err != nil {
		h.logger.Error("list notifications", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

// MarkRead flags one notification as seen. Broadcasts can be marked by
// anyone; targeted notifications only by their owner.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id := r.PathValue("id")

	notification, err := h.notifStore.GetByID(id)
	if err != nil {
		h.logger.Error("get notification", "notification_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get notification")
		return
	}
	if notification == nil {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	if notification.UserID != nil && *notification.UserID != userID {
		writeError(w, http.StatusForbidden, "not your notification")
		return
	}

	if _, err := h.notifStore.MarkRead(id); err != nil {
		h.logger.Error("mark notification read", "notification_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	notification.Read = true
	writeJSON(w, http.StatusOK, notification)
}
