package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/milkrun/internal/auth"
	"github.com/dukerupert/milkrun/internal/ledger"
	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/push"
	"github.com/dukerupert/milkrun/internal/store"
	"github.com/dukerupert/milkrun/internal/websocket"
)

type SubscriptionHandler struct {
	subStore     *store.SubscriptionStore
	productStore *store.ProductStore
	notifStore   *store.NotificationStore
	ledger       *ledger.Ledger
	hub          *websocket.Hub
	notifier     *push.Notifier
	logger       *slog.Logger
}

func NewSubscriptionHandler(ss *store.SubscriptionStore, ps *store.ProductStore, ns *store.NotificationStore, l *ledger.Ledger, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subStore:     ss,
		productStore: ps,
		notifStore:   ns,
		ledger:       l,
		hub:          hub,
		notifier:     notifier,
		logger:       logger,
	}
}

type subscriptionListResponse struct {
	Subscriptions []ledger.EnrichedSubscription `json:"subscriptions"`
	MonthlyTotal  string                        `json:"monthly_total"`
}

// List returns the caller's subscriptions joined with product details,
// plus the projected cost of a full month at the current daily rate.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	subs, err := h.subStore.ListByUser(userID)
	if err != nil {
		h.logger.Error("list subscriptions", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	products, err := h.productStore.MapByID()
	if err != nil {
		h.logger.Error("load products", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	enriched, monthly := ledger.EnrichSubscriptions(subs, products)
	if enriched == nil {
		enriched = []ledger.EnrichedSubscription{}
	}
	writeJSON(w, http.StatusOK, subscriptionListResponse{
		Subscriptions: enriched,
		MonthlyTotal:  monthly.String(),
	})
}

type subscriptionRequest struct {
	Quantity int `json:"quantity"`
}

// Update sets the caller's quantity for one product. Zero removes the
// subscription. Future pending days are re-stamped before the response
// is written, so a calendar fetch immediately after sees the change.
func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	productID := r.PathValue("product_id")

	product, err := h.productStore.GetByID(productID)
	if err != nil {
		h.logger.Error("get product", "product_id", productID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity cannot be negative")
		return
	}

	if _, err := h.ledger.UpdateSubscription(userID, productID, req.Quantity); err != nil {
		h.logger.Error("update subscription", "user_id", userID, "product_id", productID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update subscription")
		return
	}

	var message string
	if req.Quantity == 0 {
		message = fmt.Sprintf("Your %s subscription has been cancelled.", product.Name)
	} else {
		message = fmt.Sprintf("Your %s subscription is now %d × %s daily.", product.Name, req.Quantity, product.Unit)
	}
	notification, err := h.notifStore.Create(&userID, "Subscription Updated", message, h.ledger.Today(), model.NotificationSuccess)
	if err != nil {
		h.logger.Error("subscription notification", "user_id", userID, "error", err)
	} else {
		h.notifier.Notify(notification)
	}

	h.hub.SendToUser(userID, websocket.NewMessage("subscription", "updated", productID, nil))

	subs, err := h.subStore.ListByUser(userID)
	if err != nil {
		h.logger.Error("list subscriptions", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}
