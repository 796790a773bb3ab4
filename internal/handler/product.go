package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/push"
	"github.com/dukerupert/milkrun/internal/store"
	"github.com/dukerupert/milkrun/internal/websocket"
)

type ProductHandler struct {
	productStore *store.ProductStore
	notifStore   *store.NotificationStore
	hub          *websocket.Hub
	notifier     *push.Notifier
	logger       *slog.Logger
}

func NewProductHandler(ps *store.ProductStore, ns *store.NotificationStore, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{productStore: ps, notifStore: ns, hub: hub, notifier: notifier, logger: logger}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.List()
	if err != nil {
		h.logger.Error("list products", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

type productRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

func validCategory(c string) bool {
	switch c {
	case model.CategoryMilk, model.CategoryCurd, model.CategoryGhee, model.CategoryPaneer, model.CategoryOther:
		return true
	}
	return false
}

// Create adds a product to the catalog. Admin only.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validCategory(req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	if !req.Price.IsPositive() {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	product, err := h.productStore.Create(uuid.NewString(), req.Name, req.Category, req.Price, req.Unit, req.Image, req.Description)
	if err != nil {
		h.logger.Error("create product", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.hub.Broadcast(websocket.NewMessage("product", "created", product.ID, nil))
	writeJSON(w, http.StatusCreated, product)
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// UpdatePrice changes a product's price and tells every customer via a
// broadcast notification. Admin only.
func (h *ProductHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.productStore.GetByID(id)
	if err != nil {
		h.logger.Error("get product", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Price.IsPositive() {
		writeError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	product, err := h.productStore.UpdatePrice(id, req.Price)
	if err != nil {
		h.logger.Error("update price", "product_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update price")
		return
	}

	message := fmt.Sprintf("%s is now ₹%s per %s.", product.Name, product.Price.String(), product.Unit)
	notification, err := h.notifStore.Create(nil, "Price Update", message, today(), model.NotificationInfo)
	if err != nil {
		h.logger.Error("price notification", "error", err)
	} else {
		h.notifier.Notify(notification)
	}

	h.hub.Broadcast(websocket.NewMessage("product", "updated", product.ID, nil))
	writeJSON(w, http.StatusOK, product)
}
