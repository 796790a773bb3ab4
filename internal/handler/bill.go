package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/milkrun/internal/auth"
	"github.com/dukerupert/milkrun/internal/ledger"
	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/push"
	"github.com/dukerupert/milkrun/internal/store"
	"github.com/dukerupert/milkrun/internal/websocket"
)

type BillHandler struct {
	billStore  *store.BillStore
	notifStore *store.NotificationStore
	ledger     *ledger.Ledger
	hub        *websocket.Hub
	notifier   *push.Notifier
	logger     *slog.Logger
}

func NewBillHandler(bs *store.BillStore, ns *store.NotificationStore, l *ledger.Ledger, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *BillHandler {
	return &BillHandler{billStore: bs, notifStore: ns, ledger: l, hub: hub, notifier: notifier, logger: logger}
}

// List returns the caller's bills, or every bill when the caller is an
// admin, newest month first.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		bills []model.Bill
		err   error
	)
	if auth.IsAdmin(r.Context()) {
		bills, err = h.billStore.ListAll()
	} else {
		bills, err = h.billStore.ListByUser(auth.UserID(r.Context()))
	}
	if err != nil {
		h.logger.Error("list bills", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bills")
		return
	}
	if bills == nil {
		bills = []model.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

// Summary reports what the caller currently owes: unpaid bills plus the
// running cost of the current month's delivered days.
func (h *BillHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	summary, err := h.ledger.BillingSummary(userID)
	if err != nil {
		h.logger.Error("billing summary", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type generateBillRequest struct {
	UserID string `json:"user_id"`
	Month  string `json:"month"`
}

// Generate closes out a month for one customer, turning that month's
// delivered days into a pending bill. Admin only. Generating twice for
// the same month returns the existing bill unchanged.
func (h *BillHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	start, err := time.Parse("2006-01", req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	bill, created, err := h.ledger.GenerateBill(req.UserID, req.Month)
	if err != nil {
		h.logger.Error("generate bill", "user_id", req.UserID, "month", req.Month, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate bill")
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, bill)
		return
	}

	message := fmt.Sprintf("Your bill for %s is ready: ₹%s, due %s.", start.Format("January 2006"), bill.Amount.String(), formatDate(bill.DueDate))
	notification, err := h.notifStore.Create(&req.UserID, "Bill Generated", message, h.ledger.Today(), model.NotificationAlert)
	if err != nil {
		h.logger.Error("bill notification", "user_id", req.UserID, "error", err)
	} else {
		h.notifier.Notify(notification)
	}

	h.hub.SendToUser(req.UserID, websocket.NewMessage("bill", "created", bill.ID, nil))
	writeJSON(w, http.StatusCreated, bill)
}

// Pay marks a bill as settled. Admin only; payment collection itself
// happens off-platform.
func (h *BillHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	bill, err := h.billStore.GetByID(id)
	if err != nil {
		h.logger.Error("get bill", "bill_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get bill")
		return
	}
	if bill == nil {
		writeError(w, http.StatusNotFound, "bill not found")
		return
	}
	if bill.Status == model.BillPaid {
		writeError(w, http.StatusConflict, "bill is already paid")
		return
	}

	if _, err := h.billStore.SetStatus(id, model.BillPaid); err != nil {
		h.logger.Error("pay bill", "bill_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update bill")
		return
	}
	bill.Status = model.BillPaid

	message := fmt.Sprintf("Payment of ₹%s received. Thank you!", bill.Amount.String())
	notification, err := h.notifStore.Create(&bill.UserID, "Payment Received", message, h.ledger.Today(), model.NotificationSuccess)
	if err != nil {
		h.logger.Error("payment notification", "user_id", bill.UserID, "error", err)
	} else {
		h.notifier.Notify(notification)
	}

	h.hub.SendToUser(bill.UserID, websocket.NewMessage("bill", "updated", bill.ID, nil))
	writeJSON(w, http.StatusOK, bill)
}
