package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/milkrun/internal/ledger"
	"github.com/dukerupert/milkrun/internal/model"
	"github.com/dukerupert/milkrun/internal/store"
)

type AdminHandler struct {
	userStore *store.UserStore
	billStore *store.BillStore
	logger    *slog.Logger
}

func NewAdminHandler(us *store.UserStore, bs *store.BillStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{userStore: us, billStore: bs, logger: logger}
}

// Stats rolls up revenue and customer counts for the admin dashboard.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	bills, err := h.billStore.ListAll()
	if err != nil {
		h.logger.Error("list bills", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load bills")
		return
	}
	users, err := h.userStore.List()
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	writeJSON(w, http.StatusOK, ledger.ComputeStats(bills, users))
}

// Users lists every customer account.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.ListByRole(model.RoleCustomer)
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
