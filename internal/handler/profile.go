package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/milkrun/internal/auth"
	"github.com/dukerupert/milkrun/internal/store"
	"github.com/dukerupert/milkrun/internal/websocket"
)

type ProfileHandler struct {
	userStore *store.UserStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewProfileHandler(us *store.UserStore, hub *websocket.Hub, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{userStore: us, hub: hub, logger: logger}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	user, err := h.userStore.GetByID(userID)
	if err != nil {
		h.logger.Error("get profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type profileRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Avatar  string `json:"avatar"`
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	user, err := h.userStore.UpdateProfile(userID, req.Name, req.Email, req.Phone, req.Address, req.Avatar)
	if err != nil {
		h.logger.Error("update profile", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	h.hub.SendToUser(userID, websocket.NewMessage("profile", "updated", userID, nil))
	writeJSON(w, http.StatusOK, user)
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// SetPIN stores a bcrypt hash of a short numeric PIN, used to re-confirm
// identity on shared doorstep tablets.
func (h *ProfileHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.PIN) < 4 || len(req.PIN) > 8 || !isDigits(req.PIN) {
		writeError(w, http.StatusBadRequest, "PIN must be 4-8 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}
	if err := h.userStore.SetPINHash(userID, string(hash)); err != nil {
		h.logger.Error("set pin", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_pin": true})
}

func (h *ProfileHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.userStore.GetPINHash(userID)
	if err != nil {
		h.logger.Error("get pin hash", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify PIN")
		return
	}
	if hash == "" {
		writeError(w, http.StatusBadRequest, "no PIN set")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *ProfileHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.userStore.ClearPIN(userID); err != nil {
		h.logger.Error("clear pin", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_pin": false})
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
