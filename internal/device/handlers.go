package device

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/foodgrid/backend-pos/internal/app"
	"github.com/foodgrid/backend-pos/internal/common"
)

// Handler exposes device registration.
type Handler struct {
	Repo     Repo
	Signer   app.DeviceTokenSigner
	Validate *validator.Validate
}

// NewHandler builds the device HTTP handler.
func NewHandler(repo Repo, signer app.DeviceTokenSigner) *Handler {
	return &Handler{Repo: repo, Signer: signer, Validate: validator.New()}
}

type registerPayload struct {
	OutletID   string `json:"outletId" validate:"required"`
	DeviceName string `json:"deviceName" validate:"required,max=100"`
	StaffPIN   string `json:"staffPin" validate:"required,min=4,max=12"`
}

// Register handles POST /devices/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request payload", nil)
		return
	}

	hash, err := h.Repo.StaffPINHash(r.Context(), payload.OutletID)
	if errors.Is(err, ErrOutletNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "outlet not found", nil)
		return
	}
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}

	match, err := app.VerifyStaffPIN(payload.StaffPIN, hash)
	if err != nil || !match {
		common.JSONError(w, http.StatusUnauthorized, "INVALID_PIN", "staff pin is incorrect", nil)
		return
	}

	deviceID := uuid.NewString()
	token, err := h.Signer.Sign(deviceID, payload.OutletID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
		return
	}
	common.JSONData(w, http.StatusCreated, map[string]any{
		"deviceId":   deviceID,
		"deviceName": payload.DeviceName,
		"outletId":   payload.OutletID,
		"token":      token,
	})
}
