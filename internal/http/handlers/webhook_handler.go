// README: Webhook handler for trusted marketplace automation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freteiro/internal/modules/delivery"
	"freteiro/internal/types"
)

// WebhookHandler processes transport actions pushed by the marketplace
// backend. Calls are authenticated by shared secret (see
// middleware.WebhookAuth) and act as trusted automation: status updates skip
// the driver-assignment check. Both actions are idempotent under
// re-delivery, so the marketplace retries freely.
type WebhookHandler struct {
	deliveries DeliveryAPI
}

func NewWebhookHandler(deliveries DeliveryAPI) *WebhookHandler {
	return &WebhookHandler{deliveries: deliveries}
}

type transportActionReq struct {
	Action     string `json:"action"`
	DeliveryID string `json:"delivery_id"`
	DriverID   string `json:"driver_id"`
	VehicleID  string `json:"vehicle_id"`
	Status     string `json:"status"`
}

func (h *WebhookHandler) TransportAction(c *gin.Context) {
	var req transportActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !isValidID(req.DeliveryID) {
		writeError(c, http.StatusBadRequest, "invalid delivery_id")
		return
	}

	switch req.Action {
	case "accept_delivery":
		err := h.deliveries.Accept(c.Request.Context(), delivery.AcceptCommand{
			DeliveryID: types.ID(req.DeliveryID),
			DriverID:   types.ID(req.DriverID),
			VehicleID:  types.ID(req.VehicleID),
		})
		if err != nil {
			writeDeliveryError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, gin.H{"status": delivery.StatusAccepted})

	case "update_delivery_status":
		next := delivery.Status(req.Status)
		if !delivery.Valid(next) {
			writeError(c, http.StatusBadRequest, "unknown status")
			return
		}
		var err error
		if next == delivery.StatusCancelled {
			err = h.deliveries.Cancel(c.Request.Context(), delivery.CancelCommand{DeliveryID: types.ID(req.DeliveryID)})
		} else {
			err = h.deliveries.Advance(c.Request.Context(), delivery.AdvanceCommand{
				DeliveryID: types.ID(req.DeliveryID),
				Next:       next,
			})
		}
		if err != nil {
			writeDeliveryError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, gin.H{"status": next})

	default:
		writeError(c, http.StatusBadRequest, "unknown action")
	}
}
