// README: Driver handlers — availability toggle and live-index housekeeping.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"freteiro/internal/http/middleware"
	"freteiro/internal/types"
)

type AvailabilityStore interface {
	SetAvailability(ctx context.Context, driverID types.ID, available bool) error
}

// LiveIndex lets the handler retire a driver from the live position set when
// they go offline.
type LiveIndex interface {
	Remove(ctx context.Context, driverID types.ID) error
}

// PositionMirror removes the driver's externally mirrored position so client
// apps stop rendering a stale marker.
type PositionMirror interface {
	ClearPosition(ctx context.Context, driverID types.ID) error
}

type DriverHandler struct {
	profiles AvailabilityStore
	live     LiveIndex
	mirror   PositionMirror
}

func NewDriverHandler(profiles AvailabilityStore, live LiveIndex, mirror PositionMirror) *DriverHandler {
	return &DriverHandler{profiles: profiles, live: live, mirror: mirror}
}

type availabilityReq struct {
	IsAvailable *bool `json:"is_available"`
}

// SetAvailability flips the calling driver's availability. Going offline
// also drops them from the live geo index and the mirrored position feed so
// nothing keeps showing a stale marker.
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req availabilityReq
	if err := c.ShouldBindJSON(&req); err != nil || req.IsAvailable == nil {
		writeError(c, http.StatusBadRequest, "missing is_available")
		return
	}
	driverID := types.ID(middleware.CallerUID(c))

	if err := h.profiles.SetAvailability(c.Request.Context(), driverID, *req.IsAvailable); err != nil {
		writeProfileError(c, err)
		return
	}
	if !*req.IsAvailable {
		// Best-effort; a stale entry ages out of relevance on its own.
		if h.live != nil {
			_ = h.live.Remove(c.Request.Context(), driverID)
		}
		if h.mirror != nil {
			_ = h.mirror.ClearPosition(c.Request.Context(), driverID)
		}
	}
	writeJSON(c, http.StatusOK, gin.H{"is_available": *req.IsAvailable})
}
