// README: Location handlers — position sample intake and live nearby lookup.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"freteiro/internal/http/middleware"
	"freteiro/internal/modules/location"
	"freteiro/internal/types"
)

// SampleSink is the publisher's intake. Offer never blocks.
type SampleSink interface {
	Offer(s location.Sample)
}

// NearbyIndex answers "which live drivers are close to this point".
type NearbyIndex interface {
	Nearby(ctx context.Context, origin types.Point, radiusKm float64, limit int) ([]location.NearbyDriver, error)
}

type LocationHandler struct {
	publisher SampleSink
	index     NearbyIndex
}

func NewLocationHandler(publisher SampleSink, index NearbyIndex) *LocationHandler {
	return &LocationHandler{publisher: publisher, index: index}
}

type locationReq struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Update queues a position sample. Always 202: the publisher throttles and
// writes in the background, and devices just keep streaming.
func (h *LocationHandler) Update(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Lat == nil || req.Lng == nil {
		writeError(c, http.StatusBadRequest, "missing lat/lng")
		return
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}

	h.publisher.Offer(location.Sample{
		DriverID: types.ID(middleware.CallerUID(c)),
		Position: types.Point{Lat: *req.Lat, Lng: *req.Lng},
	})
	c.Status(http.StatusAccepted)
}

type nearbyDriverResponse struct {
	DriverID   string  `json:"driver_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"distance_km"`
}

// Nearby lists live drivers around a point, closest first. The marketplace
// uses it to show transporter coverage near a pickup before placing an
// order.
func (h *LocationHandler) Nearby(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		writeError(c, http.StatusBadRequest, "missing or invalid lat/lng")
		return
	}
	radiusKm := 10.0
	if v := c.Query("radius_km"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 200 {
			radiusKm = f
		}
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	drivers, err := h.index.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radiusKm, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]nearbyDriverResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, nearbyDriverResponse{
			DriverID:   string(d.DriverID),
			Lat:        d.Position.Lat,
			Lng:        d.Position.Lng,
			DistanceKm: d.DistanceKm,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"drivers": out})
}
