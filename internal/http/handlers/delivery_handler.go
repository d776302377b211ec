// README: Delivery handlers — visible queue, accept, status updates, history.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"freteiro/internal/http/middleware"
	"freteiro/internal/modules/delivery"
	"freteiro/internal/types"
)

// DeliveryAPI is the slice of the delivery service the handlers call.
type DeliveryAPI interface {
	Get(ctx context.Context, id types.ID) (*delivery.Delivery, error)
	Accept(ctx context.Context, cmd delivery.AcceptCommand) error
	Advance(ctx context.Context, cmd delivery.AdvanceCommand) error
	Cancel(ctx context.Context, cmd delivery.CancelCommand) error
	ActiveByDriver(ctx context.Context, driverID types.ID) (*delivery.Delivery, error)
	HistoryByDriver(ctx context.Context, driverID types.ID, limit int) ([]*delivery.Delivery, error)
}

// Dispatcher produces the driver's visible queue.
type Dispatcher interface {
	VisibleDeliveries(ctx context.Context, driverID types.ID) ([]*delivery.Delivery, error)
}

type DeliveryHandler struct {
	deliveries DeliveryAPI
	dispatcher Dispatcher
}

func NewDeliveryHandler(deliveries DeliveryAPI, dispatcher Dispatcher) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries, dispatcher: dispatcher}
}

type deliveryResponse struct {
	ID                  string     `json:"id"`
	OrderID             string     `json:"order_id"`
	Status              string     `json:"status"`
	DriverID            *string    `json:"driver_id,omitempty"`
	VehicleID           *string    `json:"vehicle_id,omitempty"`
	PickupAddress       string     `json:"pickup_address"`
	DeliveryAddress     string     `json:"delivery_address"`
	PickupLat           *float64   `json:"pickup_lat,omitempty"`
	PickupLng           *float64   `json:"pickup_lng,omitempty"`
	DeliveryLat         *float64   `json:"delivery_lat,omitempty"`
	DeliveryLng         *float64   `json:"delivery_lng,omitempty"`
	CustomerName        string     `json:"customer_name,omitempty"`
	VendorName          string     `json:"vendor_name,omitempty"`
	RequiredVehicleType string     `json:"required_vehicle_type,omitempty"`
	RequiresCrane       bool       `json:"requires_crane"`
	TotalWeightKg       float64    `json:"total_weight_kg,omitempty"`
	Materials           []string   `json:"materials,omitempty"`
	PickupTime          *time.Time `json:"pickup_time,omitempty"`
	DeliveryTime        *time.Time `json:"delivery_time,omitempty"`
	DriverLat           *float64   `json:"driver_lat,omitempty"`
	DriverLng           *float64   `json:"driver_lng,omitempty"`
}

func toDeliveryResponse(d *delivery.Delivery) deliveryResponse {
	resp := deliveryResponse{
		ID:                  string(d.ID),
		OrderID:             string(d.OrderID),
		Status:              string(d.Status),
		PickupAddress:       d.PickupAddress,
		DeliveryAddress:     d.DeliveryAddress,
		CustomerName:        d.CustomerName,
		VendorName:          d.VendorName,
		RequiredVehicleType: d.RequiredVehicleType,
		RequiresCrane:       d.RequiresCrane,
		TotalWeightKg:       d.TotalWeightKg,
		Materials:           d.Materials,
		PickupTime:          d.PickupTime,
		DeliveryTime:        d.DeliveryTime,
	}
	if d.DriverID != nil {
		v := string(*d.DriverID)
		resp.DriverID = &v
	}
	if d.VehicleID != nil {
		v := string(*d.VehicleID)
		resp.VehicleID = &v
	}
	if d.Pickup != nil {
		resp.PickupLat, resp.PickupLng = &d.Pickup.Lat, &d.Pickup.Lng
	}
	if d.Dropoff != nil {
		resp.DeliveryLat, resp.DeliveryLng = &d.Dropoff.Lat, &d.Dropoff.Lng
	}
	if d.DriverLocation != nil {
		resp.DriverLat, resp.DriverLng = &d.DriverLocation.Lat, &d.DriverLocation.Lng
	}
	return resp
}

// Queue returns the deliveries the calling driver may accept right now.
func (h *DeliveryHandler) Queue(c *gin.Context) {
	driverID := types.ID(middleware.CallerUID(c))
	list, err := h.dispatcher.VisibleDeliveries(c.Request.Context(), driverID)
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	out := make([]deliveryResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDeliveryResponse(d))
	}
	writeJSON(c, http.StatusOK, gin.H{"deliveries": out})
}

func (h *DeliveryHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid delivery id")
		return
	}
	d, err := h.deliveries.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toDeliveryResponse(d))
}

type acceptReq struct {
	VehicleID string `json:"vehicle_id"`
}

func (h *DeliveryHandler) Accept(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid delivery id")
		return
	}
	var req acceptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.VehicleID == "" {
		writeError(c, http.StatusBadRequest, "missing vehicle_id")
		return
	}

	err := h.deliveries.Accept(c.Request.Context(), delivery.AcceptCommand{
		DeliveryID: types.ID(id),
		DriverID:   types.ID(middleware.CallerUID(c)),
		VehicleID:  types.ID(req.VehicleID),
	})
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": delivery.StatusAccepted})
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus applies a forward transition, or a cancellation when the
// target status is cancelled. The acting driver must hold the delivery.
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid delivery id")
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	next := delivery.Status(req.Status)
	if !delivery.Valid(next) {
		writeError(c, http.StatusBadRequest, "unknown status")
		return
	}

	var err error
	if next == delivery.StatusCancelled {
		err = h.deliveries.Cancel(c.Request.Context(), delivery.CancelCommand{
			DeliveryID: types.ID(id),
			DriverID:   types.ID(middleware.CallerUID(c)),
		})
	} else {
		err = h.deliveries.Advance(c.Request.Context(), delivery.AdvanceCommand{
			DeliveryID: types.ID(id),
			DriverID:   types.ID(middleware.CallerUID(c)),
			Next:       next,
		})
	}
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": next})
}

// Active returns the calling driver's in-flight delivery, if any.
func (h *DeliveryHandler) Active(c *gin.Context) {
	driverID := types.ID(middleware.CallerUID(c))
	d, err := h.deliveries.ActiveByDriver(c.Request.Context(), driverID)
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toDeliveryResponse(d))
}

// History returns the calling driver's finished deliveries, newest first.
func (h *DeliveryHandler) History(c *gin.Context) {
	driverID := types.ID(middleware.CallerUID(c))
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	list, err := h.deliveries.HistoryByDriver(c.Request.Context(), driverID, limit)
	if err != nil {
		writeDeliveryError(c, err)
		return
	}
	out := make([]deliveryResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDeliveryResponse(d))
	}
	writeJSON(c, http.StatusOK, gin.H{"deliveries": out})
}
