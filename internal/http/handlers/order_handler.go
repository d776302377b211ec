// README: Order handlers for create/get.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"freteiro/internal/modules/order"
	"freteiro/internal/types"
)

// OrderAPI is the slice of the order service the handlers call.
type OrderAPI interface {
	Create(ctx context.Context, cmd order.CreateCommand) (types.ID, error)
	Get(ctx context.Context, id types.ID) (*order.Order, error)
}

type OrderHandler struct {
	orders OrderAPI
}

func NewOrderHandler(orders OrderAPI) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderReq struct {
	Items               []string `json:"items"`
	TotalWeightKg       float64  `json:"total_weight_kg"`
	PickupAddress       string   `json:"pickup_address"`
	DeliveryAddress     string   `json:"delivery_address"`
	PickupLat           *float64 `json:"pickup_lat"`
	PickupLng           *float64 `json:"pickup_lng"`
	DeliveryLat         *float64 `json:"delivery_lat"`
	DeliveryLng         *float64 `json:"delivery_lng"`
	CustomerName        string   `json:"customer_name"`
	VendorName          string   `json:"vendor_name"`
	RequiredVehicleType string   `json:"required_vehicle_type"`
	RequiresCrane       bool     `json:"requires_crane"`
	RequiresDelivery    bool     `json:"requires_delivery"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := order.CreateCommand{
		Items:               req.Items,
		TotalWeightKg:       req.TotalWeightKg,
		PickupAddress:       req.PickupAddress,
		DeliveryAddress:     req.DeliveryAddress,
		CustomerName:        req.CustomerName,
		VendorName:          req.VendorName,
		RequiredVehicleType: req.RequiredVehicleType,
		RequiresCrane:       req.RequiresCrane,
		RequiresDelivery:    req.RequiresDelivery,
	}
	if req.PickupLat != nil && req.PickupLng != nil {
		cmd.Pickup = &types.Point{Lat: *req.PickupLat, Lng: *req.PickupLng}
	}
	if req.DeliveryLat != nil && req.DeliveryLng != nil {
		cmd.Dropoff = &types.Point{Lat: *req.DeliveryLat, Lng: *req.DeliveryLng}
	}

	id, err := h.orders.Create(c.Request.Context(), cmd)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"order_id": id})
}

func (h *OrderHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.orders.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	resp := gin.H{
		"order_id":        o.ID,
		"status":          o.Status,
		"delivery_status": o.DeliveryStatus,
	}
	if o.DeliveryID != nil {
		resp["delivery_id"] = *o.DeliveryID
	}
	writeJSON(c, http.StatusOK, resp)
}
