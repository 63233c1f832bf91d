package handlers

import (
	"errors"
	"net/http"

	"safiri-mazao-api/events"
	"safiri-mazao-api/models"
	"safiri-mazao-api/query"
	"safiri-mazao-api/statemachine"
	"safiri-mazao-api/store"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders  store.OrderStore
	machine *statemachine.Machine
	events  *events.Emitter
}

func NewOrderHandler(orders store.OrderStore, machine *statemachine.Machine, emitter *events.Emitter) *OrderHandler {
	if emitter == nil {
		emitter = events.NewEmitter(nil, "")
	}
	return &OrderHandler{orders: orders, machine: machine, events: emitter}
}

// ListOrders returns all orders, optionally narrowed by ?search= and ?status=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	filtered := query.FilterOrders(orders, query.OrderFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	c.JSON(http.StatusOK, gin.H{
		"count":  len(filtered),
		"total":  len(orders),
		"orders": filtered,
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderHandler) TrackOrder(c *gin.Context) {
	order, err := h.orders.GetByTrackNumber(c.Request.Context(), c.Param("trackNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type CreateOrderRequest struct {
	PhoneNumber         string          `json:"phoneNumber" binding:"required,tzphone"`
	Crop                string          `json:"crop" binding:"required"`
	Quantity            int             `json:"quantity" binding:"required,gt=0"`
	PickupLocation      models.Location `json:"pickupLocation"`
	DestinationLocation models.Location `json:"destinationLocation"`
	Notes               string          `json:"notes"`
}

// CreateOrder files an order from an intake channel. New orders are always
// pending with no transporter or price.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.PickupLocation.Name == req.DestinationLocation.Name {
		validationFailed(c, map[string]string{
			"destinationLocation.name": "must differ from pickupLocation.name",
		})
		return
	}

	order, err := h.orders.Create(c.Request.Context(), models.Order{
		PhoneNumber:         req.PhoneNumber,
		Crop:                req.Crop,
		Quantity:            req.Quantity,
		PickupLocation:      req.PickupLocation,
		DestinationLocation: req.DestinationLocation,
		Status:              models.StatusPending,
		Notes:               req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.events.Emit(c.Request.Context(), events.OrderCreated, order.ID, order)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created",
		"order":   order,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,orderstatus"`
}

// UpdateOrderStatus moves an order to a new status under the configured policy
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	var current models.OrderStatus
	change, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status,
		func(from, to models.OrderStatus) error {
			current = from
			return h.machine.CanTransition(from, to)
		})
	if errors.Is(err, statemachine.ErrInvalidTransition) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "Invalid state transition",
			"current_status":    current,
			"requested":         req.Status,
			"reason":            err.Error(),
			"valid_next_states": h.machine.ValidTransitionsFrom(current),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Emit(c.Request.Context(), events.OrderStatusChanged, change.Order.ID, events.StatusChangedPayload{
		OrderID:     change.Order.ID,
		TrackNumber: change.Order.TrackNumber,
		From:        string(change.Previous),
		To:          string(change.Order.Status),
	})

	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status updated",
		"previous_status": change.Previous,
		"current_status":  change.Order.Status,
		"order":           change.Order,
	})
}
