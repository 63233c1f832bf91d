package handlers

import (
	"net/http"

	"safiri-mazao-api/events"
	"safiri-mazao-api/models"
	"safiri-mazao-api/store"

	"github.com/gin-gonic/gin"
)

// CargoHandler serves the partner cargo-request API
type CargoHandler struct {
	requests store.CargoStore
	events   *events.Emitter
}

func NewCargoHandler(requests store.CargoStore, emitter *events.Emitter) *CargoHandler {
	if emitter == nil {
		emitter = events.NewEmitter(nil, "")
	}
	return &CargoHandler{requests: requests, events: emitter}
}

func (h *CargoHandler) CreateRequest(c *gin.Context) {
	var req models.CargoRequest
	if !bindJSON(c, &req) {
		return
	}
	// callbacks own this field
	req.UpdatedAt = ""
	created, err := h.requests.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.events.Emit(c.Request.Context(), events.CargoRequestCreated, created.ID, created)
	c.JSON(http.StatusCreated, created)
}

func (h *CargoHandler) GetRequest(c *gin.Context) {
	req, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Callback records a partner status update on a cargo request
func (h *CargoHandler) Callback(c *gin.Context) {
	var cb models.CargoCallback
	if !bindJSON(c, &cb) {
		return
	}
	updated, err := h.requests.ApplyCallback(c.Request.Context(), cb)
	if err != nil {
		respondError(c, err)
		return
	}
	h.events.Emit(c.Request.Context(), events.CargoRequestCallback, updated.ID, cb)
	c.JSON(http.StatusOK, gin.H{
		"message":       "Status updated",
		"cargo_request": updated,
	})
}
