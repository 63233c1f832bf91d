package handlers

import (
	"net/http"

	"safiri-mazao-api/events"
	"safiri-mazao-api/models"
	"safiri-mazao-api/query"
	"safiri-mazao-api/store"

	"github.com/gin-gonic/gin"
)

type TransporterHandler struct {
	transporters store.TransporterStore
	events       *events.Emitter
}

func NewTransporterHandler(transporters store.TransporterStore, emitter *events.Emitter) *TransporterHandler {
	if emitter == nil {
		emitter = events.NewEmitter(nil, "")
	}
	return &TransporterHandler{transporters: transporters, events: emitter}
}

// CreateTransporterRequest is the registration form. Counters start at zero;
// status, rating and capacity default when omitted.
type CreateTransporterRequest struct {
	Name            string                   `json:"name" binding:"required"`
	Phone           string                   `json:"phone" binding:"required,tzphone"`
	Email           string                   `json:"email" binding:"omitempty,email"`
	NationalID      string                   `json:"nationalId" binding:"required"`
	Rating          string                   `json:"rating"`
	AvatarURL       string                   `json:"avatarUrl"`
	VehicleType     models.VehicleType       `json:"vehicleType" binding:"required,vehicletype"`
	VehicleNumber   string                   `json:"vehicleNumber" binding:"required"`
	Capacity        int                      `json:"capacity" binding:"min=0"`
	Status          models.TransporterStatus `json:"status" binding:"omitempty,transporterstatus"`
	Address         string                   `json:"address"`
	Region          string                   `json:"region" binding:"required"`
	District        string                   `json:"district" binding:"required"`
	LicenseNumber   string                   `json:"licenseNumber"`
	TransportPermit string                   `json:"transportPermit"`
}

func (r CreateTransporterRequest) model() models.Transporter {
	return models.Transporter{
		Name:            r.Name,
		Phone:           r.Phone,
		Email:           r.Email,
		NationalID:      r.NationalID,
		Rating:          r.Rating,
		AvatarURL:       r.AvatarURL,
		VehicleType:     r.VehicleType,
		VehicleNumber:   r.VehicleNumber,
		Capacity:        r.Capacity,
		Status:          r.Status,
		Address:         r.Address,
		Region:          r.Region,
		District:        r.District,
		LicenseNumber:   r.LicenseNumber,
		TransportPermit: r.TransportPermit,
	}
}

// ListTransporters returns all transporters, optionally narrowed by ?search= and ?status=
func (h *TransporterHandler) ListTransporters(c *gin.Context) {
	ts, err := h.transporters.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	filtered := query.FilterTransporters(ts, query.TransporterFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	c.JSON(http.StatusOK, gin.H{
		"count":        len(filtered),
		"total":        len(ts),
		"transporters": filtered,
	})
}

func (h *TransporterHandler) GetTransporter(c *gin.Context) {
	t, err := h.transporters.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transporter": t})
}

func (h *TransporterHandler) CreateTransporter(c *gin.Context) {
	var req CreateTransporterRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.transporters.Create(c.Request.Context(), req.model())
	if err != nil {
		respondError(c, err)
		return
	}
	h.events.Emit(c.Request.Context(), events.TransporterCreated, t.ID, t)
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Transporter registered",
		"transporter": t,
	})
}

// UpdateTransporter applies a partial update; absent fields are left untouched
func (h *TransporterHandler) UpdateTransporter(c *gin.Context) {
	var patch models.TransporterPatch
	if !bindJSON(c, &patch) {
		return
	}
	t, err := h.transporters.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.events.Emit(c.Request.Context(), events.TransporterUpdated, t.ID, t)
	c.JSON(http.StatusOK, gin.H{
		"message":     "Transporter updated",
		"transporter": t,
	})
}

func (h *TransporterHandler) RemoveTransporter(c *gin.Context) {
	t, err := h.transporters.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.events.Emit(c.Request.Context(), events.TransporterRemoved, t.ID, t)
	c.JSON(http.StatusOK, gin.H{
		"message":     "Transporter removed",
		"transporter": t,
	})
}
