package handlers

import (
	"net/http"

	"safiri-mazao-api/reports"
	"safiri-mazao-api/store"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	orders       store.OrderStore
	transporters store.TransporterStore
}

func NewReportHandler(orders store.OrderStore, transporters store.TransporterStore) *ReportHandler {
	return &ReportHandler{orders: orders, transporters: transporters}
}

func (h *ReportHandler) OrdersSummary(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports.Summary(orders))
}

func (h *ReportHandler) OrdersOverTime(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports.OverTime(orders))
}

// Dashboard returns the headline figures shown on the console home page
func (h *ReportHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	orders, err := h.orders.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	ts, err := h.transporters.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports.Dashboard(orders, ts))
}
