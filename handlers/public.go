package handlers

import (
	"net/http"

	"safiri-mazao-api/statemachine"

	"github.com/gin-gonic/gin"
)

// MetaHandler serves the unauthenticated service information endpoints
type MetaHandler struct {
	service        string
	machine        *statemachine.Machine
	reportsBaseURL string
}

func NewMetaHandler(service string, machine *statemachine.Machine, reportsBaseURL string) *MetaHandler {
	return &MetaHandler{service: service, machine: machine, reportsBaseURL: reportsBaseURL}
}

func (h *MetaHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
		"version": "1.0.0",
	})
}

func (h *MetaHandler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "🚚 Karibu Safiri Mazao crop transport API",
		"docs":    "/api/state-machine",
		"health":  "/health",
		"reports": h.reportsBaseURL + "/reports",
	})
}

// GetStateMachineInfo returns the active status policy and its transitions
func (h *MetaHandler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"policy":          h.machine.Policy(),
		"state_machine":   h.machine.Transitions(),
		"terminal_states": h.machine.TerminalStates(),
		"description":     "Crop Transport Order Lifecycle State Machine",
	})
}
