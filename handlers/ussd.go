package handlers

import (
	"log"
	"net/http"

	"safiri-mazao-api/ussd"

	"github.com/gin-gonic/gin"
)

type USSDHandler struct {
	menu *ussd.Menu
}

func NewUSSDHandler(menu *ussd.Menu) *USSDHandler {
	return &USSDHandler{menu: menu}
}

// Callback answers the USSD gateway. Parameters arrive as form or query values.
func (h *USSDHandler) Callback(c *gin.Context) {
	req := ussd.Request{
		SessionID:   c.Request.FormValue("sessionId"),
		ServiceCode: c.Request.FormValue("serviceCode"),
		PhoneNumber: c.Request.FormValue("phoneNumber"),
		Text:        c.Request.FormValue("text"),
	}
	log.Printf("📱 USSD session=%s phone=%s text=%q", req.SessionID, req.PhoneNumber, req.Text)
	c.String(http.StatusOK, h.menu.Respond(c.Request.Context(), req))
}
