package handler

import (
	"github.com/gin-gonic/gin"

	"ridehail/internal/realtime"
)

// WSHandler upgrades realtime connections.
type WSHandler struct {
	hub *realtime.Hub
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve handles GET /v1/ws
func (h *WSHandler) Serve(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
