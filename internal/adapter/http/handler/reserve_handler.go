package handler

import (
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReserveHandler exposes the reserve ratio snapshot.
type ReserveHandler struct {
	monitor ports.ReserveMonitor
}

// NewReserveHandler creates a new ReserveHandler.
func NewReserveHandler(monitor ports.ReserveMonitor) *ReserveHandler {
	return &ReserveHandler{monitor: monitor}
}

// Get handles GET /api/v1/reserve.
func (h *ReserveHandler) Get(c *gin.Context) {
	status, err := h.monitor.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, status)
}
