package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/voltbill/backend/internal/domain/tariff"
)

// TariffHandler exposes tariff estimation endpoints
type TariffHandler struct {
	BaseHandler
}

// NewTariffHandler creates a new TariffHandler
func NewTariffHandler() *TariffHandler {
	return &TariffHandler{}
}

// RegisterRoutes registers tariff routes on the API group
func (h *TariffHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tariffs/estimate", h.Estimate)
}

// EstimateRequest asks for a what-if bill under a tiered tariff
type EstimateRequest struct {
	ConsumptionKWh      float64 `json:"consumption_kwh" binding:"min=0"`
	ConnectedLoadKW     float64 `json:"connected_load_kw" binding:"min=0"`
	Class               string  `json:"class"`
	PreviousOutstanding float64 `json:"previous_outstanding" binding:"min=0"`
}

// Estimate itemizes a hypothetical bill under the tiered tariff for
// the given class. Nothing is stored; this is a quoting endpoint.
func (h *TariffHandler) Estimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	breakdown := tariff.ComputeTiered(
		decimal.NewFromFloat(req.ConsumptionKWh),
		decimal.NewFromFloat(req.ConnectedLoadKW),
		tariff.TariffClass(req.Class),
		decimal.NewFromFloat(req.PreviousOutstanding),
	)
	h.Success(c, breakdown)
}
