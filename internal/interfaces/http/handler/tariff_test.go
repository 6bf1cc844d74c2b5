package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTariffEstimateEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.request(t, http.MethodPost, "/api/v1/tariffs/estimate", gin.H{
		"consumption_kwh":   250,
		"connected_load_kw": 5,
		"class":             "residential",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	assert.Equal(t, "TARIFF_RES_001", data["tariff_id"])
	assert.Equal(t, "INR", data["currency"])

	tiers, ok := data["tier_breakdown"].([]any)
	require.True(t, ok)
	// 250 kWh spans the first two residential slabs.
	assert.Len(t, tiers, 2)
}

func TestTariffEstimateEndpointRejectsNegativeConsumption(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.request(t, http.MethodPost, "/api/v1/tariffs/estimate", gin.H{
		"consumption_kwh": -10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
