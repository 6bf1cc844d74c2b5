package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltbill/backend/internal/infrastructure/persistence"
	"github.com/voltbill/backend/internal/infrastructure/persistence/models"
)

func (h *apiHarness) seedMeter(t *testing.T, unitID uuid.UUID, serial string) int64 {
	t.Helper()
	meter := models.MeterModel{
		SerialNumber: serial,
		UnitID:       unitID,
		Status:       "active",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, h.db.Create(&meter).Error)
	return meter.ID
}

func TestCreateReadingEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	meterID := h.seedMeter(t, h.seedUnit(t, "B17-FF"), "MTR-1001")

	rec := h.request(t, http.MethodPost, "/api/v1/readings", gin.H{
		"meter_id":     meterID,
		"value":        1200.5,
		"reading_date": "2026-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeData(t, rec)
	assert.Equal(t, "1200.50", first["value"])
	assert.Equal(t, "0.00", first["consumption"])

	rec = h.request(t, http.MethodPost, "/api/v1/readings", gin.H{
		"meter_id":     meterID,
		"value":        1320.5,
		"reading_date": "2026-04-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decodeData(t, rec)
	assert.Equal(t, "120.00", second["consumption"])

	validation, ok := second["validation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, validation["valid"])
}

func TestCreateReadingEndpointRejectsBadDate(t *testing.T) {
	h := newAPIHarness(t)
	meterID := h.seedMeter(t, h.seedUnit(t, "B17-FF"), "MTR-1001")

	rec := h.request(t, http.MethodPost, "/api/v1/readings", gin.H{
		"meter_id":     meterID,
		"value":        10,
		"reading_date": "01-03-2026",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRecentReadingsEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	meterID := h.seedMeter(t, h.seedUnit(t, "B17-FF"), "MTR-1001")

	dates := []string{"2026-01-01", "2026-02-01", "2026-03-01"}
	for i, d := range dates {
		rec := h.request(t, http.MethodPost, "/api/v1/readings", gin.H{
			"meter_id":     meterID,
			"value":        1000 + i*100,
			"reading_date": d,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := h.request(t, http.MethodGet, fmt.Sprintf("/api/v1/meters/%d/readings", meterID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []struct {
			ReadingDate string `json:"reading_date"`
			Value       string `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 3)
	// Newest first.
	assert.Equal(t, "2026-03-01", envelope.Data[0].ReadingDate)
	assert.Equal(t, "1200.00", envelope.Data[0].Value)
}

func TestListUnbilledReadingsEndpoint(t *testing.T) {
	h := newAPIHarness(t)
	meterID := h.seedMeter(t, h.seedUnit(t, "B17-FF"), "MTR-1001")

	dates := []string{"2026-01-01", "2026-02-01", "2026-03-01"}
	for i, d := range dates {
		rec := h.request(t, http.MethodPost, "/api/v1/readings", gin.H{
			"meter_id":     meterID,
			"value":        1000 + i*100,
			"reading_date": d,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	repo := persistence.NewGormReadingRepository(h.db, nil)
	changed, err := repo.MarkBilledThrough(context.Background(), meterID,
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, int64(2), changed)

	rec := h.request(t, http.MethodGet, fmt.Sprintf("/api/v1/meters/%d/readings?unbilled=true", meterID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []struct {
			ReadingDate string `json:"reading_date"`
			IsBilled    bool   `json:"is_billed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "2026-03-01", envelope.Data[0].ReadingDate)
	assert.False(t, envelope.Data[0].IsBilled)
}
