package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/infrastructure/advisor"
	"go.uber.org/zap"
)

// validationHistorySize is how many recent readings are handed to the
// advisor as context for a new reading.
const validationHistorySize = 6

// ReadingHandler handles meter reading API endpoints
type ReadingHandler struct {
	BaseHandler
	readings billing.ReadingRepository
	advisor  advisor.Advisor
	logger   *zap.Logger
}

// NewReadingHandler creates a new ReadingHandler
func NewReadingHandler(readings billing.ReadingRepository, adv advisor.Advisor, logger *zap.Logger) *ReadingHandler {
	if adv == nil {
		adv = advisor.NewDisabled()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadingHandler{readings: readings, advisor: adv, logger: logger}
}

// RegisterRoutes registers reading routes on the API group
func (h *ReadingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/readings", h.CreateReading)
	rg.GET("/meters/:id/readings", h.ListRecentReadings)
}

// CreateReadingRequest is the meter reading submission payload
type CreateReadingRequest struct {
	MeterID     int64   `json:"meter_id" binding:"required"`
	Value       float64 `json:"value" binding:"min=0"`
	ReadingDate string  `json:"reading_date" binding:"required"`
}

// ReadingResponse is the API representation of a reading
type ReadingResponse struct {
	ID          int64  `json:"id"`
	MeterID     int64  `json:"meter_id"`
	Value       string `json:"value"`
	ReadingDate string `json:"reading_date"`
	Consumption string `json:"consumption"`
	IsBilled    bool   `json:"is_billed"`

	Validation *advisor.ValidationResult `json:"validation,omitempty"`
}

func toReadingResponse(r *billing.Reading) ReadingResponse {
	return ReadingResponse{
		ID:          r.ID,
		MeterID:     r.MeterID,
		Value:       r.Value.StringFixed(2),
		ReadingDate: r.ReadingDate.Format(dateLayout),
		Consumption: r.Consumption.StringFixed(2),
		IsBilled:    r.IsBilled,
	}
}

// CreateReading validates and stores one meter reading. The advisor
// verdict is advisory; a rejected reading is still stored and the
// verdict returned for the operator to act on.
func (h *ReadingHandler) CreateReading(c *gin.Context) {
	var req CreateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	readingDate, err := time.Parse(dateLayout, req.ReadingDate)
	if err != nil {
		h.BadRequest(c, "reading_date must be a YYYY-MM-DD date")
		return
	}

	ctx := c.Request.Context()
	value := decimal.NewFromFloat(req.Value)

	recent, err := h.readings.RecentByMeter(ctx, req.MeterID, validationHistorySize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	history := make([]decimal.Decimal, len(recent))
	for i, r := range recent {
		history[i] = r.Value
	}

	verdict, err := h.advisor.ValidateReading(ctx, history, value)
	if err != nil {
		h.logger.Warn("reading validation unavailable",
			zap.Int64("meter_id", req.MeterID),
			zap.Error(err))
		verdict = nil
	}

	reading := &billing.Reading{
		MeterID:     req.MeterID,
		Value:       value,
		ReadingDate: readingDate,
	}
	if err := h.readings.Insert(ctx, reading); err != nil {
		h.HandleError(c, err)
		return
	}

	response := toReadingResponse(reading)
	response.Validation = verdict
	h.Created(c, response)
}

// ListRecentReadings returns the latest readings for a meter. With
// ?unbilled=true it instead returns the readings no bill has consumed
// yet, oldest first.
func (h *ReadingHandler) ListRecentReadings(c *gin.Context) {
	var params struct {
		ID int64 `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&params); err != nil {
		h.BadRequest(c, "id must be a meter id")
		return
	}
	var query struct {
		Unbilled bool `form:"unbilled"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "unbilled must be a boolean")
		return
	}

	ctx := c.Request.Context()
	var (
		readings []*billing.Reading
		err      error
	)
	if query.Unbilled {
		readings, err = h.readings.UnbilledByMeter(ctx, params.ID)
	} else {
		readings, err = h.readings.RecentByMeter(ctx, params.ID, 12)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ReadingResponse, len(readings))
	for i, r := range readings {
		responses[i] = toReadingResponse(r)
	}
	h.Success(c, responses)
}
