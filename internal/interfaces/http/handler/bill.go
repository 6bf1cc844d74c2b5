package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appbilling "github.com/voltbill/backend/internal/application/billing"
	"github.com/voltbill/backend/internal/domain/billing"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// BillHandler handles bill API endpoints
type BillHandler struct {
	BaseHandler
	service *appbilling.Service
	bills   billing.BillRepository
	logger  *zap.Logger
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(service *appbilling.Service, bills billing.BillRepository, logger *zap.Logger) *BillHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillHandler{service: service, bills: bills, logger: logger}
}

// RegisterRoutes registers bill routes on the API group
func (h *BillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bills := rg.Group("/bills")
	{
		bills.POST("", h.CreateBill)
		bills.GET("", h.ListBills)
		bills.GET("/:id", h.GetBill)
		bills.PATCH("/:id/status", h.UpdateStatus)
	}
}

// CreateBillRequest is the manual bill creation payload. unit_id and
// identifier are alternatives; identifier may be a meter serial, a
// numeric meter id, or a unit code.
type CreateBillRequest struct {
	UnitID     string `json:"unit_id" binding:"omitempty,uuid"`
	Identifier string `json:"identifier"`

	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`

	FlatUnits           float64 `json:"flat_units" binding:"min=0"`
	MotorUnits          float64 `json:"motor_units" binding:"min=0"`
	TotalBlockUnits     float64 `json:"total_block_units" binding:"min=0"`
	PreviousOutstanding float64 `json:"previous_outstanding" binding:"min=0"`
}

// BillResponse is the API representation of a bill
type BillResponse struct {
	ID             string  `json:"id"`
	UnitID         string  `json:"unit_id"`
	PeriodStart    string  `json:"period_start"`
	PeriodEnd      string  `json:"period_end"`
	DueDate        string  `json:"due_date"`
	FlatUnits      string  `json:"flat_units"`
	MotorUnits     string  `json:"motor_units"`
	TotalUnits     string  `json:"total_units"`
	TotalAmount    string  `json:"total_amount"`
	Status         string  `json:"status"`
	PaymentLinkURL string  `json:"payment_link_url,omitempty"`
	PaymentDate    *string `json:"payment_date,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toBillResponse(b *billing.Bill) BillResponse {
	resp := BillResponse{
		ID:             b.ID.String(),
		UnitID:         b.UnitID.String(),
		PeriodStart:    b.BillingPeriodStart.Format(dateLayout),
		PeriodEnd:      b.BillingPeriodEnd.Format(dateLayout),
		DueDate:        b.DueDate.Format(dateLayout),
		FlatUnits:      b.FlatUnits.StringFixed(2),
		MotorUnits:     b.MotorUnits.StringFixed(2),
		TotalUnits:     b.TotalUnits.StringFixed(2),
		TotalAmount:    b.TotalAmount.StringFixed(2),
		Status:         string(b.Status),
		PaymentLinkURL: b.PaymentLinkURL,
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}
	if b.PaymentDate != nil {
		d := b.PaymentDate.Format(time.RFC3339)
		resp.PaymentDate = &d
	}
	return resp
}

// CreateBill creates one bill from usage figures
func (h *BillHandler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.UnitID == "" && req.Identifier == "" {
		h.BadRequest(c, "Either unit_id or identifier is required")
		return
	}

	periodStart, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		h.BadRequest(c, "period_start must be a YYYY-MM-DD date")
		return
	}
	periodEnd, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		h.BadRequest(c, "period_end must be a YYYY-MM-DD date")
		return
	}

	input := appbilling.CreateBillInput{
		Identifier:          req.Identifier,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		FlatUnits:           decimal.NewFromFloat(req.FlatUnits),
		MotorUnits:          decimal.NewFromFloat(req.MotorUnits),
		TotalBlockUnits:     decimal.NewFromFloat(req.TotalBlockUnits),
		PreviousOutstanding: decimal.NewFromFloat(req.PreviousOutstanding),
	}
	if req.UnitID != "" {
		unitID, parseErr := uuid.Parse(req.UnitID)
		if parseErr != nil {
			h.BadRequest(c, "unit_id must be a UUID")
			return
		}
		input.UnitID = &unitID
	}

	bill, err := h.service.CreateBill(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toBillResponse(bill))
}

// ListBills lists bills filtered by unit or status
func (h *BillHandler) ListBills(c *gin.Context) {
	ctx := c.Request.Context()

	if unitParam := c.Query("unit_id"); unitParam != "" {
		unitID, err := uuid.Parse(unitParam)
		if err != nil {
			h.BadRequest(c, "unit_id must be a UUID")
			return
		}
		bills, err := h.bills.FindByUnit(ctx, unitID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, toBillResponses(bills))
		return
	}

	if statusParam := c.Query("status"); statusParam != "" {
		status := billing.BillStatus(statusParam)
		if !status.IsValid() {
			h.BadRequest(c, "unknown bill status: "+statusParam)
			return
		}
		bills, err := h.bills.FindByStatus(ctx, status)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, toBillResponses(bills))
		return
	}

	h.BadRequest(c, "Either unit_id or status query parameter is required")
}

// GetBill returns one bill by id
func (h *BillHandler) GetBill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a UUID")
		return
	}

	bill, err := h.bills.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toBillResponse(bill))
}

// UpdateStatusRequest is the status change payload. Override escapes
// the normal transition rules for administrative corrections.
type UpdateStatusRequest struct {
	Status      string  `json:"status" binding:"required"`
	PaymentDate *string `json:"payment_date"`
	Override    bool    `json:"override"`
}

// UpdateStatus changes the status of a bill
func (h *BillHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a UUID")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	status := billing.BillStatus(req.Status)
	if !status.IsValid() {
		h.BadRequest(c, "unknown bill status: "+req.Status)
		return
	}

	var paymentDate *time.Time
	if req.PaymentDate != nil {
		parsed, parseErr := time.Parse(dateLayout, *req.PaymentDate)
		if parseErr != nil {
			h.BadRequest(c, "payment_date must be a YYYY-MM-DD date")
			return
		}
		paymentDate = &parsed
	}

	ctx := c.Request.Context()
	var bill *billing.Bill
	if req.Override {
		h.logger.Warn("administrative status override",
			zap.String("bill_id", id.String()),
			zap.String("status", req.Status))
		bill, err = h.bills.OverrideStatus(ctx, id, status)
	} else {
		bill, err = h.bills.UpdateStatus(ctx, id, status, paymentDate)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toBillResponse(bill))
}

func toBillResponses(bills []*billing.Bill) []BillResponse {
	responses := make([]BillResponse, len(bills))
	for i, b := range bills {
		responses[i] = toBillResponse(b)
	}
	return responses
}
