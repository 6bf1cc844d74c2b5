package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/interfaces/http/router"
)

func (h *apiHarness) createBill(t *testing.T, unitID uuid.UUID) *billing.Bill {
	t.Helper()
	rec := h.request(t, http.MethodPost, "/api/v1/bills", gin.H{
		"unit_id":      unitID.String(),
		"period_start": "2026-03-01",
		"period_end":   "2026-03-31",
		"flat_units":   100,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	billID := uuid.MustParse(decodeData(t, rec)["id"].(string))

	bill, err := h.bills.FindByID(context.Background(), billID)
	require.NoError(t, err)
	require.NotEmpty(t, bill.PaymentLinkID)
	return bill
}

func TestPaymentWebhookSettlesBill(t *testing.T) {
	h := newAPIHarness(t)
	bill := h.createBill(t, h.seedUnit(t, "B17-FF"))

	rec := h.request(t, http.MethodPost, "/api/v1/webhooks/payment", gin.H{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": gin.H{
			"object": gin.H{
				"payment_link": bill.PaymentLinkID,
				"amount_total": 120000,
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, false, data["duplicate"])
	assert.Equal(t, bill.ID.String(), data["bill_id"])

	stored, err := h.bills.FindByID(context.Background(), bill.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.BillStatusPaid, stored.Status)
	assert.NotNil(t, stored.PaymentDate)
}

func TestPaymentWebhookReplay(t *testing.T) {
	h := newAPIHarness(t)
	bill := h.createBill(t, h.seedUnit(t, "B17-FF"))

	event := gin.H{
		"id":   "evt_test_2",
		"type": "checkout.session.completed",
		"data": gin.H{
			"object": gin.H{
				"payment_link": bill.PaymentLinkID,
				"amount_total": 120000,
			},
		},
	}

	rec := h.request(t, http.MethodPost, "/api/v1/webhooks/payment", event)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeData(t, rec)["duplicate"])

	rec = h.request(t, http.MethodPost, "/api/v1/webhooks/payment", event)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeData(t, rec)["duplicate"])
}

func TestPaymentWebhookUnknownLink(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.request(t, http.MethodPost, "/api/v1/webhooks/payment", gin.H{
		"id":   "evt_test_3",
		"type": "checkout.session.completed",
		"data": gin.H{
			"object": gin.H{
				"payment_link": "plink_never_issued",
				"amount_total": 5000,
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, false, data["duplicate"])
	assert.Nil(t, data["bill_id"])
}

func TestPaymentWebhookMissingEventID(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.request(t, http.MethodPost, "/api/v1/webhooks/payment", gin.H{
		"type": "checkout.session.completed",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// signStripePayload builds a Stripe-Signature header for payload the
// way Stripe signs deliveries: HMAC-SHA256 over "<timestamp>.<body>".
func signStripePayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestPaymentWebhookSignatureVerification(t *testing.T) {
	h := newAPIHarness(t)
	const secret = "whsec_test_secret"

	engine := gin.New()
	router.NewRouter(engine).
		Register(NewWebhookHandler(h.webhooks, secret, nil)).
		Setup()

	payload, err := json.Marshal(gin.H{
		"id":   "evt_signed_1",
		"type": "payment_intent.succeeded",
		"data": gin.H{"object": gin.H{}},
	})
	require.NoError(t, err)

	send := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set("Stripe-Signature", signature)
		}
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec
	}

	// Unsigned deliveries are refused outright.
	rec := send("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ERR_UNAUTHORIZED", decodeErrorCode(t, rec))

	// So are deliveries signed with a different secret.
	assert.Equal(t, http.StatusUnauthorized, send(signStripePayload(payload, "whsec_other")).Code)

	// A valid signature reaches event processing.
	rec = send(signStripePayload(payload, secret))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, decodeData(t, rec)["duplicate"])
}
