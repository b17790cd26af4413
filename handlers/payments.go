package handlers

import (
	"net/http"
	"time"

	"trailbound/services/payments"
	"trailbound/services/webhookqueue"
	"trailbound/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentOpsHandler exposes the settlement and sweep operations used by
// operators and the scheduler.
type PaymentOpsHandler struct {
	PaymentSvc payments.PaymentService
	QueueSvc   *webhookqueue.QueueService
	Logger     *zap.Logger
}

func NewPaymentOpsHandler(paymentSvc payments.PaymentService, queueSvc *webhookqueue.QueueService, logger *zap.Logger) *PaymentOpsHandler {
	return &PaymentOpsHandler{PaymentSvc: paymentSvc, QueueSvc: queueSvc, Logger: logger}
}

// SettleBooking settles a single completed booking.
func (h *PaymentOpsHandler) SettleBooking(c *gin.Context) {
	result, err := h.PaymentSvc.SettleCompletedBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunFinalSweep runs the final-payment collection sweep immediately.
func (h *PaymentOpsHandler) RunFinalSweep(c *gin.Context) {
	result, err := h.PaymentSvc.CollectDueFinalPayments(c.Request.Context(), time.Now())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Final payment sweep failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunWebhookSweep drains the webhook retry queue immediately.
func (h *PaymentOpsHandler) RunWebhookSweep(c *gin.Context) {
	result, err := h.QueueSvc.ProcessDue(c.Request.Context(), time.Now())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Webhook sweep failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}
