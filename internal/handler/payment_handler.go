package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carepay/internal/domain"
	"carepay/internal/models"
	"carepay/internal/repository"
	"carepay/internal/service"
)

type PaymentHandler struct {
	payments    *service.PaymentService
	allocations *service.AllocationService
	careDays    *repository.CareDayRepository
	lumpSums    *repository.LumpSumRepository
	paymentRepo *repository.PaymentRepository
}

func NewPaymentHandler(
	payments *service.PaymentService,
	allocations *service.AllocationService,
	careDays *repository.CareDayRepository,
	lumpSums *repository.LumpSumRepository,
	paymentRepo *repository.PaymentRepository,
) *PaymentHandler {
	return &PaymentHandler{
		payments:    payments,
		allocations: allocations,
		careDays:    careDays,
		lumpSums:    lumpSums,
		paymentRepo: paymentRepo,
	}
}

// Process pays a provider for the referenced care days and lump sums.
// Admin only.
func (h *PaymentHandler) Process(c *gin.Context) {
	var req struct {
		ProviderID   string `json:"provider_id" binding:"required"`
		ChildID      string `json:"child_id" binding:"required"`
		AllocationID uint   `json:"allocation_id" binding:"required"`
		CareDayIDs   []uint `json:"care_day_ids"`
		LumpSumIDs   []uint `json:"lump_sum_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alloc, err := h.allocations.Allocation(req.AllocationID)
	if err != nil {
		respondError(c, err)
		return
	}
	careDays, err := h.careDays.GetByIDs(req.CareDayIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	lumpSums, err := h.lumpSums.GetByIDs(req.LumpSumIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	ok := h.payments.ProcessPayment(c.Request.Context(), req.ProviderID, req.ChildID, alloc, careDays, lumpSums)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "payment failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Retry resumes a stuck payment intent. Admin only.
func (h *PaymentHandler) Retry(c *gin.Context) {
	intentID, err := uuid.Parse(c.Param("intentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}
	if ok := h.payments.RetryPaymentIntent(c.Request.Context(), intentID); !ok {
		c.JSON(http.StatusConflict, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// IntentStatus returns an intent with its derived state.
func (h *PaymentHandler) IntentStatus(c *gin.Context) {
	intentID, err := uuid.Parse(c.Param("intentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}
	intent, err := h.paymentRepo.GetIntent(intentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if intent == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "intent not found"})
		return
	}

	attempts := make([]gin.H, 0, len(intent.Attempts))
	for i := range intent.Attempts {
		a := &intent.Attempts[i]
		attempts = append(attempts, gin.H{
			"attempt_number": a.AttemptNumber,
			"payment_method": a.PaymentMethod,
			"status":         models.ComputeAttemptStatus(a),
			"error_message":  a.ErrorMessage,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           intent.ID,
		"status":       models.ComputeIntentStatus(intent),
		"amount_cents": intent.AmountCents,
		"provider_id":  intent.ProviderExternalID,
		"child_id":     intent.ChildExternalID,
		"attempts":     attempts,
		"is_paid":      intent.IsPaid(),
	})
}

// ListForAllocation returns the payments recorded against an allocation.
func (h *PaymentHandler) ListForAllocation(c *gin.Context) {
	allocationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid allocation id"})
		return
	}
	payments, err := h.paymentRepo.ListPaymentsForAllocation(uint(allocationID))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(payments))
	for _, p := range payments {
		out = append(out, gin.H{
			"id":             p.ID,
			"provider_id":    p.ProviderExternalID,
			"amount_cents":   p.AmountCents,
			"payment_method": p.PaymentMethod,
			"created_at":     p.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

// SetPaymentMethod selects and initializes a provider's payout instrument.
func (h *PaymentHandler) SetPaymentMethod(c *gin.Context) {
	providerID := c.Param("providerId")
	var req struct {
		PaymentMethod string `json:"payment_method" binding:"required,oneof=card ach"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings, err := h.payments.InitializeProviderPaymentMethod(c.Request.Context(), providerID, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"provider_id":       settings.ProviderExternalID,
		"payment_method":    settings.PaymentMethod,
		"chek_card_id":      settings.ChekCardID,
		"chek_directpay_id": settings.ChekDirectPayID,
	})
}
