package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carepay/internal/repository"
	"carepay/internal/service"
)

type OnboardingHandler struct {
	payments *service.PaymentService
	settings *repository.SettingsRepository
}

func NewOnboardingHandler(payments *service.PaymentService, settings *repository.SettingsRepository) *OnboardingHandler {
	return &OnboardingHandler{payments: payments, settings: settings}
}

// OnboardProvider creates or links the provider's Chek account. Idempotent.
func (h *OnboardingHandler) OnboardProvider(c *gin.Context) {
	settings, err := h.payments.OnboardProvider(c.Request.Context(), c.Param("providerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"provider_id":  settings.ProviderExternalID,
		"chek_user_id": settings.ChekUserID,
	})
}

// OnboardFamily creates or links the family's Chek account. Idempotent.
func (h *OnboardingHandler) OnboardFamily(c *gin.Context) {
	settings, err := h.payments.OnboardFamily(c.Request.Context(), c.Param("familyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"family_id":         settings.FamilyExternalID,
		"chek_user_id":      settings.ChekUserID,
		"can_make_payments": settings.CanMakePayments,
	})
}

// RefreshProvider re-pulls the provider's live Chek state into the cache.
func (h *OnboardingHandler) RefreshProvider(c *gin.Context) {
	settings, err := h.settings.ProviderByExternalID(c.Param("providerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if settings == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider not onboarded"})
		return
	}
	if err := h.payments.RefreshProviderSettings(c.Request.Context(), settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"provider_id":           settings.ProviderExternalID,
		"chek_wallet_balance":   settings.ChekWalletBalance,
		"chek_card_status":      settings.ChekCardStatus,
		"chek_directpay_status": settings.ChekDirectPayStatus,
		"last_chek_sync_at":     settings.LastChekSyncAt,
	})
}

// ReclaimFamily returns a family's unspent wallet balance to the program.
func (h *OnboardingHandler) ReclaimFamily(c *gin.Context) {
	reclaimed, err := h.payments.ReclaimFamilyFunds(c.Request.Context(), c.Param("familyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"family_id":       c.Param("familyId"),
		"reclaimed_cents": reclaimed,
	})
}

// RefreshFamily re-pulls the family's wallet balance into the cache.
func (h *OnboardingHandler) RefreshFamily(c *gin.Context) {
	settings, err := h.settings.FamilyByExternalID(c.Param("familyId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if settings == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "family not onboarded"})
		return
	}
	if err := h.payments.RefreshFamilySettings(c.Request.Context(), settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"family_id":           settings.FamilyExternalID,
		"chek_wallet_balance": settings.ChekWalletBalance,
		"last_chek_sync_at":   settings.LastChekSyncAt,
	})
}
