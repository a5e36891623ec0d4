package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carepay/internal/auth"
	"carepay/internal/domain"
	"carepay/internal/middleware"
	"carepay/internal/models"
	"carepay/internal/refdata"
	"carepay/internal/service"
)

type AllocationHandler struct {
	allocations *service.AllocationService
	source      refdata.Source
}

func NewAllocationHandler(allocations *service.AllocationService, source refdata.Source) *AllocationHandler {
	return &AllocationHandler{allocations: allocations, source: source}
}

// GetOrCreate returns the child's allocation for a month, creating it lazily.
func (h *AllocationHandler) GetOrCreate(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	childID := c.Param("childId")
	if !h.canActForChild(user, childID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	month, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be in YYYY-MM format"})
		return
	}
	alloc, err := h.allocations.GetOrCreateForMonth(c.Request.Context(), childID, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, allocationView(alloc))
}

// Get returns an allocation with its care days and lump sums.
func (h *AllocationHandler) Get(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	allocationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid allocation id"})
		return
	}
	if !h.canActForAllocation(user, uint(allocationID)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	alloc, err := h.allocations.Allocation(uint(allocationID))
	if err != nil {
		respondError(c, err)
		return
	}
	days, err := h.allocations.CareDays(uint(allocationID), c.Query("include_deleted") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	lumpSums, err := h.allocations.LumpSums(uint(allocationID))
	if err != nil {
		respondError(c, err)
		return
	}

	dayViews := make([]gin.H, 0, len(days))
	for i := range days {
		dayViews = append(dayViews, careDayView(&days[i]))
	}
	sumViews := make([]gin.H, 0, len(lumpSums))
	for _, l := range lumpSums {
		sumViews = append(sumViews, gin.H{
			"id":           l.ID,
			"provider_id":  l.ProviderExternalID,
			"amount_cents": l.AmountCents,
			"paid":         l.IsPaid(),
		})
	}
	resp := allocationView(alloc)
	resp["care_days"] = dayViews
	resp["lump_sums"] = sumViews
	c.JSON(http.StatusOK, resp)
}

// SetRate records the per-day rate for a provider and child. Admin only.
func (h *AllocationHandler) SetRate(c *gin.Context) {
	var req struct {
		ProviderID       string `json:"provider_id" binding:"required"`
		ChildID          string `json:"child_id" binding:"required"`
		HalfDayRateCents int64  `json:"half_day_rate_cents" binding:"required,min=1"`
		FullDayRateCents int64  `json:"full_day_rate_cents" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rate, err := h.allocations.SetRate(req.ProviderID, req.ChildID, req.HalfDayRateCents, req.FullDayRateCents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"provider_id":         rate.ProviderExternalID,
		"child_id":            rate.ChildExternalID,
		"half_day_rate_cents": rate.HalfDayRateCents,
		"full_day_rate_cents": rate.FullDayRateCents,
	})
}

// CreateCareDay adds a care day against the allocation.
func (h *AllocationHandler) CreateCareDay(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	allocationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid allocation id"})
		return
	}
	var req struct {
		ProviderID string `json:"provider_id" binding:"required"`
		Date       string `json:"date" binding:"required"`
		Type       string `json:"type" binding:"required,oneof=full half"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
		return
	}
	if !h.canActForAllocation(user, uint(allocationID)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	day, err := h.allocations.CreateCareDay(uint(allocationID), req.ProviderID, date, domain.CareDayType(req.Type))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, careDayView(day))
}

// DeleteCareDay soft deletes a care day.
func (h *AllocationHandler) DeleteCareDay(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("careDayId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid care day id"})
		return
	}
	user, ok := middleware.GetUser(c)
	if !ok || !h.canActForCareDay(user, uint(id)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	if err := h.allocations.DeleteCareDay(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// RestoreCareDay undoes a soft delete.
func (h *AllocationHandler) RestoreCareDay(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("careDayId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid care day id"})
		return
	}
	user, ok := middleware.GetUser(c)
	if !ok || !h.canActForCareDay(user, uint(id)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	day, err := h.allocations.RestoreCareDay(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, careDayView(day))
}

// CreateLumpSum adds an ad-hoc amount against the allocation.
func (h *AllocationHandler) CreateLumpSum(c *gin.Context) {
	allocationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid allocation id"})
		return
	}
	var req struct {
		ProviderID  string `json:"provider_id" binding:"required"`
		AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
		Days        int    `json:"days"`
		HalfDays    int    `json:"half_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, ok := middleware.GetUser(c)
	if !ok || !h.canActForAllocation(user, uint(allocationID)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	lumpSum, err := h.allocations.CreateLumpSum(uint(allocationID), req.ProviderID, req.AmountCents, req.Days, req.HalfDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":           lumpSum.ID,
		"provider_id":  lumpSum.ProviderExternalID,
		"amount_cents": lumpSum.AmountCents,
		"days":         lumpSum.Days,
		"half_days":    lumpSum.HalfDays,
	})
}

// RunBatch creates the target month's allocations for every
// payment-enabled child. Admin only; pass dry_run to preview.
func (h *AllocationHandler) RunBatch(c *gin.Context) {
	var req struct {
		Month  string `json:"month" binding:"required"`
		DryRun bool   `json:"dry_run"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be in YYYY-MM format"})
		return
	}
	result := h.allocations.CreateAllocationsForMonth(c.Request.Context(), month, req.DryRun)
	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, e.Error())
	}
	c.JSON(http.StatusOK, gin.H{
		"created": result.Created,
		"skipped": result.Skipped,
		"errors":  errs,
		"dry_run": req.DryRun,
	})
}

// canActForChild allows admins, and families acting on their own children.
func (h *AllocationHandler) canActForChild(user auth.AuthenticatedUser, childID string) bool {
	if user.IsAdmin() {
		return true
	}
	if user.Role != domain.RoleFamily {
		return false
	}
	child, err := h.source.Child(childID)
	if err != nil {
		return false
	}
	return child.FamilyID == user.ExternalID
}

func (h *AllocationHandler) canActForCareDay(user auth.AuthenticatedUser, careDayID uint) bool {
	if user.IsAdmin() {
		return true
	}
	day, err := h.allocations.CareDay(careDayID)
	if err != nil {
		return false
	}
	return h.canActForAllocation(user, day.MonthAllocationID)
}

func (h *AllocationHandler) canActForAllocation(user auth.AuthenticatedUser, allocationID uint) bool {
	if user.IsAdmin() {
		return true
	}
	alloc, err := h.allocations.Allocation(allocationID)
	if err != nil {
		return false
	}
	return h.canActForChild(user, alloc.ChildExternalID)
}

func allocationView(alloc *models.MonthAllocation) gin.H {
	return gin.H{
		"id":                         alloc.ID,
		"child_id":                   alloc.ChildExternalID,
		"month":                      alloc.Date.Format("2006-01"),
		"allocation_cents":           alloc.AllocationCents,
		"selected_cents":             alloc.SelectedCents(),
		"paid_cents":                 alloc.PaidCents(),
		"remaining_unselected_cents": alloc.RemainingUnselectedCents(),
		"remaining_unpaid_cents":     alloc.RemainingUnpaidCents(),
	}
}

func careDayView(day *models.AllocatedCareDay) gin.H {
	return gin.H{
		"id":           day.ID,
		"provider_id":  day.ProviderExternalID,
		"date":         day.Date.Format("2006-01-02"),
		"type":         day.Type,
		"amount_cents": day.AmountCents,
		"locked_date":  day.LockedDate,
		"state":        models.CareDayState(day),
	}
}
