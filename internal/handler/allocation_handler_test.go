package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carepay/config"
	"carepay/internal/auth"
	"carepay/internal/domain"
	"carepay/internal/middleware"
	"carepay/internal/models"
	"carepay/internal/refdata"
	"carepay/internal/repository"
	"carepay/internal/service"
)

type handlerFixture struct {
	db     *gorm.DB
	cfg    *config.Config
	source *refdata.StaticSource
	router *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.MonthAllocation{},
		&models.AllocatedCareDay{},
		&models.AllocatedLumpSum{},
		&models.PaymentRate{},
		&models.Payment{},
	))

	cfg := &config.Config{
		JWT: config.JWTConfig{
			AccessSecret: "handler-test-secret",
			Issuer:       "carepay-test",
			AccessExpiry: time.Hour,
		},
		Allocation: config.AllocationConfig{
			MaxAllocationCents: 140000,
			BusinessTimezone:   "America/Denver",
		},
	}

	source := refdata.NewStaticSource()
	svc, err := service.NewAllocationService(
		cfg,
		repository.NewAllocationRepository(db),
		repository.NewCareDayRepository(db),
		repository.NewLumpSumRepository(db),
		repository.NewRateRepository(db),
		source,
		nil,
	)
	require.NoError(t, err)

	h := NewAllocationHandler(svc, source)
	r := gin.New()
	authMw := middleware.AuthRequired(&cfg.JWT)
	r.DELETE("/care-days/:careDayId", authMw, h.DeleteCareDay)
	r.POST("/care-days/:careDayId/restore", authMw, h.RestoreCareDay)

	return &handlerFixture{db: db, cfg: cfg, source: source, router: r}
}

func (f *handlerFixture) token(t *testing.T, externalID, role string) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(&f.cfg.JWT, externalID, externalID+"@example.com", role)
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// seedCareDay inserts an allocation owned by the given family with one
// future, unlocked care day on it.
func (f *handlerFixture) seedCareDay(t *testing.T, familyID string) *models.AllocatedCareDay {
	t.Helper()
	childID := "child-of-" + familyID
	f.source.AddChild(refdata.Child{ID: childID, FamilyID: familyID})

	loc, err := time.LoadLocation(f.cfg.Allocation.BusinessTimezone)
	require.NoError(t, err)
	now := time.Now().In(loc)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	alloc := &models.MonthAllocation{ChildExternalID: childID, Date: month, AllocationCents: 100000}
	require.NoError(t, f.db.Create(alloc).Error)

	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 14)
	day := &models.AllocatedCareDay{
		MonthAllocationID:  alloc.ID,
		ProviderExternalID: "provider-1",
		Date:               date,
		Type:               domain.CareDayFull,
		AmountCents:        7500,
		LockedDate:         models.LockCutoff(date, loc),
	}
	require.NoError(t, f.db.Create(day).Error)
	return day
}

func TestDeleteCareDay_OtherFamilyIsForbidden(t *testing.T) {
	f := newHandlerFixture(t)
	day := f.seedCareDay(t, "family-1")

	w := f.do(t, http.MethodDelete, fmt.Sprintf("/care-days/%d", day.ID), f.token(t, "family-2", domain.RoleFamily))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var fresh models.AllocatedCareDay
	require.NoError(t, f.db.First(&fresh, day.ID).Error)
	assert.Nil(t, fresh.DeletedAt)
}

func TestDeleteCareDay_OwningFamilyCanDelete(t *testing.T) {
	f := newHandlerFixture(t)
	day := f.seedCareDay(t, "family-1")

	w := f.do(t, http.MethodDelete, fmt.Sprintf("/care-days/%d", day.ID), f.token(t, "family-1", domain.RoleFamily))
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.AllocatedCareDay
	require.NoError(t, f.db.First(&fresh, day.ID).Error)
	assert.NotNil(t, fresh.DeletedAt)
}

func TestRestoreCareDay_OtherFamilyIsForbidden(t *testing.T) {
	f := newHandlerFixture(t)
	day := f.seedCareDay(t, "family-1")
	deletedAt := time.Now().UTC()
	require.NoError(t, f.db.Model(day).Update("deleted_at", &deletedAt).Error)

	w := f.do(t, http.MethodPost, fmt.Sprintf("/care-days/%d/restore", day.ID), f.token(t, "family-2", domain.RoleFamily))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An admin can always act.
	w = f.do(t, http.MethodPost, fmt.Sprintf("/care-days/%d/restore", day.ID), f.token(t, "admin-1", domain.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.AllocatedCareDay
	require.NoError(t, f.db.First(&fresh, day.ID).Error)
	assert.Nil(t, fresh.DeletedAt)
}
