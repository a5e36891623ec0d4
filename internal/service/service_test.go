package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carepay/config"
	"carepay/internal/domain"
	"carepay/internal/models"
	"carepay/internal/refdata"
	"carepay/internal/repository"
	"carepay/pkg/chek"
)

func testConfig() *config.Config {
	return &config.Config{
		Chek: config.ChekConfig{ProgramID: 77},
		Payment: config.PaymentConfig{
			MaxPaymentCents:  140000,
			StatusStaleAfter: time.Minute,
		},
		Allocation: config.AllocationConfig{
			MaxAllocationCents: 140000,
			BusinessTimezone:   "America/Denver",
		},
	}
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// One shared in-memory database per test, visible to every pooled
	// connection.
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
		&models.PaymentIntent{},
		&models.PaymentAttempt{},
		&models.Payment{},
		&models.ProviderPaymentSettings{},
		&models.FamilyPaymentSettings{},
	))
	return db
}

// fakeChek is an in-memory stand-in for the Chek API that counts calls and
// can be told to fail individual operations.
type fakeChek struct {
	usersByEmail map[string]*chek.User
	usersByID    map[int]*chek.User
	nextUserID   int
	nextTransfer int

	transferCalls int
	achCalls      int
	cardCalls     int
	getUserCalls  int

	failTransfer error
	failACH      error
	failCard     error
}

func newFakeChek() *fakeChek {
	return &fakeChek{
		usersByEmail: make(map[string]*chek.User),
		usersByID:    make(map[int]*chek.User),
		nextUserID:   1000,
		nextTransfer: 5000,
	}
}

func (f *fakeChek) addUser(id int, email string, u chek.User) {
	u.ID = id
	u.Email = email
	f.usersByID[id] = &u
	f.usersByEmail[email] = f.usersByID[id]
}

func (f *fakeChek) GetUserByEmail(ctx context.Context, email string) (*chek.User, error) {
	return f.usersByEmail[email], nil
}

func (f *fakeChek) CreateUser(ctx context.Context, req chek.UserCreateRequest) (*chek.UserCreateResponse, error) {
	f.nextUserID++
	u := chek.User{ID: f.nextUserID, Email: req.Email, FirstName: req.FirstName, LastName: req.LastName}
	f.usersByID[u.ID] = &u
	f.usersByEmail[u.Email] = &u
	return &chek.UserCreateResponse{ID: u.ID, Email: u.Email}, nil
}

func (f *fakeChek) GetUser(ctx context.Context, userID int) (*chek.User, error) {
	f.getUserCalls++
	u, ok := f.usersByID[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %d not found", domain.ErrChekService, userID)
	}
	return u, nil
}

func (f *fakeChek) TransferBalance(ctx context.Context, userID int, req chek.TransferBalanceRequest) (*chek.TransferBalanceResponse, error) {
	f.transferCalls++
	if f.failTransfer != nil {
		return nil, f.failTransfer
	}
	f.nextTransfer++
	return &chek.TransferBalanceResponse{
		Transfer: chek.TransferDetails{ID: f.nextTransfer, Amount: req.AmountCents},
	}, nil
}

func (f *fakeChek) SendACHPayment(ctx context.Context, directPayAccountID string, req chek.ACHPaymentRequest) (*chek.ACHPaymentResponse, error) {
	f.achCalls++
	if f.failACH != nil {
		return nil, f.failACH
	}
	return &chek.ACHPaymentResponse{
		PaymentID: fmt.Sprintf("ach-%d", f.achCalls),
		Status:    "processing",
	}, nil
}

func (f *fakeChek) TransferFundsToCard(ctx context.Context, cardID string, req chek.TransferFundsToCardRequest) (*chek.TransferFundsToCardResponse, error) {
	f.cardCalls++
	if f.failCard != nil {
		return nil, f.failCard
	}
	f.nextTransfer++
	return &chek.TransferFundsToCardResponse{
		Transfer: chek.TransferDetails{ID: f.nextTransfer, Amount: req.AmountCents},
	}, nil
}

func (f *fakeChek) CreateCard(ctx context.Context, userID int, req chek.CardCreateRequest) (*chek.CardCreateResponse, error) {
	return &chek.CardCreateResponse{
		Card: chek.CardInfo{ID: fmt.Sprintf("card-%d", userID), Status: domain.ChekStatusActive},
	}, nil
}

func (f *fakeChek) InviteDirectPayAccount(ctx context.Context, userID int) (*chek.DirectPayAccount, error) {
	return &chek.DirectPayAccount{
		ID:     fmt.Sprintf("dp-%d", userID),
		Status: domain.ChekStatusPending,
	}, nil
}

var errTransient = errors.New("transient provider failure")

// fixture wires a full service stack over one in-memory database with an
// onboarded family and an ACH-ready provider.
type fixture struct {
	db     *gorm.DB
	chek   *fakeChek
	source *refdata.StaticSource

	allocations *repository.AllocationRepository
	careDays    *repository.CareDayRepository
	lumpSums    *repository.LumpSumRepository
	rates       *repository.RateRepository
	settings    *repository.SettingsRepository
	payments    *repository.PaymentRepository

	paymentSvc    *PaymentService
	allocationSvc *AllocationService

	providerSettings *models.ProviderPaymentSettings
	familySettings   *models.FamilyPaymentSettings
}

const (
	testChildID    = "child-1"
	testFamilyID   = "family-1"
	testProviderID = "provider-1"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	db := testDB(t)
	api := newFakeChek()

	source := refdata.NewStaticSource()
	source.AddChild(refdata.Child{
		ID:                      testChildID,
		FamilyID:                testFamilyID,
		FirstName:               "Ada",
		LastName:                "Nguyen",
		MonthlyAllocationCents:  100000,
		ProratedAllocationCents: 50000,
		PaymentEnabled:          true,
	})
	source.AddFamily(refdata.Family{
		ID:             testFamilyID,
		FirstName:      "Mai",
		LastName:       "Nguyen",
		Email:          "mai@example.com",
		Phone:          "3035550100",
		PaymentEnabled: true,
	})
	source.AddProvider(refdata.Provider{
		ID:        testProviderID,
		FirstName: "Rosa",
		LastName:  "Ortiz",
		Email:     "rosa@example.com",
		Phone:     "3035550101",
		Approved:  true,
	})

	api.addUser(100, "mai@example.com", chek.User{Balance: 200000})
	api.addUser(200, "rosa@example.com", chek.User{
		Balance:   0,
		DirectPay: &chek.DirectPayInfo{ID: "dp-200", Status: domain.ChekStatusActive},
	})

	f := &fixture{
		db:          db,
		chek:        api,
		source:      source,
		allocations: repository.NewAllocationRepository(db),
		careDays:    repository.NewCareDayRepository(db),
		lumpSums:    repository.NewLumpSumRepository(db),
		rates:       repository.NewRateRepository(db),
		settings:    repository.NewSettingsRepository(db),
		payments:    repository.NewPaymentRepository(db),
	}
	f.paymentSvc = NewPaymentService(cfg, f.allocations, f.careDays, f.lumpSums, f.payments, f.settings, api, source)

	var err error
	f.allocationSvc, err = NewAllocationService(cfg, f.allocations, f.careDays, f.lumpSums, f.rates, source, f.paymentSvc)
	require.NoError(t, err)

	achMethod := domain.PaymentMethodACH
	dpID := "dp-200"
	dpStatus := domain.ChekStatusActive
	f.providerSettings = &models.ProviderPaymentSettings{
		ProviderExternalID:  testProviderID,
		ChekUserID:          "200",
		ChekDirectPayID:     &dpID,
		ChekDirectPayStatus: &dpStatus,
		PaymentMethod:       &achMethod,
	}
	require.NoError(t, f.settings.CreateProvider(f.providerSettings))

	f.familySettings = &models.FamilyPaymentSettings{
		FamilyExternalID:  testFamilyID,
		ChekUserID:        "100",
		ChekWalletBalance: 200000,
		CanMakePayments:   true,
	}
	require.NoError(t, f.settings.CreateFamily(f.familySettings))

	return f
}

// allocation inserts a month allocation directly, bypassing the lazy
// creation path, so payment tests control the budget exactly.
func (f *fixture) allocation(t *testing.T, amountCents int64) *models.MonthAllocation {
	t.Helper()
	now := time.Now().UTC()
	alloc := &models.MonthAllocation{
		ChildExternalID: testChildID,
		Date:            time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		AllocationCents: amountCents,
	}
	require.NoError(t, f.allocations.Create(alloc))
	return alloc
}

func (f *fixture) careDay(t *testing.T, allocationID uint, amountCents int64, date time.Time) *models.AllocatedCareDay {
	t.Helper()
	day := &models.AllocatedCareDay{
		MonthAllocationID:  allocationID,
		ProviderExternalID: testProviderID,
		Date:               date,
		Type:               domain.CareDayFull,
		AmountCents:        amountCents,
		LockedDate:         date.AddDate(0, 0, 7),
	}
	require.NoError(t, f.careDays.Create(day))
	return day
}
