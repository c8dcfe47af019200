package promocode_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ms-discounts/internal/models"
	"ms-discounts/internal/promocode"
)

// Mock implementations for testing

type MockPromoDB struct {
	codes         map[string]*models.PromoCode
	usageCounts   map[string]int
	usages        []models.PromoCodeUsage
	shouldFailOn  string
	errorToReturn error
}

func NewMockPromoDB() *MockPromoDB {
	return &MockPromoDB{
		codes:       make(map[string]*models.PromoCode),
		usageCounts: make(map[string]int),
	}
}

func (m *MockPromoDB) SetupFailure(operation string, err error) {
	m.shouldFailOn = operation
	m.errorToReturn = err
}

func (m *MockPromoDB) GetPromoCodeByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	if m.shouldFailOn == "GetPromoCodeByCode" {
		return nil, m.errorToReturn
	}
	promo, exists := m.codes[strings.ToUpper(code)]
	if !exists {
		return nil, nil
	}
	return promo, nil
}

func (m *MockPromoDB) CountUsagesByUser(ctx context.Context, promoCodeID, userID string) (int, error) {
	if m.shouldFailOn == "CountUsagesByUser" {
		return 0, m.errorToReturn
	}
	return m.usageCounts[promoCodeID+"|"+userID], nil
}

func (m *MockPromoDB) RecordUsage(ctx context.Context, usage models.PromoCodeUsage) error {
	if m.shouldFailOn == "RecordUsage" {
		return m.errorToReturn
	}
	m.usages = append(m.usages, usage)
	m.usageCounts[usage.PromoCodeID+"|"+usage.UserID]++
	return nil
}

type MockTicketStore struct {
	ticketTypes   map[string]*models.TicketType
	shouldFailOn  string
	errorToReturn error
}

func NewMockTicketStore() *MockTicketStore {
	return &MockTicketStore{
		ticketTypes: make(map[string]*models.TicketType),
	}
}

func (m *MockTicketStore) GetTicketTypeByID(ctx context.Context, id string) (*models.TicketType, error) {
	if m.shouldFailOn == "GetTicketTypeByID" {
		return nil, m.errorToReturn
	}
	tt, exists := m.ticketTypes[id]
	if !exists {
		return nil, nil
	}
	return tt, nil
}

func strPtr(s string) *string        { return &s }
func intPtr(i int) *int              { return &i }
func int64Ptr(i int64) *int64        { return &i }
func timePtr(t time.Time) *time.Time { return &t }

func activePromo(code string) *models.PromoCode {
	return &models.PromoCode{
		ID:        "promo-" + strings.ToLower(code),
		Code:      strings.ToUpper(code),
		Name:      "Test promo",
		Type:      models.PromoTypePercentage,
		Value:     10,
		Currency:  "CLP",
		Status:    models.PromoStatusActive,
		ValidFrom: time.Now().Add(-24 * time.Hour),
	}
}

func setupPromoService() (*promocode.Service, *MockPromoDB, *MockTicketStore) {
	db := NewMockPromoDB()
	tickets := NewMockTicketStore()
	tickets.ticketTypes["tt1"] = &models.TicketType{
		ID:       "tt1",
		EventID:  "event1",
		Name:     "General",
		Price:    30000,
		Currency: "CLP",
		Event:    &models.Event{ID: "event1", CategoryID: "cat1"},
	}
	return promocode.NewService(db, tickets, nil), db, tickets
}

func TestValidateCodeNotFound(t *testing.T) {
	service, _, _ := setupPromoService()

	result, err := service.Validate(context.Background(), "NOPE", "user1", "tt1", 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.IsValid {
		t.Error("Expected invalid result for unknown code")
	}
	if result.Error != "code not found" {
		t.Errorf("Expected 'code not found', got '%s'", result.Error)
	}
}

func TestValidateCodeIsCaseInsensitive(t *testing.T) {
	service, db, _ := setupPromoService()
	db.codes["SUMMER10"] = activePromo("SUMMER10")

	result, err := service.Validate(context.Background(), "summer10", "user1", "tt1", 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.IsValid {
		t.Errorf("Expected valid result, got error '%s'", result.Error)
	}
	if result.Code != "SUMMER10" {
		t.Errorf("Expected canonical code SUMMER10, got %s", result.Code)
	}
}

func TestValidateInactiveCode(t *testing.T) {
	service, db, _ := setupPromoService()
	promo := activePromo("PAUSED")
	promo.Status = models.PromoStatusInactive
	db.codes["PAUSED"] = promo

	result, _ := service.Validate(context.Background(), "PAUSED", "user1", "tt1", 1)
	if result.IsValid || result.Error != "code is not active" {
		t.Errorf("Expected 'code is not active', got valid=%v error='%s'", result.IsValid, result.Error)
	}
}

func TestValidateTimeWindow(t *testing.T) {
	service, db, _ := setupPromoService()

	future := activePromo("FUTURE")
	future.ValidFrom = time.Now().Add(24 * time.Hour)
	db.codes["FUTURE"] = future

	expired := activePromo("OLD")
	expired.ValidUntil = timePtr(time.Now().Add(-time.Hour))
	db.codes["OLD"] = expired

	result, _ := service.Validate(context.Background(), "FUTURE", "user1", "tt1", 1)
	if result.Error != "code is not yet valid" {
		t.Errorf("Expected 'code is not yet valid', got '%s'", result.Error)
	}

	result, _ = service.Validate(context.Background(), "OLD", "user1", "tt1", 1)
	if result.Error != "code has expired" {
		t.Errorf("Expected 'code has expired', got '%s'", result.Error)
	}
}

func TestValidateGlobalUsageLimit(t *testing.T) {
	service, db, _ := setupPromoService()
	promo := activePromo("LIMITED")
	promo.UsageLimit = intPtr(100)
	promo.UsedCount = 100
	db.codes["LIMITED"] = promo

	result, _ := service.Validate(context.Background(), "LIMITED", "user1", "tt1", 1)
	if result.Error != "code usage limit reached" {
		t.Errorf("Expected 'code usage limit reached', got '%s'", result.Error)
	}
}

func TestValidatePerUserUsageLimit(t *testing.T) {
	service, db, _ := setupPromoService()
	promo := activePromo("ONCEEACH")
	promo.UsageLimitPerUser = intPtr(1)
	db.codes["ONCEEACH"] = promo
	db.usageCounts[promo.ID+"|user1"] = 1

	result, _ := service.Validate(context.Background(), "ONCEEACH", "user1", "tt1", 1)
	if result.Error != "per-user usage limit reached" {
		t.Errorf("Expected 'per-user usage limit reached', got '%s'", result.Error)
	}

	// A different user is unaffected
	result, _ = service.Validate(context.Background(), "ONCEEACH", "user2", "tt1", 1)
	if !result.IsValid {
		t.Errorf("Expected valid result for fresh user, got '%s'", result.Error)
	}
}

func TestValidateTicketTypeNotFound(t *testing.T) {
	service, db, _ := setupPromoService()
	db.codes["SUMMER10"] = activePromo("SUMMER10")

	result, _ := service.Validate(context.Background(), "SUMMER10", "user1", "no-such-tt", 1)
	if result.Error != "ticket type not found" {
		t.Errorf("Expected 'ticket type not found', got '%s'", result.Error)
	}
}

func TestValidateScopeChecks(t *testing.T) {
	service, db, _ := setupPromoService()

	eventScoped := activePromo("EVENTONLY")
	eventScoped.EventID = strPtr("other-event")
	db.codes["EVENTONLY"] = eventScoped

	categoryScoped := activePromo("CATONLY")
	categoryScoped.CategoryID = strPtr("other-cat")
	db.codes["CATONLY"] = categoryScoped

	ttScoped := activePromo("TTONLY")
	ttScoped.TicketTypeID = strPtr("other-tt")
	db.codes["TTONLY"] = ttScoped

	result, _ := service.Validate(context.Background(), "EVENTONLY", "user1", "tt1", 1)
	if result.Error != "code is not valid for this event" {
		t.Errorf("Expected event scope rejection, got '%s'", result.Error)
	}

	result, _ = service.Validate(context.Background(), "CATONLY", "user1", "tt1", 1)
	if result.Error != "code is not valid for this category" {
		t.Errorf("Expected category scope rejection, got '%s'", result.Error)
	}

	result, _ = service.Validate(context.Background(), "TTONLY", "user1", "tt1", 1)
	if result.Error != "code is not valid for this ticket type" {
		t.Errorf("Expected ticket type scope rejection, got '%s'", result.Error)
	}

	matching := activePromo("MATCH")
	matching.EventID = strPtr("event1")
	matching.CategoryID = strPtr("cat1")
	matching.TicketTypeID = strPtr("tt1")
	db.codes["MATCH"] = matching

	result, _ = service.Validate(context.Background(), "MATCH", "user1", "tt1", 1)
	if !result.IsValid {
		t.Errorf("Expected valid result for matching scope, got '%s'", result.Error)
	}
}

func TestValidateMinOrderAmount(t *testing.T) {
	service, db, tickets := setupPromoService()
	tickets.ticketTypes["tt-cheap"] = &models.TicketType{
		ID: "tt-cheap", EventID: "event1", Price: 20000, Currency: "CLP",
		Event: &models.Event{ID: "event1", CategoryID: "cat1"},
	}

	promo := activePromo("BIGSPEND")
	promo.MinOrderAmount = int64Ptr(50000)
	db.codes["BIGSPEND"] = promo

	// 2 x 20000 = 40000, below the 50000 floor
	result, _ := service.Validate(context.Background(), "BIGSPEND", "user1", "tt-cheap", 2)
	if result.IsValid {
		t.Error("Expected invalid result below minimum order amount")
	}
	if result.Error != "minimum order amount of 50000 CLP not met" {
		t.Errorf("Unexpected error message: '%s'", result.Error)
	}

	// 3 x 20000 = 60000 clears the floor
	result, _ = service.Validate(context.Background(), "BIGSPEND", "user1", "tt-cheap", 3)
	if !result.IsValid {
		t.Errorf("Expected valid result above minimum, got '%s'", result.Error)
	}
}

func TestValidatePercentageWithCap(t *testing.T) {
	service, db, _ := setupPromoService()
	promo := activePromo("TWENTY")
	promo.Type = models.PromoTypePercentage
	promo.Value = 20
	promo.MaxDiscountAmount = int64Ptr(5000)
	db.codes["TWENTY"] = promo

	// 20% of 30000 is 6000, capped at 5000 per ticket; two tickets
	result, err := service.Validate(context.Background(), "TWENTY", "user1", "tt1", 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.IsValid {
		t.Fatalf("Expected valid result, got '%s'", result.Error)
	}
	if result.DiscountAmount != 10000 {
		t.Errorf("Expected discount 10000, got %d", result.DiscountAmount)
	}
	if result.FinalAmount != 50000 {
		t.Errorf("Expected final 50000, got %d", result.FinalAmount)
	}
	if result.DiscountPercentage != 16.67 {
		t.Errorf("Expected effective percentage 16.67, got %v", result.DiscountPercentage)
	}
}

func TestValidateFixedAmountPerTicket(t *testing.T) {
	service, db, tickets := setupPromoService()
	tickets.ticketTypes["tt-8k"] = &models.TicketType{
		ID: "tt-8k", EventID: "event1", Price: 8000, Currency: "CLP",
		Event: &models.Event{ID: "event1", CategoryID: "cat1"},
	}

	promo := activePromo("TENOFF")
	promo.Type = models.PromoTypeFixedAmount
	promo.Value = 10000
	db.codes["TENOFF"] = promo

	// 10000 off an 8000 ticket clamps to 8000 per ticket, three tickets
	result, _ := service.Validate(context.Background(), "TENOFF", "user1", "tt-8k", 3)
	if !result.IsValid {
		t.Fatalf("Expected valid result, got '%s'", result.Error)
	}
	if result.DiscountAmount != 24000 {
		t.Errorf("Expected discount 24000, got %d", result.DiscountAmount)
	}
	if result.FinalAmount != 0 {
		t.Errorf("Expected final 0, got %d", result.FinalAmount)
	}
}

func TestValidateStoreErrorPropagates(t *testing.T) {
	service, db, _ := setupPromoService()
	db.SetupFailure("GetPromoCodeByCode", errors.New("connection refused"))

	result, err := service.Validate(context.Background(), "ANY", "user1", "tt1", 1)
	if err == nil {
		t.Error("Expected error when store fails, got nil")
	}
	if result != nil {
		t.Error("Expected nil result when store fails")
	}
}

func TestRecordUsageDelegates(t *testing.T) {
	service, db, _ := setupPromoService()

	usage := models.PromoCodeUsage{
		ID:             "usage1",
		PromoCodeID:    "promo1",
		UserID:         "user1",
		OrderID:        "order1",
		DiscountAmount: 5000,
		OriginalAmount: 30000,
		FinalAmount:    25000,
	}

	if err := service.RecordUsage(context.Background(), usage); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(db.usages) != 1 {
		t.Fatalf("Expected 1 recorded usage, got %d", len(db.usages))
	}
	if db.usages[0].OrderID != "order1" {
		t.Errorf("Expected order1, got %s", db.usages[0].OrderID)
	}

	db.SetupFailure("RecordUsage", errors.New("db error"))
	if err := service.RecordUsage(context.Background(), usage); err == nil {
		t.Error("Expected error when recording fails, got nil")
	}
}
