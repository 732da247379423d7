package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"delivery-service/internal/models"
	"delivery-service/internal/repository"
)

// MockServiceAreaRepository is a mock implementation of ServiceAreaRepository
type MockServiceAreaRepository struct {
	mock.Mock
}

// Ensure MockServiceAreaRepository implements the interface
var _ repository.ServiceAreaRepository = (*MockServiceAreaRepository)(nil)

func (m *MockServiceAreaRepository) Create(ctx context.Context, area *models.ServiceArea) error {
	args := m.Called(ctx, area)
	if args.Error(0) == nil && area.ID == uuid.Nil {
		area.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockServiceAreaRepository) GetByID(ctx context.Context, id uuid.UUID, tenantID string) (*models.ServiceArea, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceArea), args.Error(1)
}

func (m *MockServiceAreaRepository) GetByName(ctx context.Context, tenantID, name string) (*models.ServiceArea, error) {
	args := m.Called(ctx, tenantID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceArea), args.Error(1)
}

func (m *MockServiceAreaRepository) ListActive(ctx context.Context, tenantID string) ([]models.ServiceArea, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceArea), args.Error(1)
}

func (m *MockServiceAreaRepository) ListActiveByBoundaryType(ctx context.Context, tenantID string, boundaryType models.BoundaryType) ([]models.ServiceArea, error) {
	args := m.Called(ctx, tenantID, boundaryType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceArea), args.Error(1)
}

func (m *MockServiceAreaRepository) ListActiveGeographic(ctx context.Context, tenantID string) ([]models.ServiceArea, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceArea), args.Error(1)
}

func (m *MockServiceAreaRepository) Update(ctx context.Context, area *models.ServiceArea) error {
	args := m.Called(ctx, area)
	return args.Error(0)
}

func (m *MockServiceAreaRepository) UpdateStatus(ctx context.Context, id uuid.UUID, tenantID string, status models.AreaStatus) error {
	args := m.Called(ctx, id, tenantID, status)
	return args.Error(0)
}

func (m *MockServiceAreaRepository) CountByStatus(ctx context.Context, tenantID string, status models.AreaStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockServiceAreaRepository) CountAll(ctx context.Context, tenantID string) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockServiceAreaRepository) CountByBoundaryType(ctx context.Context, tenantID string) (map[string]int64, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockServiceAreaRepository) CountActiveWithCapability(ctx context.Context, tenantID string, capabilityColumn string) (int64, error) {
	args := m.Called(ctx, tenantID, capabilityColumn)
	return args.Get(0).(int64), args.Error(1)
}

// Test fixtures

func postalArea(name string, priority int, codes ...string) models.ServiceArea {
	return models.ServiceArea{
		ID:            uuid.New(),
		TenantID:      "tenant-1",
		Name:          name,
		BoundaryType:  models.BoundaryPostalCodes,
		PostalCodes:   models.StringArray(codes),
		ServiceConfig: models.DefaultServiceConfig(),
		Priority:      priority,
		Status:        models.AreaStatusActive,
	}
}

func radiusArea(name string, priority int, lat, lng, radiusKm float64) models.ServiceArea {
	return models.ServiceArea{
		ID:            uuid.New(),
		TenantID:      "tenant-1",
		Name:          name,
		BoundaryType:  models.BoundaryRadius,
		CenterLat:     lat,
		CenterLng:     lng,
		RadiusKm:      radiusKm,
		ServiceConfig: models.DefaultServiceConfig(),
		Priority:      priority,
		Status:        models.AreaStatusActive,
	}
}

// ===========================================
// Coordinate Validation Tests
// ===========================================

func TestValidateCoordinates_InsideRadius(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	// 5km radius around downtown Vancouver
	areas := []models.ServiceArea{radiusArea("Downtown Core", 50, 49.2827, -123.1207, 5)}
	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return(areas, nil)

	result := validator.ValidateCoordinates(ctx, "tenant-1", 49.28, -123.12)

	assert.True(t, result.IsValid)
	assert.NotNil(t, result.ServiceArea)
	assert.Equal(t, "Downtown Core", result.ServiceArea.Name)
	assert.NotNil(t, result.AvailableServices)
	assert.Empty(t, result.Reasons)
	mockRepo.AssertExpectations(t)
}

func TestValidateCoordinates_OutsideAllAreas(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	areas := []models.ServiceArea{radiusArea("Downtown Core", 50, 49.2827, -123.1207, 5)}
	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return(areas, nil)

	// Toronto is well outside a 5km Vancouver radius
	result := validator.ValidateCoordinates(ctx, "tenant-1", 43.6532, -79.3832)

	assert.False(t, result.IsValid)
	assert.Nil(t, result.ServiceArea)
	assert.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "outside our delivery areas")
	mockRepo.AssertExpectations(t)
}

func TestValidateCoordinates_HighestPriorityWins(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	// Both areas contain the point; the repository returns priority-descending
	// order and the first containing area wins.
	areas := []models.ServiceArea{
		radiusArea("Premium Zone", 10, 49.2827, -123.1207, 10),
		radiusArea("Standard Zone", 5, 49.2827, -123.1207, 20),
	}
	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return(areas, nil)

	result := validator.ValidateCoordinates(ctx, "tenant-1", 49.2827, -123.1207)

	assert.True(t, result.IsValid)
	assert.Equal(t, "Premium Zone", result.ServiceArea.Name)
	mockRepo.AssertExpectations(t)
}

func TestValidateCoordinates_PolygonBoundary(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	area := models.ServiceArea{
		ID:           uuid.New(),
		TenantID:     "tenant-1",
		Name:         "Downtown Polygon",
		BoundaryType: models.BoundaryPolygon,
		Polygon: models.PolygonRing{
			{-123.15, 49.26}, {-123.10, 49.26}, {-123.10, 49.30}, {-123.15, 49.30},
		},
		ServiceConfig: models.DefaultServiceConfig(),
		Priority:      10,
		Status:        models.AreaStatusActive,
	}
	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return([]models.ServiceArea{area}, nil)

	result := validator.ValidateCoordinates(ctx, "tenant-1", 49.28, -123.12)

	assert.True(t, result.IsValid)
	assert.Equal(t, "Downtown Polygon", result.ServiceArea.Name)
	mockRepo.AssertExpectations(t)
}

func TestValidateCoordinates_RepositoryFailureIsNegativeResult(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return(nil, errors.New("connection refused"))

	result := validator.ValidateCoordinates(ctx, "tenant-1", 49.28, -123.12)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Unable to check service areas at this time"}, result.Reasons)
	mockRepo.AssertExpectations(t)
}

// ===========================================
// Postal Code Validation Tests
// ===========================================

func TestValidatePostalCode_FullCodeMatchesPrefix(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	areas := []models.ServiceArea{postalArea("Downtown", 100, "V6B", "V6C")}
	mockRepo.On("ListActiveByBoundaryType", ctx, "tenant-1", models.BoundaryPostalCodes).Return(areas, nil)

	result := validator.ValidatePostalCode(ctx, "tenant-1", "v6b 1a1")

	assert.True(t, result.IsValid)
	assert.Equal(t, "Downtown", result.ServiceArea.Name)
	mockRepo.AssertExpectations(t)
}

func TestValidatePostalCode_NoMatch(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	areas := []models.ServiceArea{postalArea("Downtown", 100, "V6B")}
	mockRepo.On("ListActiveByBoundaryType", ctx, "tenant-1", models.BoundaryPostalCodes).Return(areas, nil)

	result := validator.ValidatePostalCode(ctx, "tenant-1", "V5K 0A1")

	assert.False(t, result.IsValid)
	assert.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "V5K")
	mockRepo.AssertExpectations(t)
}

func TestValidatePostalCode_Empty(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	result := validator.ValidatePostalCode(ctx, "tenant-1", "   ")

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Postal code is required"}, result.Reasons)
	mockRepo.AssertNotCalled(t, "ListActiveByBoundaryType")
}

func TestValidatePostalCode_PriorityOrdering(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	// Both areas cover V6B; priority 10 sorts before priority 5
	areas := []models.ServiceArea{
		postalArea("High Priority", 10, "V6B"),
		postalArea("Low Priority", 5, "V6B"),
	}
	mockRepo.On("ListActiveByBoundaryType", ctx, "tenant-1", models.BoundaryPostalCodes).Return(areas, nil)

	result := validator.ValidatePostalCode(ctx, "tenant-1", "V6B")

	assert.True(t, result.IsValid)
	assert.Equal(t, "High Priority", result.ServiceArea.Name)
	mockRepo.AssertExpectations(t)
}

// ===========================================
// Address Validation Tests
// ===========================================

func TestValidateAddress_CoordinatesTakePrecedence(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	geographic := []models.ServiceArea{radiusArea("Radius Zone", 50, 49.2827, -123.1207, 5)}
	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return(geographic, nil)

	lat, lng := 49.28, -123.12
	result := validator.ValidateAddress(ctx, "tenant-1", &lat, &lng, "V6B 1A1")

	// Coordinates matched, so the postal path is never consulted
	assert.True(t, result.IsValid)
	assert.Equal(t, "Radius Zone", result.ServiceArea.Name)
	mockRepo.AssertNotCalled(t, "ListActiveByBoundaryType")
}

func TestValidateAddress_FallsBackToPostalCode(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	// Coordinate miss, postal hit
	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return([]models.ServiceArea{}, nil)
	postal := []models.ServiceArea{postalArea("Downtown", 100, "V6B")}
	mockRepo.On("ListActiveByBoundaryType", ctx, "tenant-1", models.BoundaryPostalCodes).Return(postal, nil)

	lat, lng := 43.6532, -79.3832
	result := validator.ValidateAddress(ctx, "tenant-1", &lat, &lng, "V6B 1A1")

	assert.True(t, result.IsValid)
	assert.Equal(t, "Downtown", result.ServiceArea.Name)
	mockRepo.AssertExpectations(t)
}

func TestValidateAddress_BothMissAccumulatesReasons(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return([]models.ServiceArea{}, nil)
	mockRepo.On("ListActiveByBoundaryType", ctx, "tenant-1", models.BoundaryPostalCodes).Return([]models.ServiceArea{}, nil)

	lat, lng := 43.6532, -79.3832
	result := validator.ValidateAddress(ctx, "tenant-1", &lat, &lng, "M5V 2T6")

	assert.False(t, result.IsValid)
	assert.Len(t, result.Reasons, 2)
	assert.Contains(t, result.Reasons[0], "outside our delivery areas")
	assert.Contains(t, result.Reasons[1], "M5V")
	mockRepo.AssertExpectations(t)
}

func TestValidateAddress_NoInputGivesGuidance(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	result := validator.ValidateAddress(ctx, "tenant-1", nil, nil, "")

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Please provide coordinates or postal code for validation"}, result.Reasons)
	mockRepo.AssertNotCalled(t, "ListActiveGeographic")
	mockRepo.AssertNotCalled(t, "ListActiveByBoundaryType")
}

func TestValidateAddress_PostalCodeAreasIgnoreCoordinates(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockServiceAreaRepository)
	validator := NewAreaValidator(mockRepo)

	// Only postal-code areas exist; the geographic query returns nothing, so
	// coordinates inside downtown Vancouver still miss.
	mockRepo.On("ListActiveGeographic", ctx, "tenant-1").Return([]models.ServiceArea{}, nil)

	lat, lng := 49.2827, -123.1207
	result := validator.ValidateAddress(ctx, "tenant-1", &lat, &lng, "")

	assert.False(t, result.IsValid)
	mockRepo.AssertExpectations(t)
}

// ===========================================
// Operating Hours Tests
// ===========================================

func TestIsServiceAvailableAtTime(t *testing.T) {
	validator := NewAreaValidator(nil)

	area := &models.ServiceArea{
		Name: "Downtown",
		OperatingHours: models.OperatingHours{
			"monday": {Enabled: true, Start: "09:00", End: "17:00"},
			"sunday": {Enabled: false, Start: "09:00", End: "17:00"},
		},
	}

	// 2026-01-05 is a Monday
	monday := func(hour, minute int) time.Time {
		return time.Date(2026, 1, 5, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name      string
		at        time.Time
		available bool
	}{
		{"minute before opening", monday(8, 59), false},
		{"opening minute inclusive", monday(9, 0), true},
		{"midday", monday(12, 30), true},
		{"closing minute inclusive", monday(17, 0), true},
		{"minute after closing", monday(17, 1), false},
		{"disabled day", time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC), false},
		{"unconfigured day", time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, reason := validator.IsServiceAvailableAtTime(area, tt.at)
			assert.Equal(t, tt.available, available)
			if !tt.available {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestIsServiceAvailableAtTime_NoHoursAlwaysAvailable(t *testing.T) {
	validator := NewAreaValidator(nil)

	area := &models.ServiceArea{Name: "Always On"}
	available, reason := validator.IsServiceAvailableAtTime(area, time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC))

	assert.True(t, available)
	assert.Empty(t, reason)
}
