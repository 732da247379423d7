package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"delivery-service/internal/events"
	"delivery-service/internal/models"
	"delivery-service/internal/repository"
	"github.com/google/uuid"
)

// BookingValidation is the booking-facing reshape of a ValidationResult:
// capabilities flattened to an array of enabled names, reasons joined into a
// single message.
type BookingValidation struct {
	CanDeliver        bool                `json:"canDeliver"`
	ServiceArea       *models.ServiceArea `json:"serviceArea,omitempty"`
	AvailableServices []string            `json:"availableServices"`
	Message           string              `json:"message"`
}

// SeedResult reports a bulk seed run: zones created and per-zone failures
type SeedResult struct {
	Created []string `json:"created"`
	Errors  []string `json:"errors"`
}

// ServiceAreaService constructs and mutates service areas and orchestrates
// bulk seeding, delegating lookups to the AreaValidator
type ServiceAreaService struct {
	repo      repository.ServiceAreaRepository
	validator AreaValidator
	publisher *events.Publisher
}

// NewServiceAreaService creates a new service area service.
// publisher may be nil; events are then skipped.
func NewServiceAreaService(repo repository.ServiceAreaRepository, validator AreaValidator, publisher *events.Publisher) *ServiceAreaService {
	return &ServiceAreaService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
	}
}

// CreatePostalCodeArea creates a postal-code-bounded area. Codes are
// normalized before storage so later lookups always succeed.
func (s *ServiceAreaService) CreatePostalCodeArea(ctx context.Context, tenantID, name, description string, postalCodes []string, priority int, config *models.ServiceConfigPatch) (*models.ServiceArea, error) {
	area := &models.ServiceArea{
		TenantID:      tenantID,
		Name:          name,
		Description:   description,
		BoundaryType:  models.BoundaryPostalCodes,
		PostalCodes:   models.NormalizePostalCodes(postalCodes),
		ServiceConfig: models.MergeServiceConfig(config),
		Priority:      priority,
		Status:        models.AreaStatusActive,
	}

	if err := s.repo.Create(ctx, area); err != nil {
		return nil, err
	}
	s.publishAreaCreated(ctx, area)
	return area, nil
}

// CreateRadiusArea creates a radius-bounded area
func (s *ServiceAreaService) CreateRadiusArea(ctx context.Context, tenantID, name, description string, centerLat, centerLng, radiusKm float64, priority int, config *models.ServiceConfigPatch) (*models.ServiceArea, error) {
	area := &models.ServiceArea{
		TenantID:      tenantID,
		Name:          name,
		Description:   description,
		BoundaryType:  models.BoundaryRadius,
		CenterLat:     centerLat,
		CenterLng:     centerLng,
		RadiusKm:      radiusKm,
		ServiceConfig: models.MergeServiceConfig(config),
		Priority:      priority,
		Status:        models.AreaStatusActive,
	}

	if err := s.repo.Create(ctx, area); err != nil {
		return nil, err
	}
	s.publishAreaCreated(ctx, area)
	return area, nil
}

// CreatePolygonArea creates a polygon-bounded area. The ring is in GeoJSON
// lng/lat vertex order.
func (s *ServiceAreaService) CreatePolygonArea(ctx context.Context, tenantID, name, description string, polygon models.PolygonRing, priority int, config *models.ServiceConfigPatch) (*models.ServiceArea, error) {
	area := &models.ServiceArea{
		TenantID:      tenantID,
		Name:          name,
		Description:   description,
		BoundaryType:  models.BoundaryPolygon,
		Polygon:       polygon,
		ServiceConfig: models.MergeServiceConfig(config),
		Priority:      priority,
		Status:        models.AreaStatusActive,
	}

	if err := s.repo.Create(ctx, area); err != nil {
		return nil, err
	}
	s.publishAreaCreated(ctx, area)
	return area, nil
}

// GetActiveAreas returns all active areas in stable display order: priority
// descending, then name ascending
func (s *ServiceAreaService) GetActiveAreas(ctx context.Context, tenantID string) ([]models.ServiceArea, error) {
	return s.repo.ListActive(ctx, tenantID)
}

// UpdateAreaStatus transitions an area to any status; no transition legality
// is enforced
func (s *ServiceAreaService) UpdateAreaStatus(ctx context.Context, id uuid.UUID, tenantID string, status models.AreaStatus) error {
	if err := s.repo.UpdateStatus(ctx, id, tenantID, status); err != nil {
		return err
	}
	if s.publisher != nil {
		if err := s.publisher.PublishAreaStatusChanged(ctx, tenantID, id.String(), string(status)); err != nil {
			log.Printf("Failed to publish area status event: %v", err)
		}
	}
	return nil
}

// AddPostalCodesToArea adds codes to a postal-code area with set semantics:
// input is normalized and duplicates collapse, so the operation is idempotent
func (s *ServiceAreaService) AddPostalCodesToArea(ctx context.Context, id uuid.UUID, tenantID string, codes []string) (*models.ServiceArea, error) {
	area, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if area.BoundaryType != models.BoundaryPostalCodes {
		return nil, fmt.Errorf("area %s is not a postal code area", area.Name)
	}

	for _, code := range models.NormalizePostalCodes(codes) {
		if !area.PostalCodes.Contains(code) {
			area.PostalCodes = append(area.PostalCodes, code)
		}
	}

	if err := s.repo.Update(ctx, area); err != nil {
		return nil, err
	}
	return area, nil
}

// RemovePostalCodesFromArea removes codes from a postal-code area. Removing
// absent codes is a no-op.
func (s *ServiceAreaService) RemovePostalCodesFromArea(ctx context.Context, id uuid.UUID, tenantID string, codes []string) (*models.ServiceArea, error) {
	area, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if area.BoundaryType != models.BoundaryPostalCodes {
		return nil, fmt.Errorf("area %s is not a postal code area", area.Name)
	}

	remove := make(map[string]bool)
	for _, code := range models.NormalizePostalCodes(codes) {
		remove[code] = true
	}

	kept := make(models.StringArray, 0, len(area.PostalCodes))
	for _, code := range area.PostalCodes {
		if !remove[code] {
			kept = append(kept, code)
		}
	}
	area.PostalCodes = kept

	if err := s.repo.Update(ctx, area); err != nil {
		return nil, err
	}
	return area, nil
}

// UpdateServiceConfig replaces the area's service config wholesale. This is a
// full replacement, not a merge: the signature takes a complete ServiceConfig
// so callers cannot accidentally drop flags by sending a delta.
func (s *ServiceAreaService) UpdateServiceConfig(ctx context.Context, id uuid.UUID, tenantID string, config models.ServiceConfig) (*models.ServiceArea, error) {
	area, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	area.ServiceConfig = config
	if err := s.repo.Update(ctx, area); err != nil {
		return nil, err
	}
	return area, nil
}

// ValidateLocationForBooking validates a location and reshapes the result for
// booking flows
func (s *ServiceAreaService) ValidateLocationForBooking(ctx context.Context, tenantID string, lat, lng *float64, postalCode string) *BookingValidation {
	result := s.validator.ValidateAddress(ctx, tenantID, lat, lng, postalCode)

	booking := &BookingValidation{
		CanDeliver:        result.IsValid,
		ServiceArea:       result.ServiceArea,
		AvailableServices: []string{},
		Message:           strings.Join(result.Reasons, ". "),
	}
	if result.AvailableServices != nil {
		booking.AvailableServices = result.AvailableServices.EnabledServiceNames()
	}

	return booking
}

// GetAreasForPostalCode lists every active postal-code area covering the code,
// highest priority first. Unlike validation this is not winner-take-all; it
// backs "which zones cover this code" admin queries.
func (s *ServiceAreaService) GetAreasForPostalCode(ctx context.Context, tenantID, postalCode string) ([]models.ServiceArea, error) {
	normalized := models.NormalizePostalCode(postalCode)

	areas, err := s.repo.ListActiveByBoundaryType(ctx, tenantID, models.BoundaryPostalCodes)
	if err != nil {
		return nil, err
	}

	matches := []models.ServiceArea{}
	for _, area := range areas {
		if area.PostalCodes.Contains(normalized) {
			matches = append(matches, area)
		}
	}
	return matches, nil
}

// SetupVancouverMVP seeds the fixed Vancouver zone list. Idempotent: zones
// that already exist by name are skipped. Partial-failure tolerant: one
// zone's failure is recorded and the rest still run.
func (s *ServiceAreaService) SetupVancouverMVP(ctx context.Context, tenantID string) *SeedResult {
	result := &SeedResult{
		Created: []string{},
		Errors:  []string{},
	}

	for _, zone := range repository.VancouverMVPZones() {
		_, err := s.repo.GetByName(ctx, tenantID, zone.Name)
		if err == nil {
			continue // already seeded
		}
		if err != repository.ErrNotFound {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", zone.Name, err))
			continue
		}

		_, err = s.CreatePostalCodeArea(ctx, tenantID, zone.Name, zone.Description, zone.PostalCodes, zone.Priority, zone.Config)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", zone.Name, err))
			continue
		}
		result.Created = append(result.Created, zone.Name)
	}

	if s.publisher != nil && len(result.Created) > 0 {
		if err := s.publisher.PublishMVPSeeded(ctx, tenantID, result.Created); err != nil {
			log.Printf("Failed to publish MVP seed event: %v", err)
		}
	}

	return result
}

// GetStats assembles area statistics from independent aggregate queries
func (s *ServiceAreaService) GetStats(ctx context.Context, tenantID string) (*models.StatsResponse, error) {
	total, err := s.repo.CountAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountByStatus(ctx, tenantID, models.AreaStatusActive)
	if err != nil {
		return nil, err
	}
	inactive, err := s.repo.CountByStatus(ctx, tenantID, models.AreaStatusInactive)
	if err != nil {
		return nil, err
	}
	planned, err := s.repo.CountByStatus(ctx, tenantID, models.AreaStatusPlanned)
	if err != nil {
		return nil, err
	}
	byType, err := s.repo.CountByBoundaryType(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Total postal codes across active postal-type areas
	postalAreas, err := s.repo.ListActiveByBoundaryType(ctx, tenantID, models.BoundaryPostalCodes)
	if err != nil {
		return nil, err
	}
	totalPostalCodes := 0
	for _, area := range postalAreas {
		totalPostalCodes += len(area.PostalCodes)
	}

	capabilities := map[string]int64{}
	capabilityColumns := map[string]string{
		"deliveryEnabled":  "delivery_enabled",
		"pickupEnabled":    "pickup_enabled",
		"sameDay":          "same_day",
		"nextDay":          "next_day",
		"standardDelivery": "standard_delivery",
		"expressDelivery":  "express_delivery",
	}
	for name, column := range capabilityColumns {
		count, err := s.repo.CountActiveWithCapability(ctx, tenantID, column)
		if err != nil {
			return nil, err
		}
		capabilities[name] = count
	}

	return &models.StatsResponse{
		Success: true,
		Overview: models.StatsOverview{
			TotalAreas:       total,
			ActiveAreas:      active,
			InactiveAreas:    inactive,
			PlannedAreas:     planned,
			TotalPostalCodes: totalPostalCodes,
		},
		AreasByType:         byType,
		ServiceCapabilities: capabilities,
	}, nil
}

func (s *ServiceAreaService) publishAreaCreated(ctx context.Context, area *models.ServiceArea) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAreaCreated(ctx, area.TenantID, area.ID.String(), area.Name, string(area.BoundaryType)); err != nil {
		log.Printf("Failed to publish area created event: %v", err)
	}
}
