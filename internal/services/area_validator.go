package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"delivery-service/internal/geo"
	"delivery-service/internal/models"
	"delivery-service/internal/repository"
)

// ValidationResult is the outcome of a service-area lookup. A miss is not an
// error: IsValid=false with Reasons describes a normal negative result.
type ValidationResult struct {
	IsValid           bool                      `json:"isValid"`
	ServiceArea       *models.ServiceArea       `json:"serviceArea,omitempty"`
	Reasons           []string                  `json:"reasons"`
	AvailableServices *models.AvailableServices `json:"availableServices,omitempty"`
}

// AreaValidator answers "can we serve this location, and with what capabilities?"
type AreaValidator interface {
	ValidateCoordinates(ctx context.Context, tenantID string, lat, lng float64) *ValidationResult
	ValidatePostalCode(ctx context.Context, tenantID, postalCode string) *ValidationResult
	ValidateAddress(ctx context.Context, tenantID string, lat, lng *float64, postalCode string) *ValidationResult
	IsServiceAvailableAtTime(area *models.ServiceArea, targetTime time.Time) (bool, string)
}

type areaValidator struct {
	repo repository.ServiceAreaRepository
}

// NewAreaValidator creates a new area validator
func NewAreaValidator(repo repository.ServiceAreaRepository) AreaValidator {
	return &areaValidator{repo: repo}
}

// ValidateCoordinates resolves a coordinate pair to the highest-priority active
// area whose boundary geometrically contains it. Radius boundaries use
// great-circle distance, polygon boundaries use point-in-polygon. Postal-code
// areas never match coordinates.
func (v *areaValidator) ValidateCoordinates(ctx context.Context, tenantID string, lat, lng float64) *ValidationResult {
	areas, err := v.repo.ListActiveGeographic(ctx, tenantID)
	if err != nil {
		// Validation is best-effort: a store failure must not crash a booking
		// flow, so it becomes a negative result instead of propagating.
		log.Printf("Failed to load service areas for coordinate validation: %v", err)
		return &ValidationResult{
			IsValid: false,
			Reasons: []string{"Unable to check service areas at this time"},
		}
	}

	// Areas arrive ordered priority descending with stable tie-breaks, so the
	// first containing area is the winner.
	for i := range areas {
		area := &areas[i]
		if v.boundaryContains(area, lat, lng) {
			services := area.AvailableServices()
			return &ValidationResult{
				IsValid:           true,
				ServiceArea:       area,
				Reasons:           []string{},
				AvailableServices: &services,
			}
		}
	}

	return &ValidationResult{
		IsValid: false,
		Reasons: []string{fmt.Sprintf("Location (%.4f, %.4f) is outside our delivery areas", lat, lng)},
	}
}

func (v *areaValidator) boundaryContains(area *models.ServiceArea, lat, lng float64) bool {
	switch area.BoundaryType {
	case models.BoundaryRadius:
		return geo.WithinRadiusKm(lat, lng, area.CenterLat, area.CenterLng, area.RadiusKm)
	case models.BoundaryPolygon:
		return geo.PointInPolygon(lat, lng, area.Polygon)
	default:
		return false
	}
}

// ValidatePostalCode resolves a postal code to the highest-priority active
// postal-code area containing it. Both the normalized 3-character prefix and
// the raw uppercased input are checked, so areas seeded with either a prefix
// or a full code still match.
func (v *areaValidator) ValidatePostalCode(ctx context.Context, tenantID, postalCode string) *ValidationResult {
	normalized := models.NormalizePostalCode(postalCode)
	rawUpper := strings.ToUpper(strings.Join(strings.Fields(postalCode), ""))
	if normalized == "" {
		return &ValidationResult{
			IsValid: false,
			Reasons: []string{"Postal code is required"},
		}
	}

	areas, err := v.repo.ListActiveByBoundaryType(ctx, tenantID, models.BoundaryPostalCodes)
	if err != nil {
		log.Printf("Failed to load service areas for postal code validation: %v", err)
		return &ValidationResult{
			IsValid: false,
			Reasons: []string{"Unable to check service areas at this time"},
		}
	}

	for i := range areas {
		area := &areas[i]
		if area.PostalCodes.Contains(normalized) || area.PostalCodes.Contains(rawUpper) {
			services := area.AvailableServices()
			return &ValidationResult{
				IsValid:           true,
				ServiceArea:       area,
				Reasons:           []string{},
				AvailableServices: &services,
			}
		}
	}

	return &ValidationResult{
		IsValid: false,
		Reasons: []string{fmt.Sprintf("Postal code %s is not in our delivery areas", normalized)},
	}
}

// ValidateAddress orchestrates coordinate and postal code validation.
// Coordinates are tried first when both are present: a geometric match is a
// strictly more trustworthy signal than a 3-character postal prefix. When the
// coordinate attempt misses, its reason is kept and the postal fallback's
// reasons are appended, so the caller sees the full diagnostic trail.
func (v *areaValidator) ValidateAddress(ctx context.Context, tenantID string, lat, lng *float64, postalCode string) *ValidationResult {
	reasons := []string{}

	if lat != nil && lng != nil {
		result := v.ValidateCoordinates(ctx, tenantID, *lat, *lng)
		if result.IsValid {
			return result
		}
		reasons = append(reasons, result.Reasons...)
	}

	if postalCode != "" {
		result := v.ValidatePostalCode(ctx, tenantID, postalCode)
		if result.IsValid {
			return result
		}
		reasons = append(reasons, result.Reasons...)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Please provide coordinates or postal code for validation")
	}

	return &ValidationResult{
		IsValid: false,
		Reasons: reasons,
	}
}

// IsServiceAvailableAtTime checks the area's operating hours for the target
// time. HH:MM strings are compared lexicographically, which is correct for
// zero-padded 24-hour times. Start and end are both inclusive.
func (v *areaValidator) IsServiceAvailableAtTime(area *models.ServiceArea, targetTime time.Time) (bool, string) {
	if len(area.OperatingHours) == 0 {
		return true, ""
	}

	weekday := strings.ToLower(targetTime.Weekday().String())
	hours, ok := area.OperatingHours[weekday]
	if !ok || !hours.Enabled {
		return false, fmt.Sprintf("Delivery is not available on %s in %s", weekday, area.Name)
	}

	timeOfDay := targetTime.Format("15:04")
	if timeOfDay < hours.Start || timeOfDay > hours.End {
		return false, fmt.Sprintf("Delivery in %s is available between %s and %s", area.Name, hours.Start, hours.End)
	}

	return true, ""
}
