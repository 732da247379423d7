package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// BoundaryType discriminates the three mutually exclusive boundary shapes
type BoundaryType string

const (
	BoundaryPostalCodes BoundaryType = "postal_codes"
	BoundaryRadius      BoundaryType = "radius"
	BoundaryPolygon     BoundaryType = "polygon"
)

// AreaStatus represents the lifecycle status of a service area
type AreaStatus string

const (
	AreaStatusActive   AreaStatus = "active"
	AreaStatusInactive AreaStatus = "inactive"
	AreaStatusPlanned  AreaStatus = "planned"
)

// PostalCodePrefixLength is the stored length of postal code prefixes
const PostalCodePrefixLength = 3

// ServiceConfig holds the independently toggleable capability flags of a service area
type ServiceConfig struct {
	DeliveryEnabled  bool `json:"deliveryEnabled" gorm:"default:true"`
	PickupEnabled    bool `json:"pickupEnabled" gorm:"default:true"`
	SameDay          bool `json:"sameDay" gorm:"default:false"`
	NextDay          bool `json:"nextDay" gorm:"default:true"`
	StandardDelivery bool `json:"standardDelivery" gorm:"default:true"`
	ExpressDelivery  bool `json:"expressDelivery" gorm:"default:false"`
}

// ServiceConfigPatch is a partial override of ServiceConfig used at area creation.
// Nil fields fall back to the defaults from DefaultServiceConfig.
type ServiceConfigPatch struct {
	DeliveryEnabled  *bool `json:"deliveryEnabled"`
	PickupEnabled    *bool `json:"pickupEnabled"`
	SameDay          *bool `json:"sameDay"`
	NextDay          *bool `json:"nextDay"`
	StandardDelivery *bool `json:"standardDelivery"`
	ExpressDelivery  *bool `json:"expressDelivery"`
}

// DefaultServiceConfig is the single source of truth for new-area capability defaults
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DeliveryEnabled:  true,
		PickupEnabled:    true,
		SameDay:          false,
		NextDay:          true,
		StandardDelivery: true,
		ExpressDelivery:  false,
	}
}

// MergeServiceConfig applies a partial override on top of the defaults.
// Caller-provided fields win; omitted fields keep their default value.
func MergeServiceConfig(patch *ServiceConfigPatch) ServiceConfig {
	config := DefaultServiceConfig()
	if patch == nil {
		return config
	}
	if patch.DeliveryEnabled != nil {
		config.DeliveryEnabled = *patch.DeliveryEnabled
	}
	if patch.PickupEnabled != nil {
		config.PickupEnabled = *patch.PickupEnabled
	}
	if patch.SameDay != nil {
		config.SameDay = *patch.SameDay
	}
	if patch.NextDay != nil {
		config.NextDay = *patch.NextDay
	}
	if patch.StandardDelivery != nil {
		config.StandardDelivery = *patch.StandardDelivery
	}
	if patch.ExpressDelivery != nil {
		config.ExpressDelivery = *patch.ExpressDelivery
	}
	return config
}

// ServiceArea represents one deliverable geographic zone
type ServiceArea struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_service_areas_tenant_name"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_service_areas_tenant_name"`
	Description string    `json:"description" gorm:"type:text"`

	// Boundary tagged union: BoundaryType selects which payload is populated
	BoundaryType BoundaryType `json:"boundaryType" gorm:"type:varchar(20);not null;index"`
	PostalCodes  StringArray  `json:"postalCodes,omitempty" gorm:"type:text[]"`
	CenterLat    float64      `json:"centerLat,omitempty" gorm:"type:decimal(9,6)"`
	CenterLng    float64      `json:"centerLng,omitempty" gorm:"type:decimal(9,6)"`
	RadiusKm     float64      `json:"radiusKm,omitempty" gorm:"type:decimal(10,3)"`
	Polygon      PolygonRing  `json:"polygon,omitempty" gorm:"type:jsonb"`

	ServiceConfig ServiceConfig `json:"serviceConfig" gorm:"embedded"`

	Priority       int            `json:"priority" gorm:"type:int;not null;default:0;index"`
	Status         AreaStatus     `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	OperatingHours OperatingHours `json:"operatingHours,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Validate enforces the exactly-one-boundary-shape invariant
func (a *ServiceArea) Validate() error {
	switch a.BoundaryType {
	case BoundaryPostalCodes:
		if len(a.PostalCodes) == 0 {
			return fmt.Errorf("postal_codes area %q has no postal codes", a.Name)
		}
		if a.RadiusKm != 0 || len(a.Polygon) != 0 {
			return fmt.Errorf("postal_codes area %q carries radius or polygon data", a.Name)
		}
	case BoundaryRadius:
		if a.RadiusKm <= 0 {
			return fmt.Errorf("radius area %q requires a positive radius", a.Name)
		}
		if len(a.PostalCodes) != 0 || len(a.Polygon) != 0 {
			return fmt.Errorf("radius area %q carries postal code or polygon data", a.Name)
		}
	case BoundaryPolygon:
		if len(a.Polygon) < 3 {
			return fmt.Errorf("polygon area %q requires at least 3 vertices", a.Name)
		}
		if len(a.PostalCodes) != 0 || a.RadiusKm != 0 {
			return fmt.Errorf("polygon area %q carries postal code or radius data", a.Name)
		}
	default:
		return fmt.Errorf("unknown boundary type %q", a.BoundaryType)
	}
	return nil
}

// AvailableServices is the fixed-shape capability record read off a winning area
type AvailableServices struct {
	SameDay          bool `json:"sameDay"`
	NextDay          bool `json:"nextDay"`
	StandardDelivery bool `json:"standardDelivery"`
	ExpressDelivery  bool `json:"expressDelivery"`
	Pickup           bool `json:"pickup"`
}

// AvailableServices derives the capability record from the area's service config
func (a *ServiceArea) AvailableServices() AvailableServices {
	return AvailableServices{
		SameDay:          a.ServiceConfig.SameDay,
		NextDay:          a.ServiceConfig.NextDay,
		StandardDelivery: a.ServiceConfig.StandardDelivery,
		ExpressDelivery:  a.ServiceConfig.ExpressDelivery,
		Pickup:           a.ServiceConfig.PickupEnabled,
	}
}

// EnabledServiceNames lists the names of the enabled capability flags
func (s AvailableServices) EnabledServiceNames() []string {
	names := []string{}
	if s.SameDay {
		names = append(names, "sameDay")
	}
	if s.NextDay {
		names = append(names, "nextDay")
	}
	if s.StandardDelivery {
		names = append(names, "standardDelivery")
	}
	if s.ExpressDelivery {
		names = append(names, "expressDelivery")
	}
	if s.Pickup {
		names = append(names, "pickup")
	}
	return names
}

// NormalizePostalCode strips all whitespace, uppercases, and truncates to the
// stored prefix length. Truncation counts runes so non-ASCII input can never
// produce an invalid UTF-8 prefix. Idempotent.
func NormalizePostalCode(code string) string {
	cleaned := strings.ToUpper(strings.Join(strings.Fields(code), ""))
	if utf8.RuneCountInString(cleaned) > PostalCodePrefixLength {
		runes := []rune(cleaned)
		cleaned = string(runes[:PostalCodePrefixLength])
	}
	return cleaned
}

// NormalizePostalCodes normalizes a batch, dropping empties and duplicates
func NormalizePostalCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	result := make([]string, 0, len(codes))
	for _, code := range codes {
		normalized := NormalizePostalCode(code)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}
