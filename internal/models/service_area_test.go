package models

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"full code with space", "v6b 1a1", "V6B"},
		{"full code without space", "V6B1A1", "V6B"},
		{"already a prefix", "V6B", "V6B"},
		{"lowercase prefix", "v6b", "V6B"},
		{"leading and trailing whitespace", "  v6b 1a1  ", "V6B"},
		{"interior tabs", "v6b\t1a1", "V6B"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"short input", "v6", "V6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePostalCode(tt.input))
		})
	}
}

func TestNormalizePostalCode_MultiByteInput(t *testing.T) {
	// Rune-wise truncation: a prefix cut out of multi-byte input stays valid UTF-8
	result := NormalizePostalCode("héllo 123")
	assert.Equal(t, "HÉL", result)
	assert.True(t, utf8.ValidString(result))
	assert.Equal(t, result, NormalizePostalCode(result))
}

func TestNormalizePostalCode_Idempotent(t *testing.T) {
	inputs := []string{"v6b 1a1", "V6B", "  v5k 0a1  ", "v6"}
	for _, input := range inputs {
		once := NormalizePostalCode(input)
		twice := NormalizePostalCode(once)
		assert.Equal(t, once, twice, "normalizing %q twice changed the result", input)
	}
}

func TestNormalizePostalCodes_DropsDuplicatesAndEmpties(t *testing.T) {
	result := NormalizePostalCodes([]string{"v6b 1a1", "V6B", "", "  ", "v6c", "V6C 2T8"})
	assert.Equal(t, []string{"V6B", "V6C"}, result)
}

func TestMergeServiceConfig_NilPatchUsesDefaults(t *testing.T) {
	config := MergeServiceConfig(nil)

	assert.True(t, config.DeliveryEnabled)
	assert.True(t, config.PickupEnabled)
	assert.False(t, config.SameDay)
	assert.True(t, config.NextDay)
	assert.True(t, config.StandardDelivery)
	assert.False(t, config.ExpressDelivery)
}

func TestMergeServiceConfig_PatchOverridesOnlyProvidedFields(t *testing.T) {
	yes := true
	no := false
	config := MergeServiceConfig(&ServiceConfigPatch{
		SameDay:       &yes,
		PickupEnabled: &no,
	})

	assert.True(t, config.SameDay)
	assert.False(t, config.PickupEnabled)
	// Untouched fields keep their defaults
	assert.True(t, config.DeliveryEnabled)
	assert.True(t, config.NextDay)
	assert.True(t, config.StandardDelivery)
	assert.False(t, config.ExpressDelivery)
}

func TestServiceAreaValidate(t *testing.T) {
	tests := []struct {
		name    string
		area    ServiceArea
		wantErr bool
	}{
		{
			name: "valid postal code area",
			area: ServiceArea{
				Name:         "Downtown",
				BoundaryType: BoundaryPostalCodes,
				PostalCodes:  StringArray{"V6B", "V6C"},
			},
		},
		{
			name: "postal code area without codes",
			area: ServiceArea{
				Name:         "Empty",
				BoundaryType: BoundaryPostalCodes,
			},
			wantErr: true,
		},
		{
			name: "valid radius area",
			area: ServiceArea{
				Name:         "Core",
				BoundaryType: BoundaryRadius,
				CenterLat:    49.2827,
				CenterLng:    -123.1207,
				RadiusKm:     5,
			},
		},
		{
			name: "radius area with zero radius",
			area: ServiceArea{
				Name:         "Point",
				BoundaryType: BoundaryRadius,
			},
			wantErr: true,
		},
		{
			name: "valid polygon area",
			area: ServiceArea{
				Name:         "Triangle",
				BoundaryType: BoundaryPolygon,
				Polygon: PolygonRing{
					{-123.15, 49.26}, {-123.10, 49.26}, {-123.12, 49.30},
				},
			},
		},
		{
			name: "polygon area with too few vertices",
			area: ServiceArea{
				Name:         "Line",
				BoundaryType: BoundaryPolygon,
				Polygon:      PolygonRing{{-123.15, 49.26}, {-123.10, 49.26}},
			},
			wantErr: true,
		},
		{
			name: "mixed boundary payloads rejected",
			area: ServiceArea{
				Name:         "Mixed",
				BoundaryType: BoundaryPostalCodes,
				PostalCodes:  StringArray{"V6B"},
				RadiusKm:     5,
			},
			wantErr: true,
		},
		{
			name: "unknown boundary type",
			area: ServiceArea{
				Name:         "Mystery",
				BoundaryType: "hexagon",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.area.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAvailableServices_ExcludesDeliveryEnabled(t *testing.T) {
	area := ServiceArea{
		ServiceConfig: ServiceConfig{
			DeliveryEnabled:  true,
			PickupEnabled:    true,
			SameDay:          true,
			NextDay:          true,
			StandardDelivery: true,
			ExpressDelivery:  true,
		},
	}

	names := area.AvailableServices().EnabledServiceNames()
	assert.Equal(t, []string{"sameDay", "nextDay", "standardDelivery", "expressDelivery", "pickup"}, names)
	assert.NotContains(t, names, "deliveryEnabled")
}

func TestEnabledServiceNames_Empty(t *testing.T) {
	names := AvailableServices{}.EnabledServiceNames()
	assert.Empty(t, names)
	assert.NotNil(t, names)
}
