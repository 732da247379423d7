package repository

import "delivery-service/internal/models"

// SeedZone describes one zone of the Vancouver MVP rollout
type SeedZone struct {
	Name        string
	Description string
	PostalCodes []string
	Priority    int
	Config      *models.ServiceConfigPatch
}

func boolPtr(b bool) *bool { return &b }

// VancouverMVPZones returns the fixed MVP zone definitions. The service layer
// checks existence by name before creating each one, so repeated seeding does
// not duplicate zones.
func VancouverMVPZones() []SeedZone {
	return []SeedZone{
		{
			Name:        "Downtown Vancouver",
			Description: "Downtown core including Yaletown, Coal Harbour and the West End",
			PostalCodes: []string{"V6B", "V6C", "V6E", "V6G", "V6Z"},
			Priority:    100,
			Config: &models.ServiceConfigPatch{
				SameDay:         boolPtr(true),
				ExpressDelivery: boolPtr(true),
			},
		},
		{
			Name:        "Vancouver West Side",
			Description: "Kitsilano, Point Grey, Dunbar and Kerrisdale",
			PostalCodes: []string{"V6J", "V6K", "V6L", "V6M", "V6N", "V6P", "V6R", "V6S", "V6T"},
			Priority:    90,
			Config: &models.ServiceConfigPatch{
				SameDay: boolPtr(true),
			},
		},
		{
			Name:        "Vancouver East Side",
			Description: "Mount Pleasant, Commercial Drive, Hastings-Sunrise and Renfrew",
			PostalCodes: []string{"V5K", "V5L", "V5M", "V5N", "V5P", "V5R", "V5S", "V5T", "V5V", "V5W", "V5X", "V5Y", "V5Z", "V6A"},
			Priority:    90,
			Config: &models.ServiceConfigPatch{
				SameDay: boolPtr(true),
			},
		},
		{
			Name:        "North Vancouver",
			Description: "City and District of North Vancouver",
			PostalCodes: []string{"V7G", "V7H", "V7J", "V7K", "V7L", "V7M", "V7N", "V7P", "V7R"},
			Priority:    70,
		},
		{
			Name:        "West Vancouver",
			Description: "West Vancouver including Ambleside and Dundarave",
			PostalCodes: []string{"V7S", "V7T", "V7V", "V7W"},
			Priority:    70,
		},
		{
			Name:        "Burnaby",
			Description: "Burnaby including Metrotown, Brentwood and Lougheed",
			PostalCodes: []string{"V3J", "V3N", "V5A", "V5B", "V5C", "V5E", "V5G", "V5H", "V5J"},
			Priority:    80,
		},
		{
			Name:        "Richmond",
			Description: "Richmond including the city centre and Steveston",
			PostalCodes: []string{"V6V", "V6W", "V6X", "V6Y", "V7A", "V7B", "V7C", "V7E"},
			Priority:    75,
			Config: &models.ServiceConfigPatch{
				PickupEnabled: boolPtr(false),
			},
		},
	}
}
