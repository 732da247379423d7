package models

// ValidateDeliveryRequest is the booking-facing validation input.
// At least one of {Lat,Lng} or PostalCode must be supplied.
type ValidateDeliveryRequest struct {
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	PostalCode string   `json:"postalCode"`
	Address    string   `json:"address"`
}

// DeliveryRestrictions is the denormalized boolean view of the capability array,
// kept for frontend convenience alongside the raw names.
type DeliveryRestrictions struct {
	SameDay          bool `json:"sameDay"`
	NextDay          bool `json:"nextDay"`
	StandardDelivery bool `json:"standardDelivery"`
	ExpressDelivery  bool `json:"expressDelivery"`
	Pickup           bool `json:"pickup"`
}

// ServiceAreaSummary is the boundary-type-conditional projection of an area
type ServiceAreaSummary struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	BoundaryType   BoundaryType   `json:"boundaryType"`
	PostalCodes    []string       `json:"postalCodes,omitempty"`
	CenterLat      *float64       `json:"centerLat,omitempty"`
	CenterLng      *float64       `json:"centerLng,omitempty"`
	RadiusKm       *float64       `json:"radiusKm,omitempty"`
	Polygon        PolygonRing    `json:"polygon,omitempty"`
	ServiceConfig  ServiceConfig  `json:"serviceConfig"`
	Priority       int            `json:"priority"`
	Status         AreaStatus     `json:"status"`
	OperatingHours OperatingHours `json:"operatingHours,omitempty"`
}

// ValidateDeliveryResponse is the POST /validate success shape
type ValidateDeliveryResponse struct {
	Success           bool                 `json:"success"`
	CanDeliver        bool                 `json:"canDeliver"`
	ServiceArea       *ServiceAreaSummary  `json:"serviceArea,omitempty"`
	AvailableServices []string             `json:"availableServices"`
	Restrictions      DeliveryRestrictions `json:"restrictions"`
	Message           string               `json:"message"`
}

// PostalCodeLookupResponse is the GET /postal/:code success shape
type PostalCodeLookupResponse struct {
	Success      bool                 `json:"success"`
	PostalCode   string               `json:"postalCode"`
	IsServiced   bool                 `json:"isServiced"`
	ServiceAreas []ServiceAreaSummary `json:"serviceAreas"`
	PrimaryArea  *ServiceAreaSummary  `json:"primaryArea,omitempty"`
	Message      string               `json:"message"`
}

// BulkAddressInput is one entry of a bulk validation request
type BulkAddressInput struct {
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	PostalCode string   `json:"postalCode"`
	Address    string   `json:"address"`
}

// BulkValidateRequest is the POST /validate-bulk input
type BulkValidateRequest struct {
	Addresses []BulkAddressInput `json:"addresses" binding:"required"`
}

// BulkValidateResult is one row of a bulk validation response
type BulkValidateResult struct {
	Index       int      `json:"index"`
	CanDeliver  bool     `json:"canDeliver"`
	ServiceArea string   `json:"serviceArea,omitempty"`
	Reasons     []string `json:"reasons,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// BulkValidateSummary aggregates a bulk validation run
type BulkValidateSummary struct {
	Total         int `json:"total"`
	Serviceable   int `json:"serviceable"`
	Unserviceable int `json:"unserviceable"`
}

// BulkValidateResponse is the POST /validate-bulk success shape
type BulkValidateResponse struct {
	Success bool                 `json:"success"`
	Summary BulkValidateSummary  `json:"summary"`
	Results []BulkValidateResult `json:"results"`
}

// StatsOverview holds top-level area counts
type StatsOverview struct {
	TotalAreas       int64 `json:"totalAreas"`
	ActiveAreas      int64 `json:"activeAreas"`
	InactiveAreas    int64 `json:"inactiveAreas"`
	PlannedAreas     int64 `json:"plannedAreas"`
	TotalPostalCodes int   `json:"totalPostalCodes"`
}

// StatsResponse is the GET /stats success shape
type StatsResponse struct {
	Success             bool             `json:"success"`
	Overview            StatsOverview    `json:"overview"`
	AreasByType         map[string]int64 `json:"areasByType"`
	ServiceCapabilities map[string]int64 `json:"serviceCapabilities"`
}

// SeedResponse is the POST /setup-mvp success shape
type SeedResponse struct {
	Success bool     `json:"success"`
	Created []string `json:"created"`
	Errors  []string `json:"errors"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message,omitempty"`
}
