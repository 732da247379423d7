package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"delivery-service/internal/models"
	"delivery-service/internal/repository"
	"delivery-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxBulkAddresses caps one bulk validation request
const MaxBulkAddresses = 50

// postalCodePattern matches the Canadian forward sortation area prefix
var postalCodePattern = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z]`)

// DeliveryHandler handles HTTP requests for delivery area operations
type DeliveryHandler struct {
	areaService *services.ServiceAreaService
	environment string
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(areaService *services.ServiceAreaService, environment string) *DeliveryHandler {
	return &DeliveryHandler{
		areaService: areaService,
		environment: environment,
	}
}

// ValidateDelivery handles POST /api/delivery/validate
func (h *DeliveryHandler) ValidateDelivery(c *gin.Context) {
	tenantID := getTenantID(c)

	var request models.ValidateDeliveryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	hasCoordinates := request.Lat != nil && request.Lng != nil
	if !hasCoordinates && request.PostalCode == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing location",
			Message: "Provide lat and lng, or a postal code",
		})
		return
	}

	result := h.areaService.ValidateLocationForBooking(c.Request.Context(), tenantID, request.Lat, request.Lng, request.PostalCode)

	response := models.ValidateDeliveryResponse{
		Success:           true,
		CanDeliver:        result.CanDeliver,
		AvailableServices: result.AvailableServices,
		Restrictions:      restrictionsFromServices(result.AvailableServices),
		Message:           result.Message,
	}
	if result.ServiceArea != nil {
		summary := areaSummary(result.ServiceArea)
		response.ServiceArea = &summary
	}

	c.JSON(http.StatusOK, response)
}

// ListAreas handles GET /api/delivery/areas
func (h *DeliveryHandler) ListAreas(c *gin.Context) {
	tenantID := getTenantID(c)

	areas, err := h.areaService.GetActiveAreas(c.Request.Context(), tenantID)
	if err != nil {
		h.internalError(c, "Failed to list service areas", err)
		return
	}

	summaries := make([]models.ServiceAreaSummary, 0, len(areas))
	for i := range areas {
		summaries = append(summaries, areaSummary(&areas[i]))
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    summaries,
	})
}

// PostalCodeLookup handles GET /api/delivery/postal/:code
func (h *DeliveryHandler) PostalCodeLookup(c *gin.Context) {
	tenantID := getTenantID(c)

	code := c.Param("code")
	if !postalCodePattern.MatchString(code) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid postal code",
			Message: "Postal code must start with a letter, digit, letter sequence",
		})
		return
	}

	normalized := models.NormalizePostalCode(code)
	areas, err := h.areaService.GetAreasForPostalCode(c.Request.Context(), tenantID, code)
	if err != nil {
		h.internalError(c, "Failed to look up postal code", err)
		return
	}

	response := models.PostalCodeLookupResponse{
		Success:      true,
		PostalCode:   normalized,
		IsServiced:   len(areas) > 0,
		ServiceAreas: make([]models.ServiceAreaSummary, 0, len(areas)),
	}
	for i := range areas {
		response.ServiceAreas = append(response.ServiceAreas, areaSummary(&areas[i]))
	}
	if len(areas) > 0 {
		response.PrimaryArea = &response.ServiceAreas[0]
		response.Message = "Delivery is available for " + normalized
	} else {
		response.Message = "Postal code " + normalized + " is not currently serviced"
	}

	c.JSON(http.StatusOK, response)
}

// BulkValidate handles POST /api/delivery/validate-bulk. Each address is
// validated in its own goroutine; one address's failure never fails the batch.
func (h *DeliveryHandler) BulkValidate(c *gin.Context) {
	tenantID := getTenantID(c)

	var request models.BulkValidateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	if len(request.Addresses) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Empty batch",
			Message: "At least one address is required",
		})
		return
	}
	if len(request.Addresses) > MaxBulkAddresses {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Batch too large",
			Message: "A maximum of 50 addresses can be validated per request",
		})
		return
	}

	ctx := c.Request.Context()
	results := make([]models.BulkValidateResult, len(request.Addresses))

	var wg sync.WaitGroup
	for i, addr := range request.Addresses {
		wg.Add(1)
		go func(index int, input models.BulkAddressInput) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[index] = models.BulkValidateResult{
						Index: index,
						Error: "validation panicked",
					}
				}
			}()

			if (input.Lat == nil || input.Lng == nil) && input.PostalCode == "" {
				results[index] = models.BulkValidateResult{
					Index: index,
					Error: "address requires lat/lng or a postal code",
				}
				return
			}

			validation := h.areaService.ValidateLocationForBooking(ctx, tenantID, input.Lat, input.Lng, input.PostalCode)
			result := models.BulkValidateResult{
				Index:      index,
				CanDeliver: validation.CanDeliver,
			}
			if validation.ServiceArea != nil {
				result.ServiceArea = validation.ServiceArea.Name
			}
			if !validation.CanDeliver && validation.Message != "" {
				result.Reasons = strings.Split(validation.Message, ". ")
			}
			results[index] = result
		}(i, addr)
	}
	wg.Wait()

	summary := models.BulkValidateSummary{Total: len(results)}
	for _, r := range results {
		if r.CanDeliver {
			summary.Serviceable++
		} else {
			summary.Unserviceable++
		}
	}

	c.JSON(http.StatusOK, models.BulkValidateResponse{
		Success: true,
		Summary: summary,
		Results: results,
	})
}

// SetupMVP handles POST /api/delivery/setup-mvp
func (h *DeliveryHandler) SetupMVP(c *gin.Context) {
	tenantID := getTenantID(c)

	result := h.areaService.SetupVancouverMVP(c.Request.Context(), tenantID)

	c.JSON(http.StatusOK, models.SeedResponse{
		Success: true,
		Created: result.Created,
		Errors:  result.Errors,
	})
}

// Stats handles GET /api/delivery/stats
func (h *DeliveryHandler) Stats(c *gin.Context) {
	tenantID := getTenantID(c)

	stats, err := h.areaService.GetStats(c.Request.Context(), tenantID)
	if err != nil {
		h.internalError(c, "Failed to compute delivery stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CreateAreaRequest is the admin area-creation input. BoundaryType selects
// which boundary fields are required.
type CreateAreaRequest struct {
	Name         string                     `json:"name" binding:"required"`
	Description  string                     `json:"description"`
	BoundaryType models.BoundaryType        `json:"boundaryType" binding:"required"`
	PostalCodes  []string                   `json:"postalCodes"`
	CenterLat    *float64                   `json:"centerLat"`
	CenterLng    *float64                   `json:"centerLng"`
	RadiusKm     *float64                   `json:"radiusKm"`
	Polygon      models.PolygonRing         `json:"polygon"`
	Priority     int                        `json:"priority"`
	Config       *models.ServiceConfigPatch `json:"serviceConfig"`
}

// CreateArea handles POST /api/delivery/areas
func (h *DeliveryHandler) CreateArea(c *gin.Context) {
	tenantID := getTenantID(c)

	var request CreateAreaRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	var area *models.ServiceArea
	var err error

	switch request.BoundaryType {
	case models.BoundaryPostalCodes:
		if len(request.PostalCodes) == 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid boundary",
				Message: "postalCodes is required for a postal_codes area",
			})
			return
		}
		area, err = h.areaService.CreatePostalCodeArea(ctx, tenantID, request.Name, request.Description, request.PostalCodes, request.Priority, request.Config)
	case models.BoundaryRadius:
		if request.CenterLat == nil || request.CenterLng == nil || request.RadiusKm == nil || *request.RadiusKm <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid boundary",
				Message: "centerLat, centerLng and a positive radiusKm are required for a radius area",
			})
			return
		}
		area, err = h.areaService.CreateRadiusArea(ctx, tenantID, request.Name, request.Description, *request.CenterLat, *request.CenterLng, *request.RadiusKm, request.Priority, request.Config)
	case models.BoundaryPolygon:
		if len(request.Polygon) < 3 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid boundary",
				Message: "polygon requires at least 3 vertices",
			})
			return
		}
		area, err = h.areaService.CreatePolygonArea(ctx, tenantID, request.Name, request.Description, request.Polygon, request.Priority, request.Config)
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid boundary type",
			Message: "boundaryType must be one of postal_codes, radius, polygon",
		})
		return
	}

	if err != nil {
		h.internalError(c, "Failed to create service area", err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    area,
		Message: stringPtr("Service area created"),
	})
}

// UpdateAreaStatus handles PUT /api/delivery/areas/:id/status
func (h *DeliveryHandler) UpdateAreaStatus(c *gin.Context) {
	tenantID := getTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid area ID",
			Message: "Area ID must be a valid UUID",
		})
		return
	}

	var request struct {
		Status models.AreaStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	switch request.Status {
	case models.AreaStatusActive, models.AreaStatusInactive, models.AreaStatusPlanned:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid status",
			Message: "Status must be one of active, inactive, planned",
		})
		return
	}

	if err := h.areaService.UpdateAreaStatus(c.Request.Context(), id, tenantID, request.Status); err != nil {
		h.internalError(c, "Failed to update area status", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Area status updated"),
	})
}

// AddPostalCodes handles POST /api/delivery/areas/:id/postal-codes
func (h *DeliveryHandler) AddPostalCodes(c *gin.Context) {
	h.mutatePostalCodes(c, h.areaService.AddPostalCodesToArea)
}

// RemovePostalCodes handles DELETE /api/delivery/areas/:id/postal-codes
func (h *DeliveryHandler) RemovePostalCodes(c *gin.Context) {
	h.mutatePostalCodes(c, h.areaService.RemovePostalCodesFromArea)
}

// UpdateServiceConfig handles PUT /api/delivery/areas/:id/service-config.
// The body must be the complete desired config; omitted flags become false.
func (h *DeliveryHandler) UpdateServiceConfig(c *gin.Context) {
	tenantID := getTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid area ID",
			Message: "Area ID must be a valid UUID",
		})
		return
	}

	var config models.ServiceConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	area, err := h.areaService.UpdateServiceConfig(c.Request.Context(), id, tenantID, config)
	if err != nil {
		h.internalError(c, "Failed to update service config", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    area,
	})
}

// HealthCheck handles GET /health
func (h *DeliveryHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "delivery-service",
	})
}

// ==================== helpers ====================

func (h *DeliveryHandler) mutatePostalCodes(c *gin.Context, mutate func(ctx context.Context, id uuid.UUID, tenantID string, codes []string) (*models.ServiceArea, error)) {
	tenantID := getTenantID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid area ID",
			Message: "Area ID must be a valid UUID",
		})
		return
	}

	var request struct {
		PostalCodes []string `json:"postalCodes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	area, err := mutate(c.Request.Context(), id, tenantID, request.PostalCodes)
	if err != nil {
		h.internalError(c, "Failed to update postal codes", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    area,
	})
}

// restrictionsFromServices derives the boolean convenience view by
// membership-testing the capability name array
func restrictionsFromServices(names []string) models.DeliveryRestrictions {
	has := func(name string) bool {
		for _, n := range names {
			if n == name {
				return true
			}
		}
		return false
	}
	return models.DeliveryRestrictions{
		SameDay:          has("sameDay"),
		NextDay:          has("nextDay"),
		StandardDelivery: has("standardDelivery"),
		ExpressDelivery:  has("expressDelivery"),
		Pickup:           has("pickup"),
	}
}

// areaSummary projects only the fields relevant to the area's boundary type
func areaSummary(area *models.ServiceArea) models.ServiceAreaSummary {
	summary := models.ServiceAreaSummary{
		ID:             area.ID.String(),
		Name:           area.Name,
		Description:    area.Description,
		BoundaryType:   area.BoundaryType,
		ServiceConfig:  area.ServiceConfig,
		Priority:       area.Priority,
		Status:         area.Status,
		OperatingHours: area.OperatingHours,
	}

	switch area.BoundaryType {
	case models.BoundaryPostalCodes:
		summary.PostalCodes = area.PostalCodes
	case models.BoundaryRadius:
		lat, lng, radius := area.CenterLat, area.CenterLng, area.RadiusKm
		summary.CenterLat = &lat
		summary.CenterLng = &lng
		summary.RadiusKm = &radius
	case models.BoundaryPolygon:
		summary.Polygon = area.Polygon
	}

	return summary
}

// internalError writes a 404 for missing records and a 500 otherwise,
// exposing error detail only outside production
func (h *DeliveryHandler) internalError(c *gin.Context, message string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: "Service area not found",
		})
		return
	}

	detail := "internal server error"
	if h.environment != "production" {
		detail = err.Error()
	}
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   message,
		Message: detail,
	})
}

// getTenantID extracts tenant ID from context
func getTenantID(c *gin.Context) string {
	// Set by IstioAuth middleware from x-jwt-claim-tenant-id
	tenantID := c.GetString("tenant_id")

	// Fall back to header
	if tenantID == "" {
		tenantID = c.GetHeader("X-Tenant-ID")
	}

	return tenantID
}

// stringPtr returns a pointer to a string
func stringPtr(s string) *string {
	return &s
}
