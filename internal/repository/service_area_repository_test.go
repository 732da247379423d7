package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"delivery-service/internal/models"
)

func activeArea(name string, priority int, boundaryType models.BoundaryType, createdAt time.Time) models.ServiceArea {
	return models.ServiceArea{
		ID:           uuid.New(),
		TenantID:     "tenant-1",
		Name:         name,
		BoundaryType: boundaryType,
		Priority:     priority,
		Status:       models.AreaStatusActive,
		CreatedAt:    createdAt,
	}
}

func areaNames(areas []models.ServiceArea) []string {
	names := make([]string, len(areas))
	for i, a := range areas {
		names[i] = a.Name
	}
	return names
}

func TestSortForDisplay_EqualPriorityOrdersByName(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Validation order ties on creation time: West Side was seeded before East
	// Side at the same priority. Display order must ignore that and go by name.
	validationOrdered := []models.ServiceArea{
		activeArea("Downtown Vancouver", 100, models.BoundaryPostalCodes, base),
		activeArea("Vancouver West Side", 90, models.BoundaryPostalCodes, base.Add(time.Minute)),
		activeArea("Vancouver East Side", 90, models.BoundaryPostalCodes, base.Add(2*time.Minute)),
		activeArea("North Vancouver", 70, models.BoundaryPostalCodes, base.Add(3*time.Minute)),
	}

	sorted := sortForDisplay(validationOrdered)

	assert.Equal(t, []string{
		"Downtown Vancouver",
		"Vancouver East Side",
		"Vancouver West Side",
		"North Vancouver",
	}, areaNames(sorted))
}

func TestSortForDisplay_DoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	areas := []models.ServiceArea{
		activeArea("B Zone", 50, models.BoundaryPostalCodes, base),
		activeArea("A Zone", 50, models.BoundaryPostalCodes, base.Add(time.Minute)),
	}

	_ = sortForDisplay(areas)

	// The validation-ordered slice keeps its creation-time tie-break
	assert.Equal(t, []string{"B Zone", "A Zone"}, areaNames(areas))
}

func TestFilterByBoundaryType_SingleType(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	areas := []models.ServiceArea{
		activeArea("Postal High", 100, models.BoundaryPostalCodes, base),
		activeArea("Radius Mid", 80, models.BoundaryRadius, base),
		activeArea("Postal Low", 50, models.BoundaryPostalCodes, base),
	}

	filtered := filterByBoundaryType(areas, models.BoundaryPostalCodes)

	assert.Equal(t, []string{"Postal High", "Postal Low"}, areaNames(filtered))
}

func TestFilterByBoundaryType_GeographicPreservesValidationOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	areas := []models.ServiceArea{
		activeArea("Postal High", 100, models.BoundaryPostalCodes, base),
		activeArea("Polygon Mid", 80, models.BoundaryPolygon, base),
		activeArea("Radius Low", 50, models.BoundaryRadius, base),
	}

	filtered := filterByBoundaryType(areas, models.BoundaryRadius, models.BoundaryPolygon)

	// Postal areas are excluded; relative priority order is untouched
	assert.Equal(t, []string{"Polygon Mid", "Radius Low"}, areaNames(filtered))
}

func TestFilterByBoundaryType_Empty(t *testing.T) {
	filtered := filterByBoundaryType(nil, models.BoundaryRadius)
	assert.NotNil(t, filtered)
	assert.Empty(t, filtered)
}
