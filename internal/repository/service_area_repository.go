package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"delivery-service/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// ServiceAreaRepository handles database operations for service areas
type ServiceAreaRepository interface {
	Create(ctx context.Context, area *models.ServiceArea) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID string) (*models.ServiceArea, error)
	GetByName(ctx context.Context, tenantID, name string) (*models.ServiceArea, error)
	ListActive(ctx context.Context, tenantID string) ([]models.ServiceArea, error)
	ListActiveByBoundaryType(ctx context.Context, tenantID string, boundaryType models.BoundaryType) ([]models.ServiceArea, error)
	ListActiveGeographic(ctx context.Context, tenantID string) ([]models.ServiceArea, error)
	Update(ctx context.Context, area *models.ServiceArea) error
	UpdateStatus(ctx context.Context, id uuid.UUID, tenantID string, status models.AreaStatus) error
	CountByStatus(ctx context.Context, tenantID string, status models.AreaStatus) (int64, error)
	CountAll(ctx context.Context, tenantID string) (int64, error)
	CountByBoundaryType(ctx context.Context, tenantID string) (map[string]int64, error)
	CountActiveWithCapability(ctx context.Context, tenantID string, capabilityColumn string) (int64, error)
}

type serviceAreaRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
	cacheTTL    time.Duration
}

// NewServiceAreaRepository creates a new service area repository.
// redisClient may be nil; caching is then skipped entirely.
func NewServiceAreaRepository(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration) ServiceAreaRepository {
	return &serviceAreaRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

// Create creates a new service area
func (r *serviceAreaRepository) Create(ctx context.Context, area *models.ServiceArea) error {
	if area.ID == uuid.Nil {
		area.ID = uuid.New()
	}
	if err := area.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(area).Error; err != nil {
		return err
	}
	r.invalidateCache(ctx, area.TenantID)
	return nil
}

// GetByID retrieves a service area by ID
func (r *serviceAreaRepository) GetByID(ctx context.Context, id uuid.UUID, tenantID string) (*models.ServiceArea, error) {
	var area models.ServiceArea
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&area).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &area, nil
}

// GetByName retrieves a service area by its unique name within the tenant
func (r *serviceAreaRepository) GetByName(ctx context.Context, tenantID, name string) (*models.ServiceArea, error) {
	var area models.ServiceArea
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&area).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &area, nil
}

// loadActive retrieves all active areas in validation order: priority
// descending, ties broken by insertion order then name. The result is cached
// in Redis; every validation read goes through this list.
func (r *serviceAreaRepository) loadActive(ctx context.Context, tenantID string) ([]models.ServiceArea, error) {
	if cached, ok := r.getCachedActive(ctx, tenantID); ok {
		return cached, nil
	}

	var areas []models.ServiceArea
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.AreaStatusActive).
		Order("priority DESC, created_at ASC, name ASC").
		Find(&areas).Error
	if err != nil {
		return nil, err
	}

	r.setCachedActive(ctx, tenantID, areas)
	return areas, nil
}

// ListActive retrieves all active areas in display order: priority descending,
// then name ascending. Display ordering ignores creation time, so equal-priority
// areas always list alphabetically regardless of when they were added.
func (r *serviceAreaRepository) ListActive(ctx context.Context, tenantID string) ([]models.ServiceArea, error) {
	areas, err := r.loadActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return sortForDisplay(areas), nil
}

// ListActiveByBoundaryType retrieves active areas of one boundary type in
// validation order
func (r *serviceAreaRepository) ListActiveByBoundaryType(ctx context.Context, tenantID string, boundaryType models.BoundaryType) ([]models.ServiceArea, error) {
	areas, err := r.loadActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return filterByBoundaryType(areas, boundaryType), nil
}

// ListActiveGeographic retrieves active radius and polygon areas for
// coordinate containment checks, in validation order
func (r *serviceAreaRepository) ListActiveGeographic(ctx context.Context, tenantID string) ([]models.ServiceArea, error) {
	areas, err := r.loadActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return filterByBoundaryType(areas, models.BoundaryRadius, models.BoundaryPolygon), nil
}

// sortForDisplay re-orders a validation-ordered list for display: priority
// descending, name ascending. The input is not mutated.
func sortForDisplay(areas []models.ServiceArea) []models.ServiceArea {
	sorted := make([]models.ServiceArea, len(areas))
	copy(sorted, areas)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// filterByBoundaryType keeps areas of the given boundary types, preserving order
func filterByBoundaryType(areas []models.ServiceArea, types ...models.BoundaryType) []models.ServiceArea {
	filtered := make([]models.ServiceArea, 0, len(areas))
	for _, area := range areas {
		for _, t := range types {
			if area.BoundaryType == t {
				filtered = append(filtered, area)
				break
			}
		}
	}
	return filtered
}

// Update saves a full service area row. Last write wins; there is no
// optimistic locking on area mutations.
func (r *serviceAreaRepository) Update(ctx context.Context, area *models.ServiceArea) error {
	if err := area.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(area).Error; err != nil {
		return err
	}
	r.invalidateCache(ctx, area.TenantID)
	return nil
}

// UpdateStatus transitions an area's status. All statuses are reachable from
// any other; there is no transition graph.
func (r *serviceAreaRepository) UpdateStatus(ctx context.Context, id uuid.UUID, tenantID string, status models.AreaStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.ServiceArea{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.invalidateCache(ctx, tenantID)
	return nil
}

// CountByStatus counts areas in one status
func (r *serviceAreaRepository) CountByStatus(ctx context.Context, tenantID string, status models.AreaStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceArea{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error
	return count, err
}

// CountAll counts all areas for a tenant
func (r *serviceAreaRepository) CountAll(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceArea{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// CountByBoundaryType returns area counts keyed by boundary type
func (r *serviceAreaRepository) CountByBoundaryType(ctx context.Context, tenantID string) (map[string]int64, error) {
	type row struct {
		BoundaryType string
		Count        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ServiceArea{}).
		Select("boundary_type, count(*) as count").
		Where("tenant_id = ?", tenantID).
		Group("boundary_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.BoundaryType] = row.Count
	}
	return counts, nil
}

// CountActiveWithCapability counts active areas with the given capability
// column enabled. The column name comes from a fixed internal list, never
// from user input.
func (r *serviceAreaRepository) CountActiveWithCapability(ctx context.Context, tenantID string, capabilityColumn string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceArea{}).
		Where(fmt.Sprintf("tenant_id = ? AND status = ? AND %s = true", capabilityColumn),
			tenantID, models.AreaStatusActive).
		Count(&count).Error
	return count, err
}

// ==================== Redis cache helpers ====================

func activeAreasCacheKey(tenantID string) string {
	return fmt.Sprintf("delivery:areas:active:%s", tenantID)
}

func (r *serviceAreaRepository) getCachedActive(ctx context.Context, tenantID string) ([]models.ServiceArea, bool) {
	if r.redisClient == nil {
		return nil, false
	}
	data, err := r.redisClient.Get(ctx, activeAreasCacheKey(tenantID)).Bytes()
	if err != nil {
		return nil, false
	}
	var areas []models.ServiceArea
	if err := json.Unmarshal(data, &areas); err != nil {
		return nil, false
	}
	return areas, true
}

func (r *serviceAreaRepository) setCachedActive(ctx context.Context, tenantID string, areas []models.ServiceArea) {
	if r.redisClient == nil {
		return
	}
	data, err := json.Marshal(areas)
	if err != nil {
		return
	}
	r.redisClient.Set(ctx, activeAreasCacheKey(tenantID), data, r.cacheTTL)
}

func (r *serviceAreaRepository) invalidateCache(ctx context.Context, tenantID string) {
	if r.redisClient == nil {
		return
	}
	r.redisClient.Del(ctx, activeAreasCacheKey(tenantID))
}
