package events

import (
	"context"
	"os"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/sirupsen/logrus"
)

// Delivery event types
const (
	AreaCreated       = "delivery.area_created"
	AreaUpdated       = "delivery.area_updated"
	AreaStatusChanged = "delivery.area_status_changed"
	MVPSeeded         = "delivery.mvp_seeded"
)

// DeliveryEvent represents a delivery-area-related event
type DeliveryEvent struct {
	events.BaseEvent
	AreaID       string   `json:"areaId,omitempty"`
	AreaName     string   `json:"areaName,omitempty"`
	BoundaryType string   `json:"boundaryType,omitempty"`
	Status       string   `json:"status,omitempty"`
	SeededZones  []string `json:"seededZones,omitempty"`
}

func (e *DeliveryEvent) GetSubject() string {
	return e.EventType
}

func (e *DeliveryEvent) GetStream() string {
	return "DELIVERY_EVENTS"
}

// Publisher wraps the shared events publisher for delivery-specific events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewPublisher creates a new delivery events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "delivery-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := publisher.EnsureStream(ctx, "DELIVERY_EVENTS", []string{"delivery.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure DELIVERY_EVENTS stream")
	}

	return &Publisher{
		publisher: publisher,
		logger:    logger.WithField("component", "events.publisher"),
	}, nil
}

// PublishAreaCreated publishes a service area created event
func (p *Publisher) PublishAreaCreated(ctx context.Context, tenantID, areaID, areaName, boundaryType string) error {
	event := &DeliveryEvent{
		BaseEvent: events.BaseEvent{
			EventType: AreaCreated,
			TenantID:  tenantID,
			Timestamp: time.Now().UTC(),
		},
		AreaID:       areaID,
		AreaName:     areaName,
		BoundaryType: boundaryType,
		Status:       "active",
	}

	return p.publisher.Publish(ctx, event)
}

// PublishAreaStatusChanged publishes a service area status change event
func (p *Publisher) PublishAreaStatusChanged(ctx context.Context, tenantID, areaID, status string) error {
	event := &DeliveryEvent{
		BaseEvent: events.BaseEvent{
			EventType: AreaStatusChanged,
			TenantID:  tenantID,
			Timestamp: time.Now().UTC(),
		},
		AreaID: areaID,
		Status: status,
	}

	return p.publisher.Publish(ctx, event)
}

// PublishMVPSeeded publishes a bulk seed completion event
func (p *Publisher) PublishMVPSeeded(ctx context.Context, tenantID string, seededZones []string) error {
	event := &DeliveryEvent{
		BaseEvent: events.BaseEvent{
			EventType: MVPSeeded,
			TenantID:  tenantID,
			Timestamp: time.Now().UTC(),
		},
		SeededZones: seededZones,
	}

	return p.publisher.Publish(ctx, event)
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p.publisher.IsConnected()
}

// Close closes the publisher connection
func (p *Publisher) Close() {
	p.publisher.Close()
}
