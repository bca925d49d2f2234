package providers

import (
	"context"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.PharmacyEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.PharmacyEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelPharmacyUpdates carries every change to pharmacy records
const EventChannelPharmacyUpdates = "pharmacy:updates"
