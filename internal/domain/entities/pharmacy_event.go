package entities

import (
	"time"

	"github.com/google/uuid"
)

// PharmacyEventType represents the kind of change made to the point store
type PharmacyEventType string

const (
	PharmacyEventCreated    PharmacyEventType = "created"
	PharmacyEventUpdated    PharmacyEventType = "updated"
	PharmacyEventDeleted    PharmacyEventType = "deleted"
	PharmacyEventBulkLoaded PharmacyEventType = "bulk_loaded"
)

// PharmacyEvent is published by whoever mutates pharmacy records
type PharmacyEvent struct {
	ID         string            `json:"id"`
	PharmacyID int64             `json:"pharmacy_id,omitempty"`
	Type       PharmacyEventType `json:"type"`
	Province   string            `json:"province,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewPharmacyEvent creates a new pharmacy event
func NewPharmacyEvent(pharmacyID int64, eventType PharmacyEventType, province string) *PharmacyEvent {
	return &PharmacyEvent{
		ID:         uuid.NewString(),
		PharmacyID: pharmacyID,
		Type:       eventType,
		Province:   province,
		Timestamp:  time.Now().UTC(),
	}
}
