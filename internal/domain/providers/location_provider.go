package providers

import (
	"context"
	"errors"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
)

// Location acquisition failures. Each is reported on its own so callers can tell the user what happened.
var (
	ErrPermissionDenied    = errors.New("location: permission denied")
	ErrPositionUnavailable = errors.New("location: position unavailable")
	ErrTimeout             = errors.New("location: timed out")
)

// LocationProvider produces a single fix for the current user
type LocationProvider interface {
	CurrentLocation(ctx context.Context) (entities.Location, error)
}
