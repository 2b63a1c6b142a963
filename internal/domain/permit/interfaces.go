package permit

import (
	"context"

	"github.com/rpggio/padron/internal/domain/fleet"
)

// VehicleReader reads vehicles regardless of their deleted state.
type VehicleReader interface {
	Get(ctx context.Context, id string) (fleet.Vehicle, error)
}

// ResolutionChecker verifies that a resolution exists and belongs to a company.
type ResolutionChecker interface {
	CheckReference(ctx context.Context, resolutionID, companyID string) error
}
