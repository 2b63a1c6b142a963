package fleet

import "context"

// ResolutionChecker verifies that a resolution exists and belongs to a company.
type ResolutionChecker interface {
	CheckReference(ctx context.Context, resolutionID, companyID string) error
}
