package resolution

import (
	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

func validate(r *Resolution) error {
	if err := record.CheckFields(audit.EntityResolution, r.ID, r); err != nil {
		return err
	}
	switch r.Kind {
	case KindParent:
		if r.CompanyID == "" {
			return record.Invalid(audit.EntityResolution, r.ID, "parent resolution requires company_id")
		}
		if r.ParentResolutionID != "" {
			return record.Invalid(audit.EntityResolution, r.ID, "parent resolution cannot have parent_resolution_id")
		}
	case KindChild:
		if r.ParentResolutionID == "" {
			return record.Invalid(audit.EntityResolution, r.ID, "child resolution requires parent_resolution_id")
		}
		if r.CompanyID != "" {
			return record.Invalid(audit.EntityResolution, r.ID, "child resolution inherits its company")
		}
		if r.ParentResolutionID == r.ID {
			return record.Invalid(audit.EntityResolution, r.ID, "resolution cannot be its own parent")
		}
	}
	if r.ValidityEnd.Before(r.ValidityStart) {
		return record.Invalid(audit.EntityResolution, r.ID, "validity_end before validity_start")
	}
	return nil
}

func (p Patch) apply(r *Resolution) error {
	if p.CompanyID != nil && r.Kind == KindChild {
		return record.Invalid(audit.EntityResolution, r.ID, "child resolution inherits its company")
	}
	if p.ParentResolutionID != nil && r.Kind == KindParent {
		return record.Invalid(audit.EntityResolution, r.ID, "parent resolution cannot have parent_resolution_id")
	}
	set(&r.Number, p.Number)
	set(&r.CompanyID, p.CompanyID)
	set(&r.ParentResolutionID, p.ParentResolutionID)
	set(&r.ProcedureType, p.ProcedureType)
	set(&r.Description, p.Description)
	set(&r.IssueDate, p.IssueDate)
	set(&r.ValidityStart, p.ValidityStart)
	set(&r.ValidityEnd, p.ValidityEnd)
	set(&r.CaseFileID, p.CaseFileID)
	set(&r.DocumentID, p.DocumentID)
	set(&r.Active, p.Active)
	return nil
}

func set[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}
