package resolution

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

// Service manages resolutions and navigates the PARENT/CHILD hierarchy.
// Deleting a parent never cascades: children stay resolvable through the
// soft-deleted parent.
type Service struct {
	*record.Service[Resolution, *Resolution]
}

// NewService creates a resolution service over cfg.
func NewService(cfg record.Config[Resolution, *Resolution]) *Service {
	cfg.Entity = audit.EntityResolution
	cfg.Validate = validate
	return &Service{Service: record.NewService(cfg)}
}

// Create stores r according to its kind.
func (s *Service) Create(ctx context.Context, actor string, r Resolution) (Resolution, error) {
	switch r.Kind {
	case KindParent:
		return s.CreateParent(ctx, actor, r)
	case KindChild:
		return s.CreateChild(ctx, actor, r.ParentResolutionID, r)
	default:
		return Resolution{}, record.Invalid(audit.EntityResolution, "", "kind must be PARENT or CHILD")
	}
}

// CreateParent stores r as a PARENT resolution of its company.
func (s *Service) CreateParent(ctx context.Context, actor string, r Resolution) (Resolution, error) {
	r.Kind = KindParent
	r.ParentResolutionID = ""
	return s.createUnique(ctx, actor, r)
}

// CreateChild stores r as a CHILD of parentID. The parent must exist and be
// a PARENT; a soft-deleted parent is still a valid target.
func (s *Service) CreateChild(ctx context.Context, actor, parentID string, r Resolution) (Resolution, error) {
	if _, err := s.parent(ctx, parentID); err != nil {
		return Resolution{}, err
	}
	r.Kind = KindChild
	r.ParentResolutionID = parentID
	r.CompanyID = ""
	return s.createUnique(ctx, actor, r)
}

func (s *Service) createUnique(ctx context.Context, actor string, r Resolution) (Resolution, error) {
	r.Number = strings.TrimSpace(r.Number)
	unlock, err := s.Lock(ctx, "number:"+r.Number)
	if err != nil {
		return Resolution{}, err
	}
	defer unlock()

	if _, err := s.GetByNumber(ctx, r.Number); err == nil {
		return Resolution{}, record.Conflict(audit.EntityResolution, "", "", "number "+r.Number+" already registered")
	} else if !errors.Is(err, record.ErrNotFound) {
		return Resolution{}, err
	}
	return s.Service.Create(ctx, actor, r)
}

// Update applies patch to a live resolution. A new parent must be an
// existing PARENT resolution and a new number must not belong to another
// resolution, deleted or not.
func (s *Service) Update(ctx context.Context, m record.Mutation, patch Patch) (Resolution, error) {
	if patch.Number != nil {
		number := strings.TrimSpace(*patch.Number)
		patch.Number = &number
		unlock, err := s.Lock(ctx, "number:"+number)
		if err != nil {
			return Resolution{}, err
		}
		defer unlock()

		if other, err := s.GetByNumber(ctx, number); err == nil && other.ID != m.ID {
			return Resolution{}, record.Conflict(audit.EntityResolution, m.ID, "", "number "+number+" already registered")
		} else if err != nil && !errors.Is(err, record.ErrNotFound) {
			return Resolution{}, err
		}
	}
	if patch.ParentResolutionID != nil {
		current, err := s.Get(ctx, m.ID)
		if err != nil {
			return Resolution{}, err
		}
		if current.Kind == KindParent {
			return Resolution{}, record.Invalid(audit.EntityResolution, m.ID, "parent resolution cannot have parent_resolution_id")
		}
		if *patch.ParentResolutionID == m.ID {
			return Resolution{}, record.Invalid(audit.EntityResolution, m.ID, "resolution cannot be its own parent")
		}
		if _, err := s.parent(ctx, *patch.ParentResolutionID); err != nil {
			return Resolution{}, err
		}
	}
	return s.Service.Update(ctx, m, patch.apply)
}

// GetByNumber returns the resolution with the given number, deleted or not.
func (s *Service) GetByNumber(ctx context.Context, number string) (Resolution, error) {
	found, err := s.All(ctx, record.ScopeAll, func(r *Resolution) bool { return r.Number == number })
	if err != nil {
		return Resolution{}, err
	}
	if len(found) == 0 {
		return Resolution{}, record.NotFound(audit.EntityResolution, "number:"+number)
	}
	return found[0], nil
}

// ResolveCompanyFor returns the company a resolution belongs to. A CHILD
// resolves through its parent, one hop only.
func (s *Service) ResolveCompanyFor(ctx context.Context, id string) (string, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if r.Kind == KindParent {
		return r.CompanyID, nil
	}
	p, err := s.Get(ctx, r.ParentResolutionID)
	if errors.Is(err, record.ErrNotFound) {
		return "", record.Inconsistent(audit.EntityResolution, id, "parent "+r.ParentResolutionID+" not found")
	}
	if err != nil {
		return "", err
	}
	if p.Kind != KindParent {
		return "", record.Inconsistent(audit.EntityResolution, id, "parent "+p.ID+" is not a PARENT resolution")
	}
	return p.CompanyID, nil
}

// CheckReference verifies at read time that resolutionID exists, deleted or
// not, and resolves to companyID.
func (s *Service) CheckReference(ctx context.Context, resolutionID, companyID string) error {
	company, err := s.ResolveCompanyFor(ctx, resolutionID)
	if errors.Is(err, record.ErrNotFound) {
		return record.Inconsistent(audit.EntityResolution, resolutionID, "referenced resolution not found")
	}
	if err != nil {
		return err
	}
	if company != companyID {
		return record.Inconsistent(audit.EntityResolution, resolutionID, "belongs to company "+company+", not "+companyID)
	}
	return nil
}

// Children returns the CHILD resolutions of parentID in scope, ordered by
// issue date.
func (s *Service) Children(ctx context.Context, parentID string, scope record.Scope) ([]Resolution, error) {
	if _, err := s.parent(ctx, parentID); err != nil {
		return nil, err
	}
	children, err := s.All(ctx, scope, func(r *Resolution) bool {
		return r.Kind == KindChild && r.ParentResolutionID == parentID
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(children, func(a, b Resolution) int {
		if c := a.IssueDate.Compare(b.IssueDate); c != 0 {
			return c
		}
		return strings.Compare(a.Number, b.Number)
	})
	return children, nil
}

// List returns a page of resolutions matching f.
func (s *Service) List(ctx context.Context, f Filter) (record.Page[Resolution], error) {
	var companyParents map[string]bool
	if f.CompanyID != "" {
		parents, err := s.All(ctx, record.ScopeAll, func(r *Resolution) bool {
			return r.Kind == KindParent && r.CompanyID == f.CompanyID
		})
		if err != nil {
			return record.Page[Resolution]{}, err
		}
		companyParents = make(map[string]bool, len(parents))
		for _, p := range parents {
			companyParents[p.ID] = true
		}
	}

	return s.Service.List(ctx, record.Query[Resolution]{
		Scope: f.Scope,
		Match: func(r *Resolution) bool {
			if companyParents != nil && !companyParents[r.ID] && !companyParents[r.ParentResolutionID] {
				return false
			}
			return (f.Number == "" || r.Number == f.Number) &&
				(f.Kind == "" || r.Kind == f.Kind) &&
				(f.ParentResolutionID == "" || r.ParentResolutionID == f.ParentResolutionID) &&
				(f.ProcedureType == "" || r.ProcedureType == f.ProcedureType) &&
				(f.Active == nil || r.Active == *f.Active) &&
				(f.IssuedFrom == nil || !r.IssueDate.Before(*f.IssuedFrom)) &&
				(f.IssuedTo == nil || !r.IssueDate.After(*f.IssuedTo)) &&
				record.ContainsFold(f.Text, r.Number, r.Description)
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	})
}

// Stats summarizes live resolutions at now.
func (s *Service) Stats(ctx context.Context, now time.Time) (Report, error) {
	live, err := s.All(ctx, record.ScopeActive, nil)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Total: len(live), ByProcedure: make(map[ProcedureType]int)}
	for i := range live {
		r := &live[i]
		if r.Active {
			rep.Active++
		}
		switch {
		case r.InForce(now):
			rep.InForce++
		case now.After(r.ValidityEnd):
			rep.Expired++
		}
		if r.Kind == KindParent {
			rep.Parents++
		} else {
			rep.Children++
		}
		rep.ByProcedure[r.ProcedureType]++
	}
	return rep, nil
}

func (s *Service) parent(ctx context.Context, id string) (Resolution, error) {
	if strings.TrimSpace(id) == "" {
		return Resolution{}, record.Invalid(audit.EntityResolution, "", "parent_resolution_id required")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return Resolution{}, err
	}
	if p.Kind != KindParent {
		return Resolution{}, &record.Error{
			Kind:    record.ErrNotFound,
			Entity:  audit.EntityResolution,
			ID:      id,
			Message: "not a PARENT resolution",
		}
	}
	return p, nil
}
