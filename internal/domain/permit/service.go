package permit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

// Service manages circulation permits.
type Service struct {
	*record.Service[Permit, *Permit]
	vehicles    VehicleReader
	resolutions ResolutionChecker
	clock       record.Clock
}

// NewService creates a permit service. vehicles and resolutions are only
// consulted by Verify.
func NewService(cfg record.Config[Permit, *Permit], vehicles VehicleReader, resolutions ResolutionChecker) *Service {
	cfg.Entity = audit.EntityPermit
	cfg.Validate = validate
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		Service:     record.NewService(cfg),
		vehicles:    vehicles,
		resolutions: resolutions,
		clock:       clock,
	}
}

func validate(p *Permit) error {
	if err := record.CheckFields(audit.EntityPermit, p.ID, p); err != nil {
		return err
	}
	if p.State.RequiresReason() && strings.TrimSpace(p.DiscardReason) == "" {
		return record.Invalid(audit.EntityPermit, p.ID, fmt.Sprintf("state %s requires a discard reason", p.State))
	}
	return nil
}

// Create issues a permit in state VALID unless another state is given. An
// empty number is assigned as T-NNNNNN-YYYY.
func (s *Service) Create(ctx context.Context, actor string, p Permit) (Permit, error) {
	if p.State == "" {
		p.State = StateValid
	}
	unlock, err := s.Lock(ctx, "number")
	if err != nil {
		return Permit{}, err
	}
	defer unlock()

	existing, err := s.All(ctx, record.ScopeAll, nil)
	if err != nil {
		return Permit{}, err
	}
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[e.Number] = true
	}

	p.Number = strings.TrimSpace(p.Number)
	if p.Number == "" {
		year := p.IssueDate.Year()
		if p.IssueDate.IsZero() {
			year = s.clock().Year()
		}
		for n := len(existing) + 1; ; n++ {
			candidate := fmt.Sprintf("T-%06d-%d", n, year)
			if !taken[candidate] {
				p.Number = candidate
				break
			}
		}
	} else if taken[p.Number] {
		return Permit{}, record.Conflict(audit.EntityPermit, "", "", "number "+p.Number+" already registered")
	}
	return s.Service.Create(ctx, actor, p)
}

// Update applies patch to a live permit.
func (s *Service) Update(ctx context.Context, m record.Mutation, patch Patch) (Permit, error) {
	return s.Service.Update(ctx, m, func(p *Permit) error {
		setIf(&p.VehicleID, patch.VehicleID)
		setIf(&p.ParentResolutionID, patch.ParentResolutionID)
		setIf(&p.IssueDate, patch.IssueDate)
		setIf(&p.ExpiryDate, patch.ExpiryDate)
		setIf(&p.DocumentID, patch.DocumentID)
		setIf(&p.VerificationURL, patch.VerificationURL)
		return nil
	})
}

// ChangeState moves a permit to state. DISCARDED and WITHDRAWN need a
// reason, which is kept as the discard reason; other states clear it.
func (s *Service) ChangeState(ctx context.Context, m record.Mutation, state State) (Permit, error) {
	return s.Service.Update(ctx, m, func(p *Permit) error {
		if p.State == state {
			return record.Conflict(audit.EntityPermit, p.ID, string(p.State), "permit already in state")
		}
		p.State = state
		if state.RequiresReason() {
			p.DiscardReason = m.Reason
		} else {
			p.DiscardReason = ""
		}
		return nil
	})
}

// ExpireDue moves every live VALID permit whose expiry date is before now to
// EXPIRED, one versioned update per permit. It returns the expired permits;
// on error the permits expired so far are returned with it.
func (s *Service) ExpireDue(ctx context.Context, actor string, now time.Time) ([]Permit, error) {
	due, err := s.All(ctx, record.ScopeActive, func(p *Permit) bool {
		return p.State == StateValid && p.ExpiryDate.Before(now)
	})
	if err != nil {
		return nil, err
	}
	expired := make([]Permit, 0, len(due))
	for _, p := range due {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		next, err := s.ChangeState(ctx, record.Mutation{
			ID:              p.ID,
			Actor:           actor,
			Note:            "expiry date reached",
			ExpectedVersion: p.Version,
		}, StateExpired)
		if err != nil {
			if errors.Is(err, record.ErrConflict) {
				// Changed since it was listed; the next run picks it up.
				continue
			}
			return expired, err
		}
		expired = append(expired, next)
	}
	return expired, nil
}

// GetByNumber returns the permit with the given number, deleted or not.
func (s *Service) GetByNumber(ctx context.Context, number string) (Permit, error) {
	found, err := s.All(ctx, record.ScopeAll, func(p *Permit) bool { return p.Number == number })
	if err != nil {
		return Permit{}, err
	}
	if len(found) == 0 {
		return Permit{}, record.NotFound(audit.EntityPermit, "number:"+number)
	}
	return found[0], nil
}

// List returns a page of permits matching f.
func (s *Service) List(ctx context.Context, f Filter) (record.Page[Permit], error) {
	return s.Service.List(ctx, record.Query[Permit]{
		Scope: f.Scope,
		Match: func(p *Permit) bool {
			return (f.Number == "" || p.Number == f.Number) &&
				(f.VehicleID == "" || p.VehicleID == f.VehicleID) &&
				(f.CompanyID == "" || p.CompanyID == f.CompanyID) &&
				(f.ParentResolutionID == "" || p.ParentResolutionID == f.ParentResolutionID) &&
				(f.State == "" || p.State == f.State) &&
				(f.ExpiringBefore == nil || p.ExpiryDate.Before(*f.ExpiringBefore)) &&
				record.ContainsFold(f.Text, p.Number, p.DiscardReason)
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	})
}

// Stats counts live permits by state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	live, err := s.All(ctx, record.ScopeActive, nil)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(live), ByState: make(map[State]int, len(States))}
	for _, state := range States {
		st.ByState[state] = 0
	}
	for _, p := range live {
		st.ByState[p.State]++
	}
	return st, nil
}

// Verify checks at read time that the permit's vehicle exists and belongs
// to the permit's company, and that its resolution, when set, resolves to
// the same company.
func (s *Service) Verify(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.vehicles != nil {
		v, err := s.vehicles.Get(ctx, p.VehicleID)
		if errors.Is(err, record.ErrNotFound) {
			return record.Inconsistent(audit.EntityPermit, id, "vehicle "+p.VehicleID+" not found")
		}
		if err != nil {
			return err
		}
		if v.CompanyID != p.CompanyID {
			return record.Inconsistent(audit.EntityPermit, id, "vehicle "+v.ID+" belongs to company "+v.CompanyID)
		}
	}
	if p.ParentResolutionID != "" && s.resolutions != nil {
		return s.resolutions.CheckReference(ctx, p.ParentResolutionID, p.CompanyID)
	}
	return nil
}

func setIf[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}
