package casefile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/rpggio/padron/internal/domain/audit"
	"github.com/rpggio/padron/internal/domain/record"
)

var numberPattern = regexp.MustCompile(`^E-\d{4}-\d{4}$`)

// Service manages case files and drives their workflow. Every transition
// and tracking note is a versioned update of the case file.
type Service struct {
	*record.Service[CaseFile, *CaseFile]
	clock record.Clock
}

// NewService creates a case file service over cfg.
func NewService(cfg record.Config[CaseFile, *CaseFile]) *Service {
	cfg.Entity = audit.EntityCaseFile
	cfg.Validate = validate
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{Service: record.NewService(cfg), clock: clock}
}

func validate(c *CaseFile) error {
	if err := record.CheckFields(audit.EntityCaseFile, c.ID, c); err != nil {
		return err
	}
	if !numberPattern.MatchString(c.Number) {
		return record.Invalid(audit.EntityCaseFile, c.ID, "number must look like E-NNNN-YYYY")
	}
	if !c.State.Valid() {
		return record.Invalid(audit.EntityCaseFile, c.ID, "unknown state "+string(c.State))
	}
	if c.ParentCaseFileID != "" && c.ParentCaseFileID == c.ID {
		return record.Invalid(audit.EntityCaseFile, c.ID, "case file cannot be its own parent")
	}
	for i := len(c.Tracking) - 1; i >= 0; i-- {
		if to := c.Tracking[i].ToState; to != "" {
			if to != c.State {
				return record.Inconsistent(audit.EntityCaseFile, c.ID, fmt.Sprintf("last tracked state %s differs from state %s", to, c.State))
			}
			break
		}
	}
	return nil
}

// Create opens a case file in state OPEN with a CREATED tracking entry. An
// empty number is assigned as the next E-NNNN-YYYY of the current year. A
// given parent must exist, must not be deleted and is linked on both sides.
func (s *Service) Create(ctx context.Context, actor string, c CaseFile) (CaseFile, error) {
	now := s.clock()
	c.Number = strings.TrimSpace(c.Number)
	c.State = StateOpen
	c.OpenedAt = now
	c.ClosedAt = nil
	c.ChildCaseFileIDs = nil
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}
	c.Tracking = []TrackingEntry{{
		At:          now,
		User:        actor,
		Action:      ActionCreated,
		Description: "case file opened",
		ToState:     StateOpen,
	}}
	parentID := c.ParentCaseFileID
	c.ParentCaseFileID = ""
	if parentID != "" {
		parent, err := s.Get(ctx, parentID)
		if err != nil {
			return CaseFile{}, err
		}
		if parent.Deleted {
			return CaseFile{}, record.Conflict(audit.EntityCaseFile, parentID, "deleted", "restore before linking")
		}
	}

	created, err := s.createUnique(ctx, actor, c, now.Year())
	if err != nil || parentID == "" {
		return created, err
	}
	_, child, err := s.LinkChild(ctx, record.Mutation{ID: parentID, Actor: actor}, created.ID)
	if err != nil {
		return created, err
	}
	return child, nil
}

func (s *Service) createUnique(ctx context.Context, actor string, c CaseFile, year int) (CaseFile, error) {
	unlock, err := s.Lock(ctx, "number")
	if err != nil {
		return CaseFile{}, err
	}
	defer unlock()

	existing, err := s.All(ctx, record.ScopeAll, nil)
	if err != nil {
		return CaseFile{}, err
	}
	taken := make(map[string]bool, len(existing))
	for _, e := range existing {
		taken[e.Number] = true
	}
	if c.Number == "" {
		for n := 1; n <= 9999; n++ {
			candidate := fmt.Sprintf("E-%04d-%04d", n, year)
			if !taken[candidate] {
				c.Number = candidate
				break
			}
		}
		if c.Number == "" {
			return CaseFile{}, record.Conflict(audit.EntityCaseFile, "", "", fmt.Sprintf("no case file numbers left for %d", year))
		}
	} else if taken[c.Number] {
		return CaseFile{}, record.Conflict(audit.EntityCaseFile, "", "", "number "+c.Number+" already registered")
	}
	return s.Service.Create(ctx, actor, c)
}

// Update applies patch to a live case file.
func (s *Service) Update(ctx context.Context, m record.Mutation, patch Patch) (CaseFile, error) {
	return s.Service.Update(ctx, m, func(c *CaseFile) error {
		setIf(&c.Subject, patch.Subject)
		setIf(&c.ProcedureType, patch.ProcedureType)
		setIf(&c.Requester, patch.Requester)
		setIf(&c.Description, patch.Description)
		setIf(&c.Notes, patch.Notes)
		setIf(&c.Priority, patch.Priority)
		setIf(&c.Responsible, patch.Responsible)
		setIf(&c.FinalResolutionID, patch.FinalResolutionID)
		if patch.DueDate != nil {
			due := *patch.DueDate
			c.DueDate = &due
		}
		if patch.Tags != nil {
			c.Tags = patch.Tags
		}
		return nil
	})
}

// Transition moves a case file to state to and appends a STATE_CHANGE
// tracking entry carrying m.Note. A disallowed move fails with
// ErrInvalidTransition and changes nothing.
func (s *Service) Transition(ctx context.Context, m record.Mutation, to State) (CaseFile, error) {
	if !to.Valid() {
		return CaseFile{}, record.Invalid(audit.EntityCaseFile, m.ID, "unknown state "+string(to))
	}
	return s.Service.Update(ctx, m, func(c *CaseFile) error {
		from := c.State
		if !from.CanTransition(to) {
			return record.InvalidTransition(audit.EntityCaseFile, c.ID, string(from), string(to))
		}
		now := s.clock()
		c.State = to
		if to == StateClosed {
			c.ClosedAt = &now
		}
		c.Tracking = append(c.Tracking, TrackingEntry{
			At:        now,
			User:      m.Actor,
			Action:    ActionStateChange,
			FromState: from,
			ToState:   to,
			Notes:     m.Note,
		})
		return nil
	})
}

// AddTracking appends a progress entry without changing the state.
func (s *Service) AddTracking(ctx context.Context, m record.Mutation, action, description string) (CaseFile, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return CaseFile{}, record.Invalid(audit.EntityCaseFile, m.ID, "tracking action required")
	}
	return s.Service.Update(ctx, m, func(c *CaseFile) error {
		c.Tracking = append(c.Tracking, TrackingEntry{
			At:          s.clock(),
			User:        m.Actor,
			Action:      action,
			Description: description,
			Notes:       m.Note,
		})
		return nil
	})
}

// LinkChild makes childID a child of the case file m.ID, setting both the
// parent's child list and the child's parent pointer. Linking an already
// linked pair changes nothing. A child with another parent, a self link, a
// deleted side, a stale m.ExpectedVersion or a link that would close a cycle
// fails with ErrConflict before either side is written. If the parent write
// still fails, the child's pointer is cleared again.
func (s *Service) LinkChild(ctx context.Context, m record.Mutation, childID string) (parent, child CaseFile, err error) {
	parentID := m.ID
	if strings.TrimSpace(childID) == "" {
		return parent, child, record.Invalid(audit.EntityCaseFile, parentID, "child id required")
	}
	if parentID == childID {
		return parent, child, record.Conflict(audit.EntityCaseFile, parentID, "", "case file cannot be linked to itself")
	}
	unlock, err := s.Lock(ctx, "links")
	if err != nil {
		return parent, child, err
	}
	defer unlock()

	if parent, err = s.Get(ctx, parentID); err != nil {
		return parent, child, err
	}
	if child, err = s.Get(ctx, childID); err != nil {
		return parent, child, err
	}
	if err := s.checkLinkable(m, parent, child); err != nil {
		return parent, child, err
	}
	if s.isAncestor(ctx, childID, parent) {
		return parent, child, record.Conflict(audit.EntityCaseFile, childID, "", "link would create a cycle")
	}

	linkedChild := child.ParentCaseFileID == parentID
	if !linkedChild {
		child, err = s.Service.Update(ctx, record.Mutation{ID: childID, Actor: m.Actor, Note: "linked to parent " + parentID, ExpectedVersion: child.Version}, func(c *CaseFile) error {
			if err := s.checkLink(parentID, c); err != nil {
				return err
			}
			c.ParentCaseFileID = parentID
			return nil
		})
		if err != nil {
			return parent, child, err
		}
	}
	if slices.Contains(parent.ChildCaseFileIDs, childID) {
		return parent, child, nil
	}

	pm := m
	if pm.ExpectedVersion == 0 {
		pm.ExpectedVersion = parent.Version
	}
	updated, err := s.Service.Update(ctx, pm, func(c *CaseFile) error {
		if !slices.Contains(c.ChildCaseFileIDs, childID) {
			c.ChildCaseFileIDs = append(c.ChildCaseFileIDs, childID)
			c.Tracking = append(c.Tracking, TrackingEntry{
				At:          s.clock(),
				User:        m.Actor,
				Action:      ActionLinkedChild,
				Description: "linked child " + childID,
				Notes:       m.Note,
			})
		}
		return nil
	})
	if err == nil {
		return updated, child, nil
	}
	if linkedChild {
		return parent, child, err
	}
	reverted, rerr := s.Service.Update(ctx, record.Mutation{ID: childID, Actor: m.Actor, Note: "link to " + parentID + " rolled back", ExpectedVersion: child.Version}, func(c *CaseFile) error {
		if c.ParentCaseFileID == parentID {
			c.ParentCaseFileID = ""
		}
		return nil
	})
	if rerr != nil {
		return parent, child, errors.Join(err, fmt.Errorf("rolling back link of %s: %w", childID, rerr))
	}
	return parent, reverted, err
}

// checkLinkable rejects a link whose sides cannot both be written.
func (s *Service) checkLinkable(m record.Mutation, parent, child CaseFile) error {
	if parent.Deleted {
		return record.Conflict(audit.EntityCaseFile, parent.ID, "deleted", "restore before linking")
	}
	if child.Deleted {
		return record.Conflict(audit.EntityCaseFile, child.ID, "deleted", "restore before linking")
	}
	if m.ExpectedVersion != 0 && m.ExpectedVersion != parent.Version {
		return record.Conflict(audit.EntityCaseFile, parent.ID, "", fmt.Sprintf("expected version %d, stored version %d", m.ExpectedVersion, parent.Version))
	}
	return s.checkLink(parent.ID, &child)
}

func (s *Service) checkLink(parentID string, child *CaseFile) error {
	if child.ParentCaseFileID != "" && child.ParentCaseFileID != parentID {
		return record.Conflict(audit.EntityCaseFile, child.ID, "", "already linked to parent "+child.ParentCaseFileID)
	}
	return nil
}

// isAncestor walks up from start's parent chain looking for id.
func (s *Service) isAncestor(ctx context.Context, id string, start CaseFile) bool {
	seen := map[string]bool{start.ID: true}
	for next := start.ParentCaseFileID; next != ""; {
		if next == id {
			return true
		}
		if seen[next] {
			return false
		}
		seen[next] = true
		c, err := s.Get(ctx, next)
		if err != nil {
			return false
		}
		next = c.ParentCaseFileID
	}
	return false
}

// GetByNumber returns the case file with the given number, deleted or not.
func (s *Service) GetByNumber(ctx context.Context, number string) (CaseFile, error) {
	found, err := s.All(ctx, record.ScopeAll, func(c *CaseFile) bool { return c.Number == number })
	if err != nil {
		return CaseFile{}, err
	}
	if len(found) == 0 {
		return CaseFile{}, record.NotFound(audit.EntityCaseFile, "number:"+number)
	}
	return found[0], nil
}

// Children returns the child case files of id in scope, in link order.
func (s *Service) Children(ctx context.Context, id string, scope record.Scope) ([]CaseFile, error) {
	parent, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]CaseFile, 0, len(parent.ChildCaseFileIDs))
	for _, childID := range parent.ChildCaseFileIDs {
		c, err := s.Get(ctx, childID)
		if errors.Is(err, record.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if scope.Includes(c.Deleted) {
			out = append(out, c)
		}
	}
	return out, nil
}

// List returns a page of case files matching f.
func (s *Service) List(ctx context.Context, f Filter) (record.Page[CaseFile], error) {
	return s.Service.List(ctx, record.Query[CaseFile]{
		Scope: f.Scope,
		Match: func(c *CaseFile) bool {
			return (f.Number == "" || c.Number == f.Number) &&
				(f.Subject == "" || c.Subject == f.Subject) &&
				(f.ProcedureType == "" || c.ProcedureType == f.ProcedureType) &&
				(f.State == "" || c.State == f.State) &&
				(f.Priority == "" || c.Priority == f.Priority) &&
				(f.RequesterID == "" || c.Requester.ID == f.RequesterID) &&
				(f.Responsible == "" || c.Responsible == f.Responsible) &&
				(f.OpenedFrom == nil || !c.OpenedAt.Before(*f.OpenedFrom)) &&
				(f.OpenedTo == nil || !c.OpenedAt.After(*f.OpenedTo)) &&
				(f.Tag == "" || slices.Contains(c.Tags, f.Tag)) &&
				record.ContainsFold(f.Text, c.Number, c.ProcedureType, c.Requester.Name, c.Requester.Document, c.Description)
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	})
}

// Stats summarizes live case files at now.
func (s *Service) Stats(ctx context.Context, now time.Time) (Stats, error) {
	live, err := s.All(ctx, record.ScopeActive, nil)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		Total:      len(live),
		ByState:    make(map[State]int, len(States)),
		ByPriority: make(map[Priority]int),
		BySubject:  make(map[Subject]int),
	}
	var closed int
	var days float64
	for i := range live {
		c := &live[i]
		st.ByState[c.State]++
		st.ByPriority[c.Priority]++
		if c.Subject != "" {
			st.BySubject[c.Subject]++
		}
		if c.Priority == PriorityUrgent && !c.State.Decided() {
			st.Urgent++
		}
		if c.DueDate != nil && c.DueDate.Before(now) && !c.State.Decided() {
			st.Overdue++
		}
		if c.ClosedAt != nil {
			closed++
			days += c.ClosedAt.Sub(c.OpenedAt).Hours() / 24
		}
	}
	if closed > 0 {
		st.AverageResolutionDays = days / float64(closed)
	}
	return st, nil
}

func setIf[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}
