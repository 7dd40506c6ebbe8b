package engine

import (
	"context"

	"bidmarket/internal/apperr"
	"bidmarket/models"
)

// AssignInput lists the evaluators of one assignment batch.
type AssignInput struct {
	EvaluatorIDs []int
	Mode         models.AssignmentMode
}

// AssignResult reports how many announcements were touched and how many
// new assignment rows were created; already-assigned pairs are skipped.
type AssignResult struct {
	Announcements int `json:"announcements"`
	Created       int `json:"created"`
}

// AssignToAnnouncement assigns evaluators to a single announcement.
func (e *Engine) AssignToAnnouncement(ctx context.Context, caller Caller, announcementID int, in AssignInput) (*AssignResult, error) {
	const op = "engine.AssignToAnnouncement"
	ann, err := e.store.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	return e.assign(ctx, op, caller, []models.Announcement{*ann}, models.ScopeAnnouncement, in)
}

// AssignToRequirement cascades an evaluator batch to every announcement
// currently linked to the requirement.
func (e *Engine) AssignToRequirement(ctx context.Context, caller Caller, requirementID int, in AssignInput) (*AssignResult, error) {
	const op = "engine.AssignToRequirement"
	if _, err := e.store.GetRequirement(ctx, requirementID); err != nil {
		return nil, err
	}
	announcements, err := e.store.GetAnnouncementsByRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	return e.assign(ctx, op, caller, announcements, models.ScopeRequirement, in)
}

// AssignToProject cascades an evaluator batch across all announcements of
// all requirements in a project.
func (e *Engine) AssignToProject(ctx context.Context, caller Caller, projectID int, in AssignInput) (*AssignResult, error) {
	const op = "engine.AssignToProject"
	announcements, err := e.store.GetAnnouncementsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return e.assign(ctx, op, caller, announcements, models.ScopeProject, in)
}

func (e *Engine) assign(ctx context.Context, op string, caller Caller, announcements []models.Announcement, scope models.AssignmentScope, in AssignInput) (*AssignResult, error) {
	if len(in.EvaluatorIDs) == 0 {
		return nil, apperr.Validation("evaluator list is empty")
	}
	if in.Mode == "" {
		in.Mode = models.ModeDesignated
	}
	if len(announcements) == 0 {
		return &AssignResult{}, nil
	}
	agencyID := announcements[0].AgencyID
	for _, ann := range announcements {
		if ann.AgencyID != agencyID {
			return nil, apperr.Validation("announcements span more than one agency")
		}
	}
	if !caller.CanManageAgency(agencyID) {
		return nil, apperr.Forbidden("evaluators are assigned by the owning agency")
	}

	// validate the whole batch before writing anything: every listed id
	// must be an agency member of the same agency
	users, err := e.store.GetUsers(ctx, in.EvaluatorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range in.EvaluatorIDs {
		u, ok := byID[id]
		if !ok {
			return nil, apperr.Validation("evaluator %d does not exist", id)
		}
		if u.Role != models.RoleAgencyMember || u.OrganizationID != agencyID {
			return nil, apperr.Validation("evaluator %d is not a member of the owning agency", id)
		}
	}

	result := &AssignResult{Announcements: len(announcements)}
	err = e.inTx(ctx, func(tx Store) error {
		for _, ann := range announcements {
			for _, evaluatorID := range in.EvaluatorIDs {
				a := &models.EvaluatorAssignment{
					AnnouncementID: ann.ID,
					EvaluatorID:    evaluatorID,
					Scope:          scope,
					Mode:           in.Mode,
				}
				created, err := tx.CreateAssignment(ctx, a)
				if err != nil {
					return err
				}
				if created {
					result.Created++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	return result, nil
}
