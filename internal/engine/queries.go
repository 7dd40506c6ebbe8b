package engine

import (
	"context"

	"bidmarket/internal/apperr"
	"bidmarket/models"
)

// RequirementView is a requirement together with its line items.
type RequirementView struct {
	models.Requirement
	Elements []models.RequirementElement `json:"elements"`
}

// GetRequirement returns a requirement with elements. Drafts are visible
// to the owning agency and administrators only.
func (e *Engine) GetRequirement(ctx context.Context, caller Caller, requirementID int) (*RequirementView, error) {
	req, err := e.store.GetRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequirementPublished && !caller.CanManageAgency(req.AgencyID) {
		return nil, apperr.Forbidden("requirement is not published")
	}
	elements, err := e.store.GetRequirementElements(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &RequirementView{Requirement: *req, Elements: elements}, nil
}

// ListOpenAnnouncements returns the open announcements the caller may bid
// on or manage: public ones for everyone, agency-private ones only for the
// owning agency.
func (e *Engine) ListOpenAnnouncements(ctx context.Context, caller Caller, limit, offset int) ([]models.Announcement, error) {
	agencyID := 0
	if caller.OrgKind == models.OrgAgency {
		agencyID = caller.OrgID
	}
	return e.store.ListOpenAnnouncements(ctx, agencyID, limit, offset)
}

// ListProposals returns an announcement's proposals to the owning agency.
func (e *Engine) ListProposals(ctx context.Context, caller Caller, announcementID int) ([]models.Proposal, error) {
	ann, err := e.store.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(ann.AgencyID) {
		return nil, apperr.Forbidden("proposals are visible to the owning agency")
	}
	return e.store.GetProposalsByAnnouncement(ctx, ann.ID)
}

// ListMyProposals returns the caller's vendor organization's proposals.
func (e *Engine) ListMyProposals(ctx context.Context, caller Caller, limit, offset int) ([]models.Proposal, error) {
	if !caller.IsVendorSide() {
		return nil, apperr.Forbidden("vendor role required")
	}
	return e.store.GetUserProposals(ctx, caller.OrgID, limit, offset)
}

// ListAssignments returns an announcement's evaluator assignments,
// unmasked, to the owning agency.
func (e *Engine) ListAssignments(ctx context.Context, caller Caller, announcementID int) ([]models.EvaluatorAssignment, error) {
	ann, err := e.store.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(ann.AgencyID) {
		return nil, apperr.Forbidden("assignments are visible to the owning agency")
	}
	return e.store.GetAssignments(ctx, ann.ID)
}
