package engine

import (
	"context"

	"bidmarket/internal/apperr"
	"bidmarket/models"
)

// CreateRequirement stores a draft RFP with its elements. In the submitted
// batch ParentElementID is a zero-based index of the parent within the
// same batch; it is rewritten to the stored row id, so parents must
// precede their children.
func (e *Engine) CreateRequirement(ctx context.Context, caller Caller, r *models.Requirement, elements []models.RequirementElement) (*models.Requirement, error) {
	const op = "engine.CreateRequirement"
	if !caller.CanManageAgency(r.AgencyID) {
		return nil, apperr.Forbidden("requirement must be created by the owning agency")
	}
	r.Status = models.RequirementDraft
	err := e.inTx(ctx, func(tx Store) error {
		if err := tx.CreateRequirement(ctx, r); err != nil {
			return err
		}
		ids := make([]int, len(elements))
		for i := range elements {
			elements[i].RequirementID = r.ID
			if elements[i].ParentElementID != nil {
				idx := *elements[i].ParentElementID
				if idx < 0 || idx >= i {
					return apperr.Validation("parent element reference %d is out of range", idx)
				}
				elements[i].ParentElementID = &ids[idx]
			}
			if err := tx.CreateRequirementElement(ctx, &elements[i]); err != nil {
				return err
			}
			ids[i] = elements[i].ID
		}
		return nil
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	return r, nil
}

// RequestApproval moves a draft requirement into approval_pending and
// records a pending approval entry.
func (e *Engine) RequestApproval(ctx context.Context, caller Caller, requirementID int) (*models.Approval, error) {
	const op = "engine.RequestApproval"
	req, err := e.store.GetRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(req.AgencyID) {
		return nil, apperr.Forbidden("requester does not belong to the owning agency")
	}
	if !req.Status.CanTransitionTo(models.RequirementApprovalPending) {
		return nil, apperr.Conflict("requirement is not a draft")
	}
	entry := &models.Approval{
		RequirementID: req.ID,
		RequesterID:   caller.UserID,
		Status:        models.ApprovalPending,
	}
	err = e.inTx(ctx, func(tx Store) error {
		if err := tx.UpdateRequirementStatus(ctx, req.ID, models.RequirementApprovalPending, nil); err != nil {
			return err
		}
		return tx.CreateApproval(ctx, entry)
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	return entry, nil
}

// ResolveApproval approves or rejects the most recent pending approval
// entry. Only a platform administrator may resolve.
func (e *Engine) ResolveApproval(ctx context.Context, caller Caller, requirementID int, action models.ApprovalStatus, comment string) (*models.Approval, error) {
	const op = "engine.ResolveApproval"
	if action != models.ApprovalApproved && action != models.ApprovalRejected {
		return nil, apperr.Validation("action must be approved or rejected")
	}
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("platform administrator required")
	}
	req, err := e.store.GetRequirement(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	// no pending entry means there is nothing to resolve, regardless of
	// what the requirement status would allow
	if _, err := e.store.GetLatestPendingApproval(ctx, req.ID); err != nil {
		return nil, err
	}
	target := models.RequirementApproved
	if action == models.ApprovalRejected {
		target = models.RequirementRejected
	}
	if !req.Status.CanTransitionTo(target) {
		return nil, apperr.Conflict("requirement is not awaiting approval")
	}
	var entry *models.Approval
	err = e.inTx(ctx, func(tx Store) error {
		entry, err = tx.GetLatestPendingApproval(ctx, req.ID)
		if err != nil {
			return err
		}
		if err := tx.ResolveApproval(ctx, entry.ID, caller.UserID, action, comment); err != nil {
			return err
		}
		return tx.UpdateRequirementStatus(ctx, req.ID, target, nil)
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	entry.Status = action
	entry.ResolverID = &caller.UserID
	entry.Comment = comment
	e.dispatch(entry.RequesterID, "approval_resolved", entry)
	return entry, nil
}
