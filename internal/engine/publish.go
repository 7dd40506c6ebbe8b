package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/models"

	"github.com/samber/lo"
)

// PublishInput parameterizes announcement publication of an approved
// requirement.
type PublishInput struct {
	RequirementID  int
	ClosingAt      time.Time
	EstimatedPrice int64
	Channel        models.ChannelType
	ContactPrivate bool
	Criteria       models.EvaluationCriteria
}

// Publish converts an approved requirement into announcements according to
// its issuance mode and marks it published. All creation plus the status
// change happen in one transaction; returns the number of announcements
// created.
func (e *Engine) Publish(ctx context.Context, caller Caller, in PublishInput) (int, error) {
	const op = "engine.Publish"
	req, err := e.store.GetRequirement(ctx, in.RequirementID)
	if err != nil {
		return 0, err
	}
	if !caller.CanManageAgency(req.AgencyID) {
		return 0, apperr.Forbidden("announcement must be published by the owning agency")
	}
	if in.Criteria.WeightSum() != 100 {
		return 0, apperr.Validation("evaluation weights must sum to 100, got %d", in.Criteria.WeightSum())
	}
	if !in.ClosingAt.After(e.now()) {
		return 0, apperr.Validation("closing date must be in the future")
	}
	if in.Channel != models.ChannelPublic && in.Channel != models.ChannelAgencyPrivate {
		return 0, apperr.Validation("unknown channel type %q", in.Channel)
	}
	if !req.Status.CanTransitionTo(models.RequirementPublished) {
		return 0, apperr.Conflict("requirement is not approved")
	}

	elements, err := e.store.GetRequirementElements(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	announcements := splitAnnouncements(req, elements, in)

	err = e.inTx(ctx, func(tx Store) error {
		for i := range announcements {
			if err := tx.CreateAnnouncement(ctx, &announcements[i]); err != nil {
				return err
			}
		}
		now := e.now()
		return tx.UpdateRequirementStatus(ctx, req.ID, models.RequirementPublished, &now)
	})
	if err != nil {
		return 0, failTx(op, err)
	}
	return len(announcements), nil
}

// splitAnnouncements maps a requirement's elements onto announcement
// records per the issuance mode. Pure; the caller persists the result.
func splitAnnouncements(req *models.Requirement, elements []models.RequirementElement, in PublishInput) []models.Announcement {
	base := models.Announcement{
		RequirementID:      req.ID,
		AgencyID:           req.AgencyID,
		Channel:            in.Channel,
		ContactPrivate:     in.ContactPrivate,
		ClosingAt:          in.ClosingAt,
		Status:             models.AnnouncementOpen,
		EvaluationCriteria: in.Criteria,
	}
	fallbackPrice := in.EstimatedPrice
	if fallbackPrice == 0 {
		fallbackPrice = req.EstimatedPrice
	}

	switch req.IssuanceMode {
	case models.IssuanceSeparatedByElement:
		// repeated element types collapse into one announcement per type
		types := lo.Uniq(lo.Map(elements, func(el models.RequirementElement, _ int) string {
			return el.ElementType
		}))
		return lo.Map(types, func(t string, _ int) models.Announcement {
			a := base
			elType := t
			a.ElementType = &elType
			ofType := lo.Filter(elements, func(el models.RequirementElement, _ int) bool {
				return el.ElementType == t
			})
			a.EstimatedPrice = lo.SumBy(ofType, func(el models.RequirementElement) int64 {
				return el.AllocatedBudget
			})
			if a.EstimatedPrice == 0 {
				a.EstimatedPrice = fallbackPrice
			}
			a.Title = fmt.Sprintf("%s - %s", req.Title, t)
			a.Description = req.Description + "\n\n" + renderElements(ofType)
			return a
		})

	case models.IssuanceSeparatedByGroup:
		var out []models.Announcement
		consumed := map[int]bool{}
		for _, anchor := range elements {
			if anchor.ParentElementID != nil || consumed[anchor.ID] {
				continue
			}
			group := []models.RequirementElement{anchor}
			consumed[anchor.ID] = true
			for _, el := range elements {
				if el.ParentElementID != nil && *el.ParentElementID == anchor.ID {
					group = append(group, el)
					consumed[el.ID] = true
				}
			}
			a := base
			anchorID := anchor.ID
			a.AnchorElementID = &anchorID
			a.EstimatedPrice = lo.SumBy(group, func(el models.RequirementElement) int64 {
				return el.AllocatedBudget
			})
			if a.EstimatedPrice == 0 {
				a.EstimatedPrice = fallbackPrice
			}
			a.Title = fmt.Sprintf("%s - %s", req.Title, anchor.ElementType)
			a.Description = req.Description + "\n\n" + renderElements(group)
			out = append(out, a)
		}
		return out

	default: // integrated
		a := base
		a.Title = req.Title
		a.EstimatedPrice = fallbackPrice
		a.Description = req.Description + "\n\n" + renderElements(elements)
		return []models.Announcement{a}
	}
}

// renderElements synthesizes the element listing appended to an
// announcement description.
func renderElements(elements []models.RequirementElement) string {
	var b strings.Builder
	for _, el := range elements {
		fmt.Fprintf(&b, "- %s (budget %d)", el.ElementType, el.AllocatedBudget)
		if len(el.Detail) > 0 {
			fmt.Fprintf(&b, ": %s", string(el.Detail))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
