package engine

import (
	"context"
	"fmt"
	"sort"

	"bidmarket/internal/apperr"
	"bidmarket/models"
)

// SubmitScoreInput is one evaluator's score for one proposal. The price
// score is never supplied by the evaluator; it is derived at summary time.
type SubmitScoreInput struct {
	ProposalID      int
	PortfolioScore  float64
	AdditionalScore float64
	Comment         string
}

// SubmitScore records an evaluation. One evaluation per (proposal,
// evaluator); a second attempt is rejected, never overwritten.
func (e *Engine) SubmitScore(ctx context.Context, caller Caller, in SubmitScoreInput) (*models.Evaluation, error) {
	const op = "engine.SubmitScore"
	if in.PortfolioScore < 0 || in.PortfolioScore > 100 {
		return nil, apperr.Validation("portfolio score must be in [0,100]")
	}
	if in.AdditionalScore < 0 || in.AdditionalScore > 100 {
		return nil, apperr.Validation("additional score must be in [0,100]")
	}
	p, err := e.store.GetProposal(ctx, in.ProposalID)
	if err != nil {
		return nil, err
	}
	ann, err := e.store.GetAnnouncement(ctx, p.AnnouncementID)
	if err != nil {
		return nil, err
	}
	assigned, err := e.store.HasAssignment(ctx, ann.ID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, apperr.Forbidden("not assigned to this announcement")
	}
	if scored, err := e.store.HasEvaluation(ctx, p.ID, caller.UserID); err != nil {
		return nil, err
	} else if scored {
		return nil, apperr.Conflict("already scored")
	}
	req, err := e.store.GetRequirement(ctx, ann.RequirementID)
	if err != nil {
		return nil, err
	}

	// the stored total is provisional: price score is 0 at submission and
	// the summary re-derives the real total
	provisional := in.PortfolioScore*float64(ann.PortfolioWeight)/100 +
		in.AdditionalScore*float64(ann.AdditionalWeight)/100
	ev := &models.Evaluation{
		ProposalID:      p.ID,
		EvaluatorID:     caller.UserID,
		PortfolioScore:  in.PortfolioScore,
		AdditionalScore: in.AdditionalScore,
		PriceScore:      0,
		TotalScore:      provisional,
		Comment:         in.Comment,
	}
	err = e.inTx(ctx, func(tx Store) error {
		if err := tx.CreateEvaluation(ctx, ev); err != nil {
			return err
		}
		return tx.CreateEvaluatorHistory(ctx, &models.EvaluatorHistory{
			EvaluatorID:    caller.UserID,
			AnnouncementID: ann.ID,
			ProjectID:      req.ProjectID,
			ElementType:    ann.ElementType,
			Score:          provisional,
			CompletedAt:    e.now(),
		})
	})
	if err != nil {
		return nil, failTx(op, err)
	}
	return ev, nil
}

// ProposalScore is one ranked row of an evaluation summary.
type ProposalScore struct {
	ProposalID      int                   `json:"proposalId"`
	VendorOrgID     int                   `json:"vendorOrgId"`
	ProposedPrice   int64                 `json:"proposedPrice"`
	Status          models.ProposalStatus `json:"status"`
	ReserveRank     *int                  `json:"reserveRank,omitempty"`
	PriceScore      float64               `json:"priceScore"`
	PortfolioScore  float64               `json:"portfolioScore"`
	AdditionalScore float64               `json:"additionalScore"`
	FinalScore      float64               `json:"finalScore"`
	Rank            int                   `json:"rank"`
	Evaluators      []string              `json:"evaluators"`
}

// EvaluationSummary is the weighted ranking of an announcement's
// proposals.
type EvaluationSummary struct {
	AnnouncementID int             `json:"announcementId"`
	Proposals      []ProposalScore `json:"proposals"`
}

// GetEvaluationSummary derives price scores from the lowest proposed
// price, averages the evaluator scores, applies the announcement's weights
// and ranks proposals by descending final score. Ties keep submission
// order. Evaluator identity is masked in the payload.
func (e *Engine) GetEvaluationSummary(ctx context.Context, caller Caller, announcementID int) (*EvaluationSummary, error) {
	ann, err := e.store.GetAnnouncement(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageAgency(ann.AgencyID) {
		return nil, apperr.Forbidden("summary is visible to the owning agency")
	}
	proposals, err := e.store.GetProposalsByAnnouncement(ctx, ann.ID)
	if err != nil {
		return nil, err
	}
	evaluations, err := e.store.GetEvaluationsByAnnouncement(ctx, ann.ID)
	if err != nil {
		return nil, err
	}
	byProposal := map[int][]models.Evaluation{}
	for _, ev := range evaluations {
		byProposal[ev.ProposalID] = append(byProposal[ev.ProposalID], ev)
	}

	var lowest int64
	for i, p := range proposals {
		if i == 0 || p.ProposedPrice < lowest {
			lowest = p.ProposedPrice
		}
	}

	rows := make([]ProposalScore, 0, len(proposals))
	for _, p := range proposals {
		row := ProposalScore{
			ProposalID:    p.ID,
			VendorOrgID:   p.VendorOrgID,
			ProposedPrice: p.ProposedPrice,
			Status:        p.Status,
			ReserveRank:   p.ReserveRank,
			PriceScore:    priceScore(lowest, p.ProposedPrice),
			Evaluators:    []string{},
		}
		evs := byProposal[p.ID]
		for i, ev := range evs {
			row.PortfolioScore += ev.PortfolioScore
			row.AdditionalScore += ev.AdditionalScore
			// display-privacy rule, not a security boundary
			row.Evaluators = append(row.Evaluators, fmt.Sprintf("evaluator %d", i+1))
		}
		if len(evs) > 0 {
			row.PortfolioScore /= float64(len(evs))
			row.AdditionalScore /= float64(len(evs))
		}
		row.FinalScore = row.PriceScore*float64(ann.PriceWeight)/100 +
			row.PortfolioScore*float64(ann.PortfolioWeight)/100 +
			row.AdditionalScore*float64(ann.AdditionalWeight)/100
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FinalScore > rows[j].FinalScore
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return &EvaluationSummary{AnnouncementID: ann.ID, Proposals: rows}, nil
}

// priceScore is min(100, lowest/price*100); zero or missing prices score
// 0 to avoid dividing by zero.
func priceScore(lowest, price int64) float64 {
	if lowest <= 0 || price <= 0 {
		return 0
	}
	score := float64(lowest) / float64(price) * 100
	if score > 100 {
		score = 100
	}
	return score
}
