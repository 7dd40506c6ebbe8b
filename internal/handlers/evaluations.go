package handlers

import (
	"net/http"

	"bidmarket/internal/engine"
	"bidmarket/models"

	"github.com/go-chi/render"
)

type assignRequest struct {
	EvaluatorIDs []int  `json:"evaluatorIds" validate:"required,min=1"`
	Mode         string `json:"mode" validate:"required,oneof=designated random"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request, paramName string,
	assign func(caller engine.Caller, id int, in engine.AssignInput) (*engine.AssignResult, error)) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, paramName)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	res, err := assign(caller, id, engine.AssignInput{
		EvaluatorIDs: req.EvaluatorIDs,
		Mode:         models.AssignmentMode(req.Mode),
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// AssignAnnouncementHandler handles POST /api/announcements/{announcementId}/evaluators.
func (h *Handler) AssignAnnouncementHandler(w http.ResponseWriter, r *http.Request) {
	h.handleAssign(w, r, "announcementId", func(c engine.Caller, id int, in engine.AssignInput) (*engine.AssignResult, error) {
		return h.Engine.AssignToAnnouncement(r.Context(), c, id, in)
	})
}

// AssignRequirementHandler handles POST /api/requirements/{requirementId}/evaluators.
func (h *Handler) AssignRequirementHandler(w http.ResponseWriter, r *http.Request) {
	h.handleAssign(w, r, "requirementId", func(c engine.Caller, id int, in engine.AssignInput) (*engine.AssignResult, error) {
		return h.Engine.AssignToRequirement(r.Context(), c, id, in)
	})
}

// AssignProjectHandler handles POST /api/projects/{projectId}/evaluators.
func (h *Handler) AssignProjectHandler(w http.ResponseWriter, r *http.Request) {
	h.handleAssign(w, r, "projectId", func(c engine.Caller, id int, in engine.AssignInput) (*engine.AssignResult, error) {
		return h.Engine.AssignToProject(r.Context(), c, id, in)
	})
}

// ListAssignmentsHandler handles GET /api/announcements/{announcementId}/evaluators.
func (h *Handler) ListAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "announcementId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	assignments, err := h.Engine.ListAssignments(r.Context(), caller, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, assignments)
}

type submitScoreRequest struct {
	PortfolioScore  float64 `json:"portfolioScore" validate:"min=0,max=100"`
	AdditionalScore float64 `json:"additionalScore" validate:"min=0,max=100"`
	Comment         string  `json:"comment" validate:"max=1000"`
}

// SubmitScoreHandler handles POST /api/proposals/{proposalId}/score.
func (h *Handler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "proposalId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	var req submitScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	ev, err := h.Engine.SubmitScore(r.Context(), caller, engine.SubmitScoreInput{
		ProposalID:      id,
		PortfolioScore:  req.PortfolioScore,
		AdditionalScore: req.AdditionalScore,
		Comment:         req.Comment,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ev)
}

// EvaluationSummaryHandler handles GET /api/announcements/{announcementId}/summary.
func (h *Handler) EvaluationSummaryHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "announcementId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	summary, err := h.Engine.GetEvaluationSummary(r.Context(), caller, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}
