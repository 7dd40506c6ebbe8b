package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"bidmarket/internal/engine"
	"bidmarket/models"

	"github.com/go-chi/render"
)

type requirementElementRequest struct {
	ElementType     string          `json:"elementType" validate:"required,max=50"`
	Detail          json.RawMessage `json:"detail"`
	AllocatedBudget int64           `json:"allocatedBudget" validate:"min=0"`
	PrepaymentRatio int             `json:"prepaymentRatio" validate:"min=0,max=100"`
	ParentElementID *int            `json:"parentElementId,omitempty"`
}

type createRequirementRequest struct {
	AgencyID       int                         `json:"agencyId" validate:"required"`
	ProjectID      *int                        `json:"projectId,omitempty"`
	Title          string                      `json:"title" validate:"required,max=100"`
	Description    string                      `json:"description" validate:"required,max=2000"`
	IssuanceMode   string                      `json:"issuanceMode" validate:"required,oneof=integrated separated_by_element separated_by_group"`
	EstimatedPrice int64                       `json:"estimatedPrice" validate:"min=0"`
	Elements       []requirementElementRequest `json:"elements" validate:"dive"`
}

// CreateRequirementHandler handles POST /api/requirements/new.
func (h *Handler) CreateRequirementHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req createRequirementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	reqm := &models.Requirement{
		AgencyID:       req.AgencyID,
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		IssuanceMode:   models.IssuanceMode(req.IssuanceMode),
		EstimatedPrice: req.EstimatedPrice,
	}
	elements := make([]models.RequirementElement, len(req.Elements))
	for i, e := range req.Elements {
		elements[i] = models.RequirementElement{
			ElementType:     e.ElementType,
			Detail:          e.Detail,
			AllocatedBudget: e.AllocatedBudget,
			PrepaymentRatio: e.PrepaymentRatio,
			ParentElementID: e.ParentElementID,
		}
	}
	created, err := h.Engine.CreateRequirement(r.Context(), caller, reqm, elements)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

// GetRequirementHandler handles GET /api/requirements/{requirementId}.
func (h *Handler) GetRequirementHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "requirementId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	view, err := h.Engine.GetRequirement(r.Context(), caller, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// RequestApprovalHandler handles POST /api/requirements/{requirementId}/approval/request.
func (h *Handler) RequestApprovalHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "requirementId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	entry, err := h.Engine.RequestApproval(r.Context(), caller, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, entry)
}

type resolveApprovalRequest struct {
	Action  string `json:"action" validate:"required,oneof=approved rejected"`
	Comment string `json:"comment" validate:"max=500"`
}

// ResolveApprovalHandler handles POST /api/requirements/{requirementId}/approval/resolve.
func (h *Handler) ResolveApprovalHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "requirementId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	var req resolveApprovalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	entry, err := h.Engine.ResolveApproval(r.Context(), caller, id, models.ApprovalStatus(req.Action), req.Comment)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, entry)
}

type publishRequest struct {
	ClosingAt        time.Time       `json:"closingAt" validate:"required"`
	EstimatedPrice   int64           `json:"estimatedPrice" validate:"min=0"`
	Channel          string          `json:"channel" validate:"required,oneof=public agency_private"`
	ContactPrivate   bool            `json:"contactPrivate"`
	PriceWeight      int             `json:"priceWeight" validate:"min=0,max=100"`
	PortfolioWeight  int             `json:"portfolioWeight" validate:"min=0,max=100"`
	AdditionalWeight int             `json:"additionalWeight" validate:"min=0,max=100"`
	PricePenalty     json.RawMessage `json:"pricePenalty,omitempty"`
}

// PublishHandler handles POST /api/requirements/{requirementId}/publish.
func (h *Handler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "requirementId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	var req publishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	count, err := h.Engine.Publish(r.Context(), caller, engine.PublishInput{
		RequirementID:  id,
		ClosingAt:      req.ClosingAt,
		EstimatedPrice: req.EstimatedPrice,
		Channel:        models.ChannelType(req.Channel),
		ContactPrivate: req.ContactPrivate,
		Criteria: models.EvaluationCriteria{
			PriceWeight:      req.PriceWeight,
			PortfolioWeight:  req.PortfolioWeight,
			AdditionalWeight: req.AdditionalWeight,
			PricePenalty:     req.PricePenalty,
		},
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]int{"announcements": count})
}
