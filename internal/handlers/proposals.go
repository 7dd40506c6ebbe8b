package handlers

import (
	"net/http"

	"bidmarket/internal/engine"

	"github.com/go-chi/render"
)

// ListAnnouncementsHandler handles GET /api/announcements. Public
// announcements are visible to everyone; agency-private ones only to the
// owning agency's members.
func (h *Handler) ListAnnouncementsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	limit, offset, err := paginationParams(r)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	anns, err := h.Engine.ListOpenAnnouncements(r.Context(), caller, limit, offset)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, anns)
}

type submitProposalRequest struct {
	AnnouncementID int    `json:"announcementId" validate:"required"`
	ProposedPrice  int64  `json:"proposedPrice" validate:"min=0"`
	Pitch          string `json:"pitch" validate:"max=2000"`
}

// SubmitProposalHandler handles POST /api/proposals/new.
func (h *Handler) SubmitProposalHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req submitProposalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	p, err := h.Engine.SubmitProposal(r.Context(), caller, engine.SubmitProposalInput{
		AnnouncementID: req.AnnouncementID,
		ProposedPrice:  req.ProposedPrice,
		Pitch:          req.Pitch,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, p)
}

// ListMyProposalsHandler handles GET /api/proposals/my.
func (h *Handler) ListMyProposalsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	limit, offset, err := paginationParams(r)
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	props, err := h.Engine.ListMyProposals(r.Context(), caller, limit, offset)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, props)
}

// ListProposalsHandler handles GET /api/announcements/{announcementId}/proposals.
func (h *Handler) ListProposalsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "announcementId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	props, err := h.Engine.ListProposals(r.Context(), caller, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, props)
}
