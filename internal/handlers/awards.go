package handlers

import (
	"net/http"

	"bidmarket/models"

	"github.com/go-chi/render"
)

type awardRequest struct {
	FinalPrice *int64 `json:"finalPrice,omitempty" validate:"omitempty,min=0"`
}

// AwardHandler handles POST /api/proposals/{proposalId}/award.
func (h *Handler) AwardHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "proposalId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	var req awardRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.badRequest(w, r, "invalid JSON body")
			return
		}
		if err := validate.Struct(req); err != nil {
			h.badRequest(w, r, err.Error())
			return
		}
	}
	res, err := h.Engine.Award(r.Context(), caller, id, req.FinalPrice)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// RejectHandler handles POST /api/proposals/{proposalId}/reject.
func (h *Handler) RejectHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "proposalId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	p, err := h.Engine.Reject(r.Context(), caller, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, p)
}

type reserveRankRequest struct {
	Rank *int `json:"rank" validate:"omitempty,min=1"`
}

// SetReserveRankHandler handles PUT /api/proposals/{proposalId}/reserve.
// A null rank clears the proposal's reserve standing.
func (h *Handler) SetReserveRankHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "proposalId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	var req reserveRankRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	p, err := h.Engine.SetReserveRank(r.Context(), caller, id, req.Rank)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, p)
}

type promoteRequest struct {
	FinalPrice *int64 `json:"finalPrice,omitempty" validate:"omitempty,min=0"`
	Note       string `json:"note" validate:"max=500"`
}

// PromoteHandler handles POST /api/proposals/{proposalId}/promote.
func (h *Handler) PromoteHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "proposalId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	var req promoteRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.badRequest(w, r, "invalid JSON body")
			return
		}
		if err := validate.Struct(req); err != nil {
			h.badRequest(w, r, err.Error())
			return
		}
	}
	res, err := h.Engine.PromoteFromReserve(r.Context(), caller, id, req.FinalPrice, req.Note)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

type paymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending prepayment_paid all_paid"`
}

// PaymentStatusHandler handles PUT /api/contracts/{contractId}/payment.
func (h *Handler) PaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "contractId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	var req paymentStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	c, err := h.Engine.UpdatePaymentStatus(r.Context(), caller, id, models.PaymentStatus(req.Status))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, c)
}

// GetContractHandler handles GET /api/contracts/{contractId}.
func (h *Handler) GetContractHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := urlID(r, "contractId")
	if err != nil {
		h.badRequest(w, r, err.Error())
		return
	}
	c, err := h.Engine.GetContract(r.Context(), caller, id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	render.JSON(w, r, c)
}
