package engine_test

import (
	"context"
	"encoding/json"
	"testing"

	"bidmarket/internal/apperr"
	"bidmarket/models"

	"github.com/stretchr/testify/require"
)

func draftRequirement() *models.Requirement {
	return &models.Requirement{
		AgencyID:       1,
		Title:          "Bridge inspection",
		Description:    "Quarterly inspection of the river crossings",
		IssuanceMode:   models.IssuanceIntegrated,
		EstimatedPrice: 5_000_000,
	}
}

func TestCreateRequirement(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.CreateRequirement(ctx, agencyCaller, draftRequirement(), nil)
	require.NoError(t, err)
	require.Equal(t, models.RequirementDraft, created.Status)
	require.NotZero(t, created.ID)

	_, err = eng.CreateRequirement(ctx, vendorCaller, draftRequirement(), nil)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	require.Len(t, store.Requirements, 1)
}

func TestCreateRequirementElementParents(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	parentIdx := 0
	elements := []models.RequirementElement{
		{ElementType: "construction", Detail: json.RawMessage(`{"site":"north"}`), AllocatedBudget: 3_000_000},
		{ElementType: "inspection", AllocatedBudget: 500_000, ParentElementID: &parentIdx},
	}
	created, err := eng.CreateRequirement(ctx, agencyCaller, draftRequirement(), elements)
	require.NoError(t, err)

	stored, err := eng.GetRequirement(ctx, agencyCaller, created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Elements, 2)
	require.Nil(t, stored.Elements[0].ParentElementID)
	require.NotNil(t, stored.Elements[1].ParentElementID)
	require.Equal(t, stored.Elements[0].ID, *stored.Elements[1].ParentElementID)

	// a forward reference is rejected and the whole batch rolled back
	badIdx := 1
	bad := []models.RequirementElement{
		{ElementType: "construction", ParentElementID: &badIdx},
		{ElementType: "inspection"},
	}
	before := len(store.Elements)
	_, err = eng.CreateRequirement(ctx, agencyCaller, draftRequirement(), bad)
	require.ErrorIs(t, err, apperr.ErrValidation)
	require.Len(t, store.Elements, before)
}

func TestApprovalFlow(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	req, err := eng.CreateRequirement(ctx, agencyCaller, draftRequirement(), nil)
	require.NoError(t, err)

	entry, err := eng.RequestApproval(ctx, agencyCaller, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalPending, entry.Status)
	require.Equal(t, agencyCaller.UserID, entry.RequesterID)

	// double request is a conflict, the requirement already left draft
	_, err = eng.RequestApproval(ctx, agencyCaller, req.ID)
	require.ErrorIs(t, err, apperr.ErrConflict)

	// only an administrator resolves
	_, err = eng.ResolveApproval(ctx, agencyCaller, req.ID, models.ApprovalApproved, "")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	resolved, err := eng.ResolveApproval(ctx, adminCaller, req.ID, models.ApprovalApproved, "looks fine")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalApproved, resolved.Status)
	require.NotNil(t, resolved.ResolverID)
	require.Equal(t, adminCaller.UserID, *resolved.ResolverID)

	view, err := eng.GetRequirement(ctx, agencyCaller, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequirementApproved, view.Status)

	// nothing pending anymore
	_, err = eng.ResolveApproval(ctx, adminCaller, req.ID, models.ApprovalApproved, "")
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestResolveApprovalRejects(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	req, err := eng.CreateRequirement(ctx, agencyCaller, draftRequirement(), nil)
	require.NoError(t, err)
	_, err = eng.RequestApproval(ctx, agencyCaller, req.ID)
	require.NoError(t, err)

	_, err = eng.ResolveApproval(ctx, adminCaller, req.ID, models.ApprovalStatus("deferred"), "")
	require.ErrorIs(t, err, apperr.ErrValidation)

	resolved, err := eng.ResolveApproval(ctx, adminCaller, req.ID, models.ApprovalRejected, "budget exceeds the program")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalRejected, resolved.Status)

	view, err := eng.GetRequirement(ctx, agencyCaller, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequirementRejected, view.Status)

	// a rejected requirement is terminal, it cannot re-enter the flow
	_, err = eng.RequestApproval(ctx, agencyCaller, req.ID)
	require.ErrorIs(t, err, apperr.ErrConflict)
}

// A requirement in approval_pending with no pending entry reports the
// missing entry, not a transition conflict.
func TestResolveApprovalWithoutEntry(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	store.Requirements[10] = models.Requirement{
		ID: 10, AgencyID: 1, Title: "Depot roofing",
		Status: models.RequirementApprovalPending,
	}

	_, err := eng.ResolveApproval(ctx, adminCaller, 10, models.ApprovalApproved, "")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetRequirementVisibility(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	req, err := eng.CreateRequirement(ctx, agencyCaller, draftRequirement(), nil)
	require.NoError(t, err)

	// drafts are hidden from vendors but visible to the owner and admins
	_, err = eng.GetRequirement(ctx, vendorCaller, req.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = eng.GetRequirement(ctx, adminCaller, req.ID)
	require.NoError(t, err)
}
