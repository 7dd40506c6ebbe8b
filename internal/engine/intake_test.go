package engine_test

import (
	"context"
	"testing"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/engine"
	"bidmarket/models"

	"github.com/stretchr/testify/require"
)

func TestSubmitProposal(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())

	p, err := eng.SubmitProposal(ctx, vendorCaller, engine.SubmitProposalInput{
		AnnouncementID: ann.ID,
		ProposedPrice:  9_500_000,
		Pitch:          "we resurfaced the ring road last year",
	})
	require.NoError(t, err)
	require.Equal(t, models.ProposalSubmitted, p.Status)
	require.Equal(t, vendorCaller.OrgID, p.VendorOrgID)
	require.Equal(t, vendorCaller.UserID, p.SubmitterID)
}

func TestSubmitProposalVendorOnly(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())

	in := engine.SubmitProposalInput{AnnouncementID: ann.ID, ProposedPrice: 1}
	_, err := eng.SubmitProposal(ctx, agencyCaller, in)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = eng.SubmitProposal(ctx, adminCaller, in)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSubmitProposalWindow(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())
	in := engine.SubmitProposalInput{AnnouncementID: ann.ID, ProposedPrice: 1_000_000}

	// one second before closing is accepted
	eng.SetClock(func() time.Time { return ann.ClosingAt.Add(-time.Second) })
	_, err := eng.SubmitProposal(ctx, vendorCaller, in)
	require.NoError(t, err)

	// at and after closing the window is shut
	eng.SetClock(func() time.Time { return ann.ClosingAt })
	_, err = eng.SubmitProposal(ctx, vendor2Call, in)
	require.ErrorIs(t, err, apperr.ErrConflict)

	eng.SetClock(func() time.Time { return ann.ClosingAt.Add(time.Second) })
	_, err = eng.SubmitProposal(ctx, vendor2Call, in)
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSubmitProposalClosedAnnouncement(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())
	require.NoError(t, store.UpdateAnnouncementStatus(ctx, ann.ID, models.AnnouncementClosed))

	_, err := eng.SubmitProposal(ctx, vendorCaller, engine.SubmitProposalInput{
		AnnouncementID: ann.ID,
		ProposedPrice:  1_000_000,
	})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSubmitProposalDuplicate(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())
	in := engine.SubmitProposalInput{AnnouncementID: ann.ID, ProposedPrice: 2_000_000}

	_, err := eng.SubmitProposal(ctx, vendorCaller, in)
	require.NoError(t, err)

	// same vendor org again, even via a different member
	_, err = eng.SubmitProposal(ctx, vendorCaller, in)
	require.ErrorIs(t, err, apperr.ErrConflict)

	// another vendor org is fine
	_, err = eng.SubmitProposal(ctx, vendor2Call, in)
	require.NoError(t, err)
	require.Len(t, store.Proposals, 2)
}

func TestSubmitProposalNegativePrice(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())

	_, err := eng.SubmitProposal(ctx, vendorCaller, engine.SubmitProposalInput{
		AnnouncementID: ann.ID,
		ProposedPrice:  -1,
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListMyProposals(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())
	seedProposal(store, 200, ann.ID, vendorCaller.OrgID, 1_000_000)
	seedProposal(store, 201, ann.ID, vendor2Call.OrgID, 2_000_000)

	mine, err := eng.ListMyProposals(ctx, vendorCaller, 5, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, 200, mine[0].ID)

	_, err = eng.ListMyProposals(ctx, agencyCaller, 5, 0)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestListOpenAnnouncementsChannel(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	pub := seedAnnouncement(store, 100, defaultCriteria())
	private := seedAnnouncement(store, 101, defaultCriteria())
	private.Channel = models.ChannelAgencyPrivate
	store.Announcements[101] = private

	forVendor, err := eng.ListOpenAnnouncements(ctx, vendorCaller, 10, 0)
	require.NoError(t, err)
	require.Len(t, forVendor, 1)
	require.Equal(t, pub.ID, forVendor[0].ID)

	forAgency, err := eng.ListOpenAnnouncements(ctx, agencyCaller, 10, 0)
	require.NoError(t, err)
	require.Len(t, forAgency, 2)
}
