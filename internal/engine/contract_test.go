package engine_test

import (
	"context"
	"testing"

	"bidmarket/internal/apperr"
	"bidmarket/internal/engine"
	"bidmarket/models"

	"github.com/stretchr/testify/require"
)

func TestPaymentSplit(t *testing.T) {
	cases := []struct {
		price, prepayment, balance int64
	}{
		{10_000_000, 3_000_000, 7_000_000},
		{0, 0, 0},
		{1, 0, 1},
		{2, 1, 1},        // 0.6 rounds up
		{3, 1, 2},        // 0.9 rounds up
		{101, 30, 71},    // 30.3 rounds down
		{105, 32, 73},    // 31.5 rounds up
		{9_999_999, 3_000_000, 6_999_999},
	}
	for _, c := range cases {
		prepayment, balance := engine.PaymentSplit(c.price)
		require.Equal(t, c.prepayment, prepayment, "price %d", c.price)
		require.Equal(t, c.balance, balance, "price %d", c.price)
		// the split is always an exact complement
		require.Equal(t, c.price, prepayment+balance, "price %d", c.price)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())
	p := seedProposal(store, 200, ann.ID, 2, 9_000_000)
	res, err := eng.Award(ctx, agencyCaller, p.ID, nil)
	require.NoError(t, err)
	contractID := res.Contract.ID

	// pending -> all_paid skips a step
	_, err = eng.UpdatePaymentStatus(ctx, agencyCaller, contractID, models.PaymentAllPaid)
	require.ErrorIs(t, err, apperr.ErrConflict)

	c, err := eng.UpdatePaymentStatus(ctx, agencyCaller, contractID, models.PaymentPrepaymentPaid)
	require.NoError(t, err)
	require.Equal(t, models.PaymentPrepaymentPaid, c.PaymentStatus)

	c, err = eng.UpdatePaymentStatus(ctx, agencyCaller, contractID, models.PaymentAllPaid)
	require.NoError(t, err)
	require.Equal(t, models.PaymentAllPaid, c.PaymentStatus)

	// terminal
	_, err = eng.UpdatePaymentStatus(ctx, agencyCaller, contractID, models.PaymentPrepaymentPaid)
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = eng.UpdatePaymentStatus(ctx, agencyCaller, contractID, models.PaymentStatus("escrowed"))
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPaymentStatusAgencyOnly(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())
	p := seedProposal(store, 200, ann.ID, 2, 9_000_000)
	res, err := eng.Award(ctx, agencyCaller, p.ID, nil)
	require.NoError(t, err)

	_, err = eng.UpdatePaymentStatus(ctx, vendorCaller, res.Contract.ID, models.PaymentPrepaymentPaid)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetContractVisibility(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()
	ann := seedAnnouncement(store, 100, defaultCriteria())
	p := seedProposal(store, 200, ann.ID, 2, 9_000_000)
	res, err := eng.Award(ctx, agencyCaller, p.ID, nil)
	require.NoError(t, err)

	// both parties see it, a third vendor does not
	_, err = eng.GetContract(ctx, agencyCaller, res.Contract.ID)
	require.NoError(t, err)
	_, err = eng.GetContract(ctx, vendorCaller, res.Contract.ID)
	require.NoError(t, err)
	_, err = eng.GetContract(ctx, vendor2Call, res.Contract.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}
