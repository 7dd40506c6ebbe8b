package handlers_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bidmarket/internal/engine"
	"bidmarket/internal/engine/enginetest"
	"bidmarket/internal/handlers"
	"bidmarket/internal/handlers/testutils"
	"bidmarket/models"

	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*handlers.Handler, *enginetest.Store) {
	t.Helper()
	store := enginetest.NewStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(store, store.InTx, log, nil)
	h := handlers.NewHandler(eng, log)

	store.Orgs[1] = models.Organization{ID: 1, Name: "City Works Agency", Kind: models.OrgAgency}
	store.Orgs[2] = models.Organization{ID: 2, Name: "Northline Ltd", Kind: models.OrgVendor}
	store.Users[1] = models.User{ID: 1, Username: "root", Role: models.RoleAdmin, OrganizationID: 1}
	store.Users[2] = models.User{ID: 2, Username: "buyer", Role: models.RoleAgencyMember, OrganizationID: 1}
	store.Users[3] = models.User{ID: 3, Username: "seller", Role: models.RoleVendorMember, OrganizationID: 2}
	return h, store
}

func seedOpenAnnouncement(store *enginetest.Store, id int) models.Announcement {
	a := models.Announcement{
		ID:            id,
		RequirementID: 900 + id,
		AgencyID:      1,
		Title:         "Road resurfacing",
		Channel:       models.ChannelPublic,
		ClosingAt:     time.Now().Add(48 * time.Hour),
		Status:        models.AnnouncementOpen,
		EvaluationCriteria: models.EvaluationCriteria{
			PriceWeight: 40, PortfolioWeight: 35, AdditionalWeight: 25,
		},
	}
	store.Announcements[id] = a
	store.Requirements[a.RequirementID] = models.Requirement{
		ID:       a.RequirementID,
		AgencyID: a.AgencyID,
		Title:    a.Title,
		Status:   models.RequirementPublished,
	}
	return a
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestPingHandler(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	h.PingHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestUsernameRequired(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/announcements", nil)
	rec := httptest.NewRecorder()
	h.ListAnnouncementsHandler(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/announcements?username=ghost", nil)
	rec = httptest.NewRecorder()
	h.ListAnnouncementsHandler(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var e handlers.HttpError
	decodeBody(t, rec, &e)
	require.NotEmpty(t, e.Reason)
}

func TestCreateRequirementHandler(t *testing.T) {
	h, store := newTestHandler(t)

	body := `{"agencyId":1,"title":"Bridge inspection","description":"Quarterly inspection","issuanceMode":"integrated","estimatedPrice":5000000,"elements":[{"elementType":"inspection","allocatedBudget":5000000}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/requirements/new?username=buyer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateRequirementHandler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Requirement
	decodeBody(t, rec, &created)
	require.Equal(t, string(models.RequirementDraft), string(created.Status))
	require.Len(t, store.Requirements, 1)
}

func TestCreateRequirementHandlerBadInput(t *testing.T) {
	h, _ := newTestHandler(t)

	// malformed JSON
	req := httptest.NewRequest(http.MethodPost, "/api/requirements/new?username=buyer", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.CreateRequirementHandler(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown issuance mode fails struct validation
	body := `{"agencyId":1,"title":"x","description":"y","issuanceMode":"split_somehow"}`
	req = httptest.NewRequest(http.MethodPost, "/api/requirements/new?username=buyer", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.CreateRequirementHandler(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// a vendor cannot author an agency requirement
	body = `{"agencyId":1,"title":"x","description":"y","issuanceMode":"integrated"}`
	req = httptest.NewRequest(http.MethodPost, "/api/requirements/new?username=seller", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.CreateRequirementHandler(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApprovalHandlers(t *testing.T) {
	h, store := newTestHandler(t)
	store.Requirements[10] = models.Requirement{
		ID: 10, AgencyID: 1, Title: "Bridge inspection", Status: models.RequirementDraft,
	}

	req := httptest.NewRequest(http.MethodPost, "/api/requirements/10/approval/request?username=buyer", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"requirementId": "10"})
	rec := httptest.NewRecorder()
	h.RequestApprovalHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// a non-admin resolver is rejected
	body := `{"action":"approved"}`
	req = httptest.NewRequest(http.MethodPost, "/api/requirements/10/approval/resolve?username=buyer", strings.NewReader(body))
	req = testutils.WithChiURLParams(req, map[string]string{"requirementId": "10"})
	rec = httptest.NewRecorder()
	h.ResolveApprovalHandler(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/requirements/10/approval/resolve?username=root", strings.NewReader(body))
	req = testutils.WithChiURLParams(req, map[string]string{"requirementId": "10"})
	rec = httptest.NewRecorder()
	h.ResolveApprovalHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.RequirementApproved, store.Requirements[10].Status)
}

func TestPublishHandlerWeightSum(t *testing.T) {
	h, store := newTestHandler(t)
	store.Requirements[10] = models.Requirement{
		ID: 10, AgencyID: 1, Title: "Bridge inspection", Status: models.RequirementApproved,
		EstimatedPrice: 5_000_000,
	}

	closing := time.Now().Add(72 * time.Hour).Format(time.RFC3339)
	body := `{"closingAt":"` + closing + `","channel":"public","priceWeight":40,"portfolioWeight":35,"additionalWeight":24}`
	req := httptest.NewRequest(http.MethodPost, "/api/requirements/10/publish?username=buyer", strings.NewReader(body))
	req = testutils.WithChiURLParams(req, map[string]string{"requirementId": "10"})
	rec := httptest.NewRecorder()
	h.PublishHandler(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body = `{"closingAt":"` + closing + `","channel":"public","priceWeight":40,"portfolioWeight":35,"additionalWeight":25}`
	req = httptest.NewRequest(http.MethodPost, "/api/requirements/10/publish?username=buyer", strings.NewReader(body))
	req = testutils.WithChiURLParams(req, map[string]string{"requirementId": "10"})
	rec = httptest.NewRecorder()
	h.PublishHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	decodeBody(t, rec, &resp)
	require.Equal(t, 1, resp["announcements"])
}

func TestSubmitProposalHandler(t *testing.T) {
	h, store := newTestHandler(t)
	seedOpenAnnouncement(store, 100)

	body := `{"announcementId":100,"proposedPrice":9000000,"pitch":"done this before"}`
	req := httptest.NewRequest(http.MethodPost, "/api/proposals/new?username=seller", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SubmitProposalHandler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	// duplicate by the same vendor organization
	req = httptest.NewRequest(http.MethodPost, "/api/proposals/new?username=seller", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.SubmitProposalHandler(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	// agency members cannot bid
	req = httptest.NewRequest(http.MethodPost, "/api/proposals/new?username=buyer", strings.NewReader(body))
	rec = httptest.NewRecorder()
	h.SubmitProposalHandler(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// unknown announcement
	req = httptest.NewRequest(http.MethodPost, "/api/proposals/new?username=seller",
		strings.NewReader(`{"announcementId":404,"proposedPrice":1}`))
	rec = httptest.NewRecorder()
	h.SubmitProposalHandler(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAwardHandler(t *testing.T) {
	h, store := newTestHandler(t)
	ann := seedOpenAnnouncement(store, 100)
	store.Proposals[200] = models.Proposal{
		ID: 200, AnnouncementID: ann.ID, VendorOrgID: 2, SubmitterID: 3,
		ProposedPrice: 9_000_000, Status: models.ProposalSubmitted,
	}
	store.Proposals[201] = models.Proposal{
		ID: 201, AnnouncementID: ann.ID, VendorOrgID: 3, SubmitterID: 3,
		ProposedPrice: 9_500_000, Status: models.ProposalSubmitted,
	}

	req := httptest.NewRequest(http.MethodPost, "/api/proposals/200/award?username=buyer", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"proposalId": "200"})
	rec := httptest.NewRecorder()
	h.AwardHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res engine.AwardResult
	decodeBody(t, rec, &res)
	require.Equal(t, int64(9_000_000), res.Contract.FinalPrice)
	require.Equal(t, int64(2_700_000), res.Contract.PrepaymentAmount)

	// the announcement is closed, a second award conflicts
	req = httptest.NewRequest(http.MethodPost, "/api/proposals/201/award?username=buyer", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"proposalId": "201"})
	rec = httptest.NewRecorder()
	h.AwardHandler(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	// vendors do not decide awards
	req = httptest.NewRequest(http.MethodPost, "/api/proposals/200/award?username=seller", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"proposalId": "200"})
	rec = httptest.NewRecorder()
	h.AwardHandler(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPaymentStatusHandler(t *testing.T) {
	h, store := newTestHandler(t)
	store.Contracts[300] = models.Contract{
		ID: 300, AnnouncementID: 100, ProposalID: 200, VendorOrgID: 2, AgencyID: 1,
		FinalPrice: 9_000_000, PaymentStatus: models.PaymentPending,
	}

	body := `{"status":"all_paid"}`
	req := httptest.NewRequest(http.MethodPut, "/api/contracts/300/payment?username=buyer", strings.NewReader(body))
	req = testutils.WithChiURLParams(req, map[string]string{"contractId": "300"})
	rec := httptest.NewRecorder()
	h.PaymentStatusHandler(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	body = `{"status":"prepayment_paid"}`
	req = httptest.NewRequest(http.MethodPut, "/api/contracts/300/payment?username=buyer", strings.NewReader(body))
	req = testutils.WithChiURLParams(req, map[string]string{"contractId": "300"})
	rec = httptest.NewRecorder()
	h.PaymentStatusHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var c models.Contract
	decodeBody(t, rec, &c)
	require.Equal(t, models.PaymentPrepaymentPaid, c.PaymentStatus)
}

func TestListAnnouncementsPagination(t *testing.T) {
	h, store := newTestHandler(t)
	for i := 0; i < 8; i++ {
		seedOpenAnnouncement(store, 100+i)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/announcements?username=seller&limit=3&offset=6", nil)
	rec := httptest.NewRecorder()
	h.ListAnnouncementsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var anns []models.Announcement
	decodeBody(t, rec, &anns)
	require.Len(t, anns, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/announcements?username=seller&limit=oops", nil)
	rec = httptest.NewRecorder()
	h.ListAnnouncementsHandler(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContractHandlerNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/contracts/404?username=buyer", nil)
	req = testutils.WithChiURLParams(req, map[string]string{"contractId": "404"})
	rec := httptest.NewRecorder()
	h.GetContractHandler(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
