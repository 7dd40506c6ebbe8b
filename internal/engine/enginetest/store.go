// Package enginetest provides an in-memory engine.Store for tests. It
// mirrors the storage-level guards of the real schema: the unique
// constraints, the single-winner partial index and all-or-nothing
// transactions with rollback.
package enginetest

import (
	"context"
	"sync"
	"time"

	"bidmarket/internal/apperr"
	"bidmarket/internal/engine"
	"bidmarket/models"
)

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	Users         map[int]models.User
	Orgs          map[int]models.Organization
	Requirements  map[int]models.Requirement
	Elements      map[int]models.RequirementElement
	Approvals     map[int]models.Approval
	Announcements map[int]models.Announcement
	Proposals     map[int]models.Proposal
	Assignments   map[int]models.EvaluatorAssignment
	Evaluations   map[int]models.Evaluation
	History       map[int]models.EvaluatorHistory
	Contracts     map[int]models.Contract

	nextID int

	// FailContracts makes CreateContract fail, for rollback tests.
	FailContracts error
}

var _ engine.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		Users:         map[int]models.User{},
		Orgs:          map[int]models.Organization{},
		Requirements:  map[int]models.Requirement{},
		Elements:      map[int]models.RequirementElement{},
		Approvals:     map[int]models.Approval{},
		Announcements: map[int]models.Announcement{},
		Proposals:     map[int]models.Proposal{},
		Assignments:   map[int]models.EvaluatorAssignment{},
		Evaluations:   map[int]models.Evaluation{},
		History:       map[int]models.EvaluatorHistory{},
		Contracts:     map[int]models.Contract{},
	}
}

// InTx serializes transactions and restores the pre-transaction state when
// fn fails, so partial writes are never visible.
func (s *Store) InTx(ctx context.Context, fn func(tx engine.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshotState struct {
	requirements  map[int]models.Requirement
	elements      map[int]models.RequirementElement
	approvals     map[int]models.Approval
	announcements map[int]models.Announcement
	proposals     map[int]models.Proposal
	assignments   map[int]models.EvaluatorAssignment
	evaluations   map[int]models.Evaluation
	history       map[int]models.EvaluatorHistory
	contracts     map[int]models.Contract
	nextID        int
}

func cloneMap[V any](m map[int]V) map[int]V {
	out := make(map[int]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotState{
		requirements:  cloneMap(s.Requirements),
		elements:      cloneMap(s.Elements),
		approvals:     cloneMap(s.Approvals),
		announcements: cloneMap(s.Announcements),
		proposals:     cloneMap(s.Proposals),
		assignments:   cloneMap(s.Assignments),
		evaluations:   cloneMap(s.Evaluations),
		history:       cloneMap(s.History),
		contracts:     cloneMap(s.Contracts),
		nextID:        s.nextID,
	}
}

func (s *Store) restore(snap snapshotState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requirements = snap.requirements
	s.Elements = snap.elements
	s.Approvals = snap.approvals
	s.Announcements = snap.announcements
	s.Proposals = snap.proposals
	s.Assignments = snap.assignments
	s.Evaluations = snap.evaluations
	s.History = snap.history
	s.Contracts = snap.contracts
	s.nextID = snap.nextID
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// sortedIDs iterates a map in id order, matching ORDER BY id.
func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

// --- users and organizations

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user %q", username)
}

func (s *Store) GetUsers(ctx context.Context, ids []int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.Users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetOrganization(ctx context.Context, id int) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.Orgs[id]
	if !ok {
		return nil, apperr.NotFound("organization %d", id)
	}
	return &o, nil
}

// --- requirements

func (s *Store) CreateRequirement(ctx context.Context, r *models.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.CreatedAt = time.Now()
	s.Requirements[r.ID] = *r
	return nil
}

func (s *Store) GetRequirement(ctx context.Context, id int) (*models.Requirement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Requirements[id]
	if !ok {
		return nil, apperr.NotFound("requirement %d", id)
	}
	return &r, nil
}

func (s *Store) UpdateRequirementStatus(ctx context.Context, id int, status models.RequirementStatus, publishedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Requirements[id]
	if !ok {
		return apperr.NotFound("requirement %d", id)
	}
	r.Status = status
	if publishedAt != nil {
		r.PublishedAt = publishedAt
	}
	s.Requirements[id] = r
	return nil
}

func (s *Store) CreateRequirementElement(ctx context.Context, e *models.RequirementElement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.Elements[e.ID] = *e
	return nil
}

func (s *Store) GetRequirementElements(ctx context.Context, requirementID int) ([]models.RequirementElement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.RequirementElement{}
	for _, id := range sortedIDs(s.Elements) {
		if s.Elements[id].RequirementID == requirementID {
			out = append(out, s.Elements[id])
		}
	}
	return out, nil
}

// --- approvals

func (s *Store) CreateApproval(ctx context.Context, a *models.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	a.CreatedAt = time.Now()
	s.Approvals[a.ID] = *a
	return nil
}

func (s *Store) GetLatestPendingApproval(ctx context.Context, requirementID int) (*models.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := sortedIDs(s.Approvals)
	for i := len(ids) - 1; i >= 0; i-- {
		a := s.Approvals[ids[i]]
		if a.RequirementID == requirementID && a.Status == models.ApprovalPending {
			return &a, nil
		}
	}
	return nil, apperr.NotFound("no pending approval for requirement %d", requirementID)
}

func (s *Store) ResolveApproval(ctx context.Context, id, resolverID int, status models.ApprovalStatus, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Approvals[id]
	if !ok {
		return apperr.NotFound("approval %d", id)
	}
	now := time.Now()
	a.Status = status
	a.ResolverID = &resolverID
	a.Comment = comment
	a.ResolvedAt = &now
	s.Approvals[id] = a
	return nil
}

// --- announcements

func (s *Store) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	a.CreatedAt = time.Now()
	s.Announcements[a.ID] = *a
	return nil
}

func (s *Store) GetAnnouncement(ctx context.Context, id int) (*models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Announcements[id]
	if !ok {
		return nil, apperr.NotFound("announcement %d", id)
	}
	return &a, nil
}

func (s *Store) GetAnnouncementsByRequirement(ctx context.Context, requirementID int) ([]models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Announcement{}
	for _, id := range sortedIDs(s.Announcements) {
		if s.Announcements[id].RequirementID == requirementID {
			out = append(out, s.Announcements[id])
		}
	}
	return out, nil
}

func (s *Store) GetAnnouncementsByProject(ctx context.Context, projectID int) ([]models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Announcement{}
	for _, id := range sortedIDs(s.Announcements) {
		a := s.Announcements[id]
		r, ok := s.Requirements[a.RequirementID]
		if ok && r.ProjectID != nil && *r.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) UpdateAnnouncementStatus(ctx context.Context, id int, status models.AnnouncementStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Announcements[id]
	if !ok {
		return apperr.NotFound("announcement %d", id)
	}
	a.Status = status
	s.Announcements[id] = a
	return nil
}

func (s *Store) ListOpenAnnouncements(ctx context.Context, agencyID, limit, offset int) ([]models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := []models.Announcement{}
	for _, id := range sortedIDs(s.Announcements) {
		a := s.Announcements[id]
		if a.Status != models.AnnouncementOpen {
			continue
		}
		if a.Channel == models.ChannelPublic || a.AgencyID == agencyID {
			all = append(all, a)
		}
	}
	if offset >= len(all) {
		return []models.Announcement{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// --- proposals

func (s *Store) CreateProposal(ctx context.Context, p *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Proposals {
		if existing.AnnouncementID == p.AnnouncementID && existing.VendorOrgID == p.VendorOrgID {
			return apperr.Conflict("proposal_announcement_vendor_key")
		}
	}
	p.ID = s.id()
	p.CreatedAt = time.Now()
	s.Proposals[p.ID] = *p
	return nil
}

func (s *Store) GetProposal(ctx context.Context, id int) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Proposals[id]
	if !ok {
		return nil, apperr.NotFound("proposal %d", id)
	}
	return &p, nil
}

func (s *Store) GetProposalsByAnnouncement(ctx context.Context, announcementID int) ([]models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Proposal{}
	for _, id := range sortedIDs(s.Proposals) {
		if s.Proposals[id].AnnouncementID == announcementID {
			out = append(out, s.Proposals[id])
		}
	}
	return out, nil
}

func (s *Store) GetUserProposals(ctx context.Context, vendorOrgID, limit, offset int) ([]models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Proposal{}
	for _, id := range sortedIDs(s.Proposals) {
		if s.Proposals[id].VendorOrgID == vendorOrgID {
			out = append(out, s.Proposals[id])
		}
	}
	if offset >= len(out) {
		return []models.Proposal{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) HasProposal(ctx context.Context, announcementID, vendorOrgID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Proposals {
		if p.AnnouncementID == announcementID && p.VendorOrgID == vendorOrgID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetAwardedProposal(ctx context.Context, announcementID int) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Proposals {
		if p.AnnouncementID == announcementID && p.Status == models.ProposalAwarded {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) GetProposalHoldingRank(ctx context.Context, announcementID, rank int) (*models.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Proposals {
		if p.AnnouncementID == announcementID && p.ReserveRank != nil && *p.ReserveRank == rank {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateProposalStatus(ctx context.Context, id int, status models.ProposalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Proposals[id]
	if !ok {
		return apperr.NotFound("proposal %d", id)
	}
	if status == models.ProposalAwarded {
		// the partial unique index on (announcement_id) where awarded
		for _, other := range s.Proposals {
			if other.ID != id && other.AnnouncementID == p.AnnouncementID && other.Status == models.ProposalAwarded {
				return apperr.Conflict("proposal_single_winner")
			}
		}
	}
	p.Status = status
	s.Proposals[id] = p
	return nil
}

func (s *Store) SetProposalReserveRank(ctx context.Context, id int, rank *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Proposals[id]
	if !ok {
		return apperr.NotFound("proposal %d", id)
	}
	if rank != nil {
		for _, other := range s.Proposals {
			if other.ID != id && other.AnnouncementID == p.AnnouncementID &&
				other.ReserveRank != nil && *other.ReserveRank == *rank {
				return apperr.Conflict("proposal_reserve_rank")
			}
		}
	}
	p.ReserveRank = rank
	s.Proposals[id] = p
	return nil
}

func (s *Store) RejectOpenProposals(ctx context.Context, announcementID, exceptProposalID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, p := range s.Proposals {
		if p.AnnouncementID != announcementID || id == exceptProposalID {
			continue
		}
		if p.Status == models.ProposalSubmitted || p.Status == models.ProposalUnderReview {
			p.Status = models.ProposalRejected
			s.Proposals[id] = p
			n++
		}
	}
	return n, nil
}

// --- assignments, evaluations

func (s *Store) CreateAssignment(ctx context.Context, a *models.EvaluatorAssignment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Assignments {
		if existing.AnnouncementID == a.AnnouncementID && existing.EvaluatorID == a.EvaluatorID {
			return false, nil
		}
	}
	a.ID = s.id()
	a.CreatedAt = time.Now()
	s.Assignments[a.ID] = *a
	return true, nil
}

func (s *Store) HasAssignment(ctx context.Context, announcementID, evaluatorID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Assignments {
		if a.AnnouncementID == announcementID && a.EvaluatorID == evaluatorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetAssignments(ctx context.Context, announcementID int) ([]models.EvaluatorAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.EvaluatorAssignment{}
	for _, id := range sortedIDs(s.Assignments) {
		if s.Assignments[id].AnnouncementID == announcementID {
			out = append(out, s.Assignments[id])
		}
	}
	return out, nil
}

func (s *Store) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Evaluations {
		if existing.ProposalID == e.ProposalID && existing.EvaluatorID == e.EvaluatorID {
			return apperr.Conflict("evaluation_proposal_evaluator_key")
		}
	}
	e.ID = s.id()
	e.CreatedAt = time.Now()
	s.Evaluations[e.ID] = *e
	return nil
}

func (s *Store) HasEvaluation(ctx context.Context, proposalID, evaluatorID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Evaluations {
		if e.ProposalID == proposalID && e.EvaluatorID == evaluatorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetEvaluationsByAnnouncement(ctx context.Context, announcementID int) ([]models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Evaluation{}
	for _, id := range sortedIDs(s.Evaluations) {
		e := s.Evaluations[id]
		if p, ok := s.Proposals[e.ProposalID]; ok && p.AnnouncementID == announcementID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) CreateEvaluatorHistory(ctx context.Context, h *models.EvaluatorHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.id()
	s.History[h.ID] = *h
	return nil
}

// --- contracts

func (s *Store) CreateContract(ctx context.Context, c *models.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailContracts != nil {
		return s.FailContracts
	}
	c.ID = s.id()
	c.CreatedAt = time.Now()
	s.Contracts[c.ID] = *c
	return nil
}

func (s *Store) GetContract(ctx context.Context, id int) (*models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Contracts[id]
	if !ok {
		return nil, apperr.NotFound("contract %d", id)
	}
	return &c, nil
}

func (s *Store) GetContractByProposal(ctx context.Context, proposalID int) (*models.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := sortedIDs(s.Contracts)
	for i := len(ids) - 1; i >= 0; i-- {
		if s.Contracts[ids[i]].ProposalID == proposalID {
			c := s.Contracts[ids[i]]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateContractPaymentStatus(ctx context.Context, id int, status models.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Contracts[id]
	if !ok {
		return apperr.NotFound("contract %d", id)
	}
	c.PaymentStatus = status
	s.Contracts[id] = c
	return nil
}
