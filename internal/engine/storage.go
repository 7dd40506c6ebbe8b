package engine

import (
	"context"
	"time"

	"bidmarket/models"
)

// Store is the durable-store surface the engine operates on. *db.Storage
// implements it; tests use an in-memory fake.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context, ids []int) ([]models.User, error)
	GetOrganization(ctx context.Context, id int) (*models.Organization, error)

	CreateRequirement(ctx context.Context, r *models.Requirement) error
	GetRequirement(ctx context.Context, id int) (*models.Requirement, error)
	UpdateRequirementStatus(ctx context.Context, id int, status models.RequirementStatus, publishedAt *time.Time) error
	CreateRequirementElement(ctx context.Context, e *models.RequirementElement) error
	GetRequirementElements(ctx context.Context, requirementID int) ([]models.RequirementElement, error)

	CreateApproval(ctx context.Context, a *models.Approval) error
	GetLatestPendingApproval(ctx context.Context, requirementID int) (*models.Approval, error)
	ResolveApproval(ctx context.Context, id, resolverID int, status models.ApprovalStatus, comment string) error

	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	GetAnnouncement(ctx context.Context, id int) (*models.Announcement, error)
	GetAnnouncementsByRequirement(ctx context.Context, requirementID int) ([]models.Announcement, error)
	GetAnnouncementsByProject(ctx context.Context, projectID int) ([]models.Announcement, error)
	UpdateAnnouncementStatus(ctx context.Context, id int, status models.AnnouncementStatus) error
	ListOpenAnnouncements(ctx context.Context, agencyID, limit, offset int) ([]models.Announcement, error)

	CreateProposal(ctx context.Context, p *models.Proposal) error
	GetProposal(ctx context.Context, id int) (*models.Proposal, error)
	GetProposalsByAnnouncement(ctx context.Context, announcementID int) ([]models.Proposal, error)
	GetUserProposals(ctx context.Context, vendorOrgID, limit, offset int) ([]models.Proposal, error)
	HasProposal(ctx context.Context, announcementID, vendorOrgID int) (bool, error)
	GetAwardedProposal(ctx context.Context, announcementID int) (*models.Proposal, error)
	GetProposalHoldingRank(ctx context.Context, announcementID, rank int) (*models.Proposal, error)
	UpdateProposalStatus(ctx context.Context, id int, status models.ProposalStatus) error
	SetProposalReserveRank(ctx context.Context, id int, rank *int) error
	RejectOpenProposals(ctx context.Context, announcementID, exceptProposalID int) (int, error)

	CreateAssignment(ctx context.Context, a *models.EvaluatorAssignment) (bool, error)
	HasAssignment(ctx context.Context, announcementID, evaluatorID int) (bool, error)
	GetAssignments(ctx context.Context, announcementID int) ([]models.EvaluatorAssignment, error)
	CreateEvaluation(ctx context.Context, e *models.Evaluation) error
	HasEvaluation(ctx context.Context, proposalID, evaluatorID int) (bool, error)
	GetEvaluationsByAnnouncement(ctx context.Context, announcementID int) ([]models.Evaluation, error)
	CreateEvaluatorHistory(ctx context.Context, h *models.EvaluatorHistory) error

	CreateContract(ctx context.Context, c *models.Contract) error
	GetContract(ctx context.Context, id int) (*models.Contract, error)
	GetContractByProposal(ctx context.Context, proposalID int) (*models.Contract, error)
	UpdateContractPaymentStatus(ctx context.Context, id int, status models.PaymentStatus) error
}

// TxRunner executes fn as one all-or-nothing transaction. The Store handed
// to fn is transaction-scoped; an error from fn rolls everything back.
type TxRunner func(ctx context.Context, fn func(tx Store) error) error
