package models

import (
	"encoding/json"
	"time"
)

// User is an authenticated platform member.
type User struct {
	ID             int       `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	FirstName      string    `db:"first_name" json:"firstName"`
	LastName       string    `db:"last_name" json:"lastName"`
	Role           Role      `db:"role" json:"role" validate:"required,oneof=admin agency_member vendor_member"`
	OrganizationID int       `db:"organization_id" json:"organizationId"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"-"`
}

// Organization is either a buying agency or a selling vendor.
type Organization struct {
	ID        int              `db:"id" json:"id"`
	Name      string           `db:"name" json:"name" validate:"required,max=100"`
	Kind      OrganizationKind `db:"kind" json:"kind" validate:"required,oneof=agency vendor"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"-"`
}

// Requirement is an agency's procurement specification (RFP) before it
// becomes one or more announcements.
type Requirement struct {
	ID             int               `db:"id" json:"id"`
	AgencyID       int               `db:"agency_id" json:"agencyId" validate:"required"`
	ProjectID      *int              `db:"project_id" json:"projectId,omitempty"`
	Title          string            `db:"title" json:"title" validate:"required,max=100"`
	Description    string            `db:"description" json:"description" validate:"required,max=2000"`
	IssuanceMode   IssuanceMode      `db:"issuance_mode" json:"issuanceMode" validate:"required,oneof=integrated separated_by_element separated_by_group"`
	Status         RequirementStatus `db:"status" json:"status"`
	EstimatedPrice int64             `db:"estimated_price" json:"estimatedPrice"`
	ClosingAt      time.Time         `db:"closing_at" json:"closingAt"`
	PublishedAt    *time.Time        `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
}

// RequirementElement is one typed line item of a requirement. Detail is an
// opaque structured document; only ElementType, AllocatedBudget and
// ParentElementID are interpreted here.
type RequirementElement struct {
	ID               int             `db:"id" json:"id"`
	RequirementID    int             `db:"requirement_id" json:"requirementId"`
	ElementType      string          `db:"element_type" json:"elementType" validate:"required,max=50"`
	Detail           json.RawMessage `db:"detail" json:"detail"`
	AllocatedBudget  int64           `db:"allocated_budget" json:"allocatedBudget"`
	PrepaymentRatio  int             `db:"prepayment_ratio" json:"prepaymentRatio"`
	PrepaymentDueAt  *time.Time      `db:"prepayment_due_at" json:"prepaymentDueAt,omitempty"`
	BalanceDueAt     *time.Time      `db:"balance_due_at" json:"balanceDueAt,omitempty"`
	ParentElementID  *int            `db:"parent_element_id" json:"parentElementId,omitempty"`
}

// Approval is one entry of the linear request/approve/reject flow that
// gates requirement publication.
type Approval struct {
	ID            int            `db:"id" json:"id"`
	RequirementID int            `db:"requirement_id" json:"requirementId"`
	RequesterID   int            `db:"requester_id" json:"requesterId"`
	Status        ApprovalStatus `db:"status" json:"status"`
	ResolverID    *int           `db:"resolver_id" json:"resolverId,omitempty"`
	Comment       string         `db:"comment" json:"comment"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	ResolvedAt    *time.Time     `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// EvaluationCriteria is the weight configuration an announcement is scored
// under. Weights are percentages and must sum to exactly 100.
type EvaluationCriteria struct {
	PriceWeight      int             `db:"price_weight" json:"priceWeight" validate:"min=0,max=100"`
	PortfolioWeight  int             `db:"portfolio_weight" json:"portfolioWeight" validate:"min=0,max=100"`
	AdditionalWeight int             `db:"additional_weight" json:"additionalWeight" validate:"min=0,max=100"`
	PricePenalty     json.RawMessage `db:"price_penalty" json:"pricePenalty,omitempty"`
}

// WeightSum returns the combined weight percentage.
func (c EvaluationCriteria) WeightSum() int {
	return c.PriceWeight + c.PortfolioWeight + c.AdditionalWeight
}

// Announcement is the published, biddable unit derived from a requirement.
// ElementType is set for separated_by_element issuance, AnchorElementID for
// separated_by_group; both are empty for integrated issuance.
type Announcement struct {
	ID              int                `db:"id" json:"id"`
	RequirementID   int                `db:"requirement_id" json:"requirementId"`
	AgencyID        int                `db:"agency_id" json:"agencyId"`
	ElementType     *string            `db:"element_type" json:"elementType,omitempty"`
	AnchorElementID *int               `db:"anchor_element_id" json:"anchorElementId,omitempty"`
	Title           string             `db:"title" json:"title"`
	Description     string             `db:"description" json:"description"`
	Channel         ChannelType        `db:"channel" json:"channel"`
	ContactPrivate  bool               `db:"contact_private" json:"contactPrivate"`
	EstimatedPrice  int64              `db:"estimated_price" json:"estimatedPrice"`
	ClosingAt       time.Time          `db:"closing_at" json:"closingAt"`
	Status          AnnouncementStatus `db:"status" json:"status"`
	EvaluationCriteria
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// AcceptsSubmissions reports whether the submission window is open at now.
// Deadline expiry is lazy; there is no background timer.
func (a *Announcement) AcceptsSubmissions(now time.Time) bool {
	return a.Status == AnnouncementOpen && now.Before(a.ClosingAt)
}

// Proposal is a vendor's bid against one announcement.
type Proposal struct {
	ID             int            `db:"id" json:"id"`
	AnnouncementID int            `db:"announcement_id" json:"announcementId"`
	VendorOrgID    int            `db:"vendor_org_id" json:"vendorOrgId"`
	SubmitterID    int            `db:"submitter_id" json:"submitterId"`
	ProposedPrice  int64          `db:"proposed_price" json:"proposedPrice"`
	Pitch          string         `db:"pitch" json:"pitch"`
	Status         ProposalStatus `db:"status" json:"status"`
	ReserveRank    *int           `db:"reserve_rank" json:"reserveRank,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// EvaluatorAssignment links an agency reviewer to an announcement.
type EvaluatorAssignment struct {
	ID             int             `db:"id" json:"id"`
	AnnouncementID int             `db:"announcement_id" json:"announcementId"`
	EvaluatorID    int             `db:"evaluator_id" json:"evaluatorId"`
	Scope          AssignmentScope `db:"scope" json:"scope"`
	Mode           AssignmentMode  `db:"mode" json:"mode"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

// Evaluation is one evaluator's score for one proposal. PriceScore is
// system-derived at summary time and stored as 0 on submission; the stored
// TotalScore is provisional and re-derived by the summary.
type Evaluation struct {
	ID              int       `db:"id" json:"id"`
	ProposalID      int       `db:"proposal_id" json:"proposalId"`
	EvaluatorID     int       `db:"evaluator_id" json:"evaluatorId"`
	PortfolioScore  float64   `db:"portfolio_score" json:"portfolioScore" validate:"min=0,max=100"`
	AdditionalScore float64   `db:"additional_score" json:"additionalScore" validate:"min=0,max=100"`
	PriceScore      float64   `db:"price_score" json:"priceScore"`
	TotalScore      float64   `db:"total_score" json:"totalScore"`
	Comment         string    `db:"comment" json:"comment"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// EvaluatorHistory is an append-only analytics record written alongside
// each score submission. It is a derived read model and never feeds back
// into award decisions.
type EvaluatorHistory struct {
	ID             int       `db:"id" json:"id"`
	EvaluatorID    int       `db:"evaluator_id" json:"evaluatorId"`
	AnnouncementID int       `db:"announcement_id" json:"announcementId"`
	ProjectID      *int      `db:"project_id" json:"projectId,omitempty"`
	ElementType    *string   `db:"element_type" json:"elementType,omitempty"`
	Score          float64   `db:"score" json:"score"`
	CompletedAt    time.Time `db:"completed_at" json:"completedAt"`
}

// Contract is the binding record created when a proposal is awarded. It is
// immutable except for payment-status transitions.
type Contract struct {
	ID               int           `db:"id" json:"id"`
	AnnouncementID   int           `db:"announcement_id" json:"announcementId"`
	ProposalID       int           `db:"proposal_id" json:"proposalId"`
	VendorOrgID      int           `db:"vendor_org_id" json:"vendorOrgId"`
	AgencyID         int           `db:"agency_id" json:"agencyId"`
	FinalPrice       int64         `db:"final_price" json:"finalPrice"`
	PrepaymentAmount int64         `db:"prepayment_amount" json:"prepaymentAmount"`
	BalanceAmount    int64         `db:"balance_amount" json:"balanceAmount"`
	PaymentStatus    PaymentStatus `db:"payment_status" json:"paymentStatus"`
	Note             string        `db:"note" json:"note"`
	SignedAt         *time.Time    `db:"signed_at" json:"signedAt,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
}
