package models

// Lifecycle enums and their transition tables. Every status change in the
// engine goes through CanTransitionTo; handlers and storage never compare
// raw strings.

type RequirementStatus string

const (
	RequirementDraft              RequirementStatus = "draft"
	RequirementApprovalPending    RequirementStatus = "approval_pending"
	RequirementApprovalInProgress RequirementStatus = "approval_in_progress"
	RequirementApproved           RequirementStatus = "approved"
	RequirementRejected           RequirementStatus = "rejected"
	RequirementPublished          RequirementStatus = "published"
)

var requirementTransitions = map[RequirementStatus][]RequirementStatus{
	RequirementDraft:              {RequirementApprovalPending},
	RequirementApprovalPending:    {RequirementApprovalInProgress, RequirementApproved, RequirementRejected},
	RequirementApprovalInProgress: {RequirementApproved, RequirementRejected},
	RequirementApproved:           {RequirementPublished},
}

func (s RequirementStatus) CanTransitionTo(next RequirementStatus) bool {
	for _, allowed := range requirementTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type IssuanceMode string

const (
	IssuanceIntegrated         IssuanceMode = "integrated"
	IssuanceSeparatedByElement IssuanceMode = "separated_by_element"
	IssuanceSeparatedByGroup   IssuanceMode = "separated_by_group"
)

type AnnouncementStatus string

const (
	AnnouncementOpen   AnnouncementStatus = "open"
	AnnouncementClosed AnnouncementStatus = "closed"
)

type ChannelType string

const (
	ChannelPublic        ChannelType = "public"
	ChannelAgencyPrivate ChannelType = "agency_private"
)

type ProposalStatus string

const (
	ProposalSubmitted   ProposalStatus = "submitted"
	ProposalUnderReview ProposalStatus = "under_review"
	ProposalAwarded     ProposalStatus = "awarded"
	ProposalRejected    ProposalStatus = "rejected"
)

var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalSubmitted:   {ProposalUnderReview, ProposalAwarded, ProposalRejected},
	ProposalUnderReview: {ProposalAwarded, ProposalRejected},
	// rejected -> awarded only through reserve promotion; the engine
	// checks the reserve rank before consulting this table.
	ProposalRejected: {ProposalAwarded},
}

func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	for _, allowed := range proposalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Awardable reports whether a proposal in this status may be awarded
// directly, without a reserve rank.
func (s ProposalStatus) Awardable() bool {
	return s == ProposalSubmitted || s == ProposalUnderReview
}

type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "pending"
	PaymentPrepaymentPaid PaymentStatus = "prepayment_paid"
	PaymentAllPaid        PaymentStatus = "all_paid"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:        {PaymentPrepaymentPaid},
	PaymentPrepaymentPaid: {PaymentAllPaid},
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type AssignmentScope string

const (
	ScopeAnnouncement AssignmentScope = "announcement"
	ScopeRequirement  AssignmentScope = "rfp"
	ScopeProject      AssignmentScope = "project"
)

type AssignmentMode string

const (
	ModeDesignated AssignmentMode = "designated"
	ModeRandom     AssignmentMode = "random"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleAgencyMember Role = "agency_member"
	RoleVendorMember Role = "vendor_member"
)

type OrganizationKind string

const (
	OrgAgency OrganizationKind = "agency"
	OrgVendor OrganizationKind = "vendor"
)
