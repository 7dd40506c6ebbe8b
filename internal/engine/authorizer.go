package engine

import "bidmarket/models"

// Caller is the capability set of the authenticated user an operation runs
// as. Authorization decisions are methods on this value so they stay
// testable independent of handlers.
type Caller struct {
	UserID  int
	Role    models.Role
	OrgID   int
	OrgKind models.OrganizationKind
}

// CanManageAgency reports whether the caller may act on resources owned by
// the given agency: platform administrators always, agency members only
// for their own agency.
func (c Caller) CanManageAgency(agencyID int) bool {
	if c.Role == models.RoleAdmin {
		return true
	}
	return c.Role == models.RoleAgencyMember && c.OrgID == agencyID
}

// IsAdmin reports platform-administrator authority.
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// IsVendorSide reports whether the caller submits proposals.
func (c Caller) IsVendorSide() bool {
	return c.Role == models.RoleVendorMember && c.OrgKind == models.OrgVendor
}
