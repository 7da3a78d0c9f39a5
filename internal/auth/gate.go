package auth

import (
	"slices"

	"github.com/gosuda/hrm/internal/domain"
)

// RoleSet is the fixed set of roles permitted to run one operation.
type RoleSet []domain.Role

// Roles declares a RoleSet.
func Roles(rs ...domain.Role) RoleSet {
	return RoleSet(rs)
}

// Contains reports whether r is in the set.
func (s RoleSet) Contains(r domain.Role) bool {
	return slices.Contains(s, r)
}

// Authorize checks a principal against the roles permitted for an operation.
// A missing principal is ErrUnauthorized; a principal whose role is not in
// allowed is ErrForbidden.
func Authorize(p *domain.Principal, allowed RoleSet) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	if !allowed.Contains(p.Role) {
		return domain.ErrForbidden
	}
	return nil
}

// EnforceScope allows access to a resource owned by companyID when the
// principal's role is global or the principal belongs to that company.
// companyID must come from the stored resource. A nil companyID marks a
// resource without an owning company, which only the global role may touch.
func EnforceScope(p *domain.Principal, companyID *int64) error {
	if p == nil {
		return domain.ErrUnauthorized
	}
	if p.Role.Global() {
		return nil
	}
	if companyID == nil || p.CompanyID == nil || *p.CompanyID != *companyID {
		return domain.ErrForbidden
	}
	return nil
}

// IsGlobal reports whether p sees every company.
func IsGlobal(p *domain.Principal) bool {
	return p != nil && p.Role.Global()
}

// CompanyFilter narrows a listing to the principal's company. Global
// callers may pass requested to filter on a company of their choice; for
// everyone else the requested value is ignored.
func CompanyFilter(p *domain.Principal, requested *int64) *int64 {
	if IsGlobal(p) {
		return requested
	}
	if p == nil || p.CompanyID == nil {
		// Never reached for valid principals; an impossible id keeps the
		// listing empty rather than unscoped.
		none := int64(-1)
		return &none
	}
	id := *p.CompanyID
	return &id
}
