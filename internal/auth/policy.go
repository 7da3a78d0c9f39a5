package auth

import "github.com/gosuda/hrm/internal/domain"

const (
	super   = domain.RoleSuperAdmin
	admin   = domain.RoleCompanyAdmin
	hr      = domain.RoleHR
	viewer  = domain.RoleViewer
	auditor = domain.RoleAuditor
)

// Role sets per operation. Handlers and services never compare roles
// directly; they pass one of these to Authorize.
//
//nolint:gochecknoglobals // static policy table
var (
	AnyRole = Roles(super, admin, hr, viewer, auditor)

	ListCompanies   = Roles(super, admin)
	ViewCompanies   = AnyRole // scoped to the caller's own company
	CreateCompany   = Roles(super)
	UpdateCompany   = Roles(super, admin)
	DeleteCompany   = Roles(super)
	ListAllUsers    = Roles(super)
	ListCompanyUser = Roles(super, admin)
	CreateUser      = Roles(super, admin)
	AdministerUsers = Roles(super) // role, company and active changes, resets, deletes

	ViewEmployees      = AnyRole
	ManageEmployees    = Roles(super, admin)
	TerminateEmployee  = Roles(super, admin)
	ReactivateEmployee = Roles(super)
	DeleteEmployee     = Roles(super, admin)
	ManageSalary       = Roles(super, admin)
	RevealSensitive    = Roles(super)
	ViewContactDetails = Roles(super, admin, hr)

	ViewDocuments   = AnyRole
	ManageDocuments = Roles(super, admin)

	ViewDashboard    = AnyRole
	ViewActivityLogs = AnyRole
	ViewAuditSummary = Roles(super, admin)
	ViewLoginLogs    = Roles(super, admin)
	WatchActivity    = Roles(super, admin, auditor)
)

// assignableByCompanyAdmin are the roles a company admin may hand out.
//
//nolint:gochecknoglobals // static policy table
var assignableByCompanyAdmin = Roles(hr, viewer, auditor)

// CanAssign checks whether p may create or move a user into role within
// companyID. The global role may assign anything; company admins may only
// assign non-admin roles inside their own company.
func CanAssign(p *domain.Principal, role domain.Role, companyID *int64) error {
	if err := Authorize(p, CreateUser); err != nil {
		return err
	}
	if IsGlobal(p) {
		return nil
	}
	if !assignableByCompanyAdmin.Contains(role) {
		return domain.ErrForbidden
	}
	return EnforceScope(p, companyID)
}

// CanReveal reports whether p may see decoded sensitive values.
func CanReveal(p *domain.Principal) bool {
	return Authorize(p, RevealSensitive) == nil
}

// IsSelf reports whether p is the user with id.
func IsSelf(p *domain.Principal, id int64) bool {
	return p != nil && p.UserID == id
}
